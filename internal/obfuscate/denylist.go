package obfuscate

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Term is one denylisted word or phrase.
type Term struct {
	Text     string
	Category string

	words   []string // Text split on whitespace
	compact string   // Text without whitespace
	runes   int
}

// Category groups terms in the denylist file.
type Category struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// DenylistFile is the YAML layout of the denylist:
//
//	categories:
//	  - name: violence
//	    terms: [قتل, ذبح]
type DenylistFile struct {
	Categories []Category `yaml:"categories"`
}

// Denylist is an immutable, longest-first ordered set of terms.
type Denylist struct {
	terms []Term
}

// NewDenylist builds a denylist. Duplicates and terms shorter than two
// runes (which cannot be split) are dropped. Terms are ordered by
// descending rune length; ties keep their input order.
func NewDenylist(categories ...Category) *Denylist {
	seen := map[string]bool{}
	var terms []Term
	for _, c := range categories {
		for _, raw := range c.Terms {
			text := strings.Join(strings.Fields(raw), " ")
			if utf8.RuneCountInString(text) < 2 || seen[text] {
				continue
			}
			seen[text] = true
			terms = append(terms, Term{
				Text:     text,
				Category: c.Name,
				words:    strings.Fields(text),
				compact:  strings.ReplaceAll(text, " ", ""),
				runes:    utf8.RuneCountInString(text),
			})
		}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].runes > terms[j].runes
	})
	return &Denylist{terms: terms}
}

// LoadDenylist reads a denylist YAML file.
func LoadDenylist(path string) (*Denylist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg DenylistFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode denylist %s: %w", path, err)
	}
	return NewDenylist(cfg.Categories...), nil
}

// Terms returns the terms, longest first.
func (d *Denylist) Terms() []Term {
	if d == nil {
		return nil
	}
	out := make([]Term, len(d.terms))
	copy(out, d.terms)
	return out
}

// Len is the number of terms.
func (d *Denylist) Len() int {
	if d == nil {
		return 0
	}
	return len(d.terms)
}
