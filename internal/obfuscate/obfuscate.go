// Package obfuscate breaks up denylisted terms in headlines and captions by
// inserting a separator glyph into the middle of each match, so that the
// term no longer appears literally while the text stays readable.
//
// A separator is always inserted inside an existing word; words are never
// added, removed or reordered, and words that do not match are returned
// byte-identical.
package obfuscate

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Mode limits how many matches are split.
type Mode int

const (
	// ModeOnce splits the first match only.
	ModeOnce Mode = iota
	// ModeEvery splits every match.
	ModeEvery
	// ModeOncePerCategory splits the first match of every category.
	ModeOncePerCategory
)

func (m Mode) String() string {
	switch m {
	case ModeOnce:
		return "once"
	case ModeEvery:
		return "every"
	case ModeOncePerCategory:
		return "once-per-category"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the configuration spelling of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "once", "":
		return ModeOnce, nil
	case "every", "every-occurrence", "all":
		return ModeEvery, nil
	case "once-per-category", "category":
		return ModeOncePerCategory, nil
	}
	return ModeOnce, fmt.Errorf("unknown obfuscation mode %q", s)
}

// Match selects how terms are found in words.
type Match int

const (
	// MatchWord requires a term to equal a whole word (ignoring surrounding
	// punctuation), or a phrase to equal consecutive words.
	MatchWord Match = iota
	// MatchSubstring also finds terms inside longer tokens; phrases are
	// found with their spaces removed.
	MatchSubstring
)

// ParseMatch parses the configuration spelling of a match kind.
func ParseMatch(s string) (Match, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "":
		return MatchWord, nil
	case "substring", "token":
		return MatchSubstring, nil
	}
	return MatchWord, fmt.Errorf("unknown match kind %q", s)
}

// Rand picks separators. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// DefaultSeparators is the separator palette used when none is configured.
var DefaultSeparators = []string{"*", "•", "_"}

// Obfuscator applies a denylist. It is safe for sequential use only when
// the injected Rand is.
type Obfuscator struct {
	list       *Denylist
	separators []string
	mode       Mode
	match      Match
	rnd        Rand
}

// Option configures an Obfuscator.
type Option func(*Obfuscator)

// WithMode sets the split limit.
func WithMode(m Mode) Option { return func(o *Obfuscator) { o.mode = m } }

// WithMatch sets the match kind.
func WithMatch(m Match) Option { return func(o *Obfuscator) { o.match = m } }

// WithSeparators sets the palette; empty entries are ignored.
func WithSeparators(seps ...string) Option {
	return func(o *Obfuscator) {
		var keep []string
		for _, s := range seps {
			if s != "" {
				keep = append(keep, s)
			}
		}
		if len(keep) > 0 {
			o.separators = keep
		}
	}
}

// WithRand pins the separator choice.
func WithRand(r Rand) Option { return func(o *Obfuscator) { o.rnd = r } }

// New creates an obfuscator for list.
func New(list *Denylist, opts ...Option) *Obfuscator {
	o := &Obfuscator{
		list:       list,
		separators: DefaultSeparators,
		mode:       ModeOnce,
		match:      MatchWord,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Separators returns the palette.
func (o *Obfuscator) Separators() []string {
	return append([]string(nil), o.separators...)
}

// Obfuscate returns text with denylisted terms split.
func (o *Obfuscator) Obfuscate(text string) string {
	out, _ := o.ObfuscateN(text)
	return out
}

// ObfuscateN is Obfuscate, also reporting the number of inserted separators.
func (o *Obfuscator) ObfuscateN(text string) (string, int) {
	if o.list.Len() == 0 || strings.TrimSpace(text) == "" {
		return text, 0
	}
	toks := tokenize(text)
	var words []int
	for i, t := range toks {
		if !t.space {
			words = append(words, i)
		}
	}

	splits := 0
	usedCategory := map[string]bool{}
	done := make([]bool, len(words))
	for wi := range words {
		if o.mode == ModeOnce && splits > 0 {
			break
		}
		if done[wi] {
			continue
		}
		var p pending
		for _, term := range o.list.terms {
			if o.mode == ModeOncePerCategory && usedCategory[term.Category] {
				continue
			}
			n := o.apply(toks, words, wi, term, done, &p)
			if n == 0 {
				continue
			}
			splits += n
			usedCategory[term.Category] = true
			if o.mode == ModeOnce || done[wi] {
				break
			}
		}
		if p.flush(&toks[words[wi]], o.pick) {
			done[wi] = true
		}
	}
	if splits == 0 {
		return text, 0
	}
	var b strings.Builder
	b.Grow(len(text) + splits*4)
	for _, t := range toks {
		b.WriteString(t.text)
	}
	return b.String(), splits
}

// Strip removes every separator of the palette from text.
func (o *Obfuscator) Strip(text string) string {
	for _, sep := range o.separators {
		text = strings.ReplaceAll(text, sep, "")
	}
	return text
}

// apply tries term at word wi and returns the number of separators
// planned. Whole-word and phrase matches are inserted at once and mark their
// words done; matches inside a token are collected in p.
func (o *Obfuscator) apply(toks []token, words []int, wi int, term Term, done []bool, p *pending) int {
	if len(term.words) > 1 {
		end := wi + len(term.words)
		if len(p.at) == 0 && end <= len(words) && phraseAt(toks, words[wi:end], term.words) {
			target, at := phraseSplit(toks, words[wi:end], term)
			toks[target].text = insertAt(toks[target].text, at, o.pick())
			for j := wi; j < end; j++ {
				done[j] = true
			}
			return 1
		}
		if o.match == MatchSubstring {
			return o.splitInside(toks[words[wi]].text, term.compact, p)
		}
		return 0
	}

	if o.match == MatchSubstring {
		return o.splitInside(toks[words[wi]].text, term.Text, p)
	}
	tok := &toks[words[wi]]
	lead, core, _ := trimPunct(tok.text)
	if core != term.Text {
		return 0
	}
	tok.text = insertAt(tok.text, len(lead)+midByte(core), o.pick())
	done[wi] = true
	return 1
}

// splitInside plans splits for occurrences of needle within text: the
// first free one only, unless the mode splits every match. Occurrences
// overlapping a range already claimed by a longer term are skipped.
func (o *Obfuscator) splitInside(text, needle string, p *pending) int {
	if needle == "" {
		return 0
	}
	n := 0
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			break
		}
		lo, hi := from+i, from+i+len(needle)
		if p.overlaps(lo, hi) {
			_, size := utf8.DecodeRuneInString(text[lo:])
			from = lo + size
			continue
		}
		p.spans = append(p.spans, [2]int{lo, hi})
		p.at = append(p.at, lo+midByte(needle))
		n++
		from = hi
		if o.mode != ModeEvery {
			break
		}
	}
	return n
}

// pending holds the splits planned inside one token. Offsets refer to the
// token text before any separator is inserted.
type pending struct {
	spans [][2]int
	at    []int
}

func (p *pending) overlaps(lo, hi int) bool {
	for _, sp := range p.spans {
		if lo < sp[1] && sp[0] < hi {
			return true
		}
	}
	return false
}

// flush inserts the planned separators into tok and reports whether there
// were any.
func (p *pending) flush(tok *token, sep func() string) bool {
	if len(p.at) == 0 {
		return false
	}
	sort.Ints(p.at)
	// back to front so earlier offsets stay valid
	for i := len(p.at) - 1; i >= 0; i-- {
		tok.text = insertAt(tok.text, p.at[i], sep())
	}
	return true
}

func (o *Obfuscator) pick() string {
	if len(o.separators) == 1 {
		return o.separators[0]
	}
	return o.separators[o.rnd.Intn(len(o.separators))]
}

type token struct {
	text  string
	space bool
}

// tokenize splits s into alternating word and whitespace tokens, keeping
// every byte.
func tokenize(s string) []token {
	var toks []token
	start := 0
	inSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i == 0 {
			inSpace = sp
			continue
		}
		if sp != inSpace {
			toks = append(toks, token{text: s[start:i], space: inSpace})
			start, inSpace = i, sp
		}
	}
	if start < len(s) {
		toks = append(toks, token{text: s[start:], space: inSpace})
	}
	return toks
}

// trimPunct splits a word into leading punctuation, core and trailing
// punctuation.
func trimPunct(w string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(w, unicode.IsPunct)
	lead = w[:len(w)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsPunct)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

func phraseAt(toks []token, idx []int, want []string) bool {
	for k, ti := range idx {
		_, core, _ := trimPunct(toks[ti].text)
		if core != want[k] {
			return false
		}
	}
	return true
}

// phraseSplit returns the token and byte offset that receive the separator
// of a matched phrase: the rune midpoint of the phrase as listed. When the
// midpoint falls next to a space the split would leave an empty piece, so
// the middle word (or the longest, if that is too short) is split instead.
func phraseSplit(toks []token, idx []int, term Term) (int, int) {
	mid := term.runes / 2
	if mid < 1 {
		mid = 1
	}
	start := 0
	for k, w := range term.words {
		n := utf8.RuneCountInString(w)
		if start < mid && mid < start+n {
			lead, _, _ := trimPunct(toks[idx[k]].text)
			return idx[k], len(lead) + runeByte(w, mid-start)
		}
		start += n + 1
	}

	target := idx[len(idx)/2]
	if _, core, _ := trimPunct(toks[target].text); utf8.RuneCountInString(core) < 2 {
		best := 0
		for _, ti := range idx {
			_, core, _ := trimPunct(toks[ti].text)
			if n := utf8.RuneCountInString(core); n > best {
				target, best = ti, n
			}
		}
	}
	lead, core, _ := trimPunct(toks[target].text)
	return target, len(lead) + midByte(core)
}

// midByte is the byte offset of the middle rune of s (rune count / 2, at
// least one rune in).
func midByte(s string) int {
	n := utf8.RuneCountInString(s) / 2
	if n < 1 {
		n = 1
	}
	return runeByte(s, n)
}

// runeByte is the byte offset of the n-th rune of s.
func runeByte(s string, n int) int {
	off := 0
	for i := 0; i < n && off < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}

func insertAt(s string, at int, sep string) string {
	return s[:at] + sep + s[at:]
}
