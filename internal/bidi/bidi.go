// Package bidi turns logical Arabic text into a display string: letters are
// replaced by their connected presentation forms and the result is
// reordered for right-to-left painting by a left-to-right glyph drawer.
package bidi

import (
	"errors"
	"strings"

	"github.com/abdullahdiaa/garabic"
	xbidi "golang.org/x/text/unicode/bidi"
)

// ErrMalformed is returned when the input is not valid for reordering.
var ErrMalformed = errors.New("bidi: cannot reorder text")

// Shaper converts logical strings to display strings. The zero value is
// ready to use and defaults to right-to-left paragraphs.
type Shaper struct {
	// LeftToRight forces left-to-right paragraphs for text without
	// strong directional characters.
	LeftToRight bool
}

// Shape reshapes and reorders logical. A failure yields the empty string;
// callers treat that as a zero-width line.
func (s Shaper) Shape(logical string) string {
	if logical == "" {
		return ""
	}
	display, err := s.Display(logical)
	if err != nil {
		return ""
	}
	return display
}

// Display is Shape with the reordering error exposed.
func (s Shaper) Display(logical string) (string, error) {
	return Reorder(Reshape(logical), s.LeftToRight)
}

// Reshape replaces the Arabic letters of s by their contextual presentation
// forms, so that a renderer without an OpenType shaper paints connected
// glyphs. The result is still in logical order.
func Reshape(s string) string {
	if s == "" {
		return s
	}
	return garabic.Shape(s)
}

// Reorder returns s in visual order. Runs are resolved by the Unicode
// bidirectional algorithm; right-to-left runs have their characters
// reversed (with brackets mirrored), and for a right-to-left paragraph the
// run sequence itself is reversed. Embedding depth beyond one
// right-to-left and one left-to-right level is not distinguished.
func Reorder(s string, defaultLTR bool) (string, error) {
	if s == "" {
		return "", nil
	}
	rtl := paragraphRTL(s, defaultLTR)
	dir := xbidi.LeftToRight
	if rtl {
		dir = xbidi.RightToLeft
	}
	var p xbidi.Paragraph
	if _, err := p.SetString(s, xbidi.DefaultDirection(dir)); err != nil {
		return "", errors.Join(ErrMalformed, err)
	}
	o, err := p.Order()
	if err != nil {
		return "", errors.Join(ErrMalformed, err)
	}
	n := o.NumRuns()
	if n == 0 {
		return "", ErrMalformed
	}
	runs := make([]string, n)
	for i := 0; i < n; i++ {
		run := o.Run(i)
		if run.Direction() == xbidi.RightToLeft {
			runs[i] = xbidi.ReverseString(run.String())
		} else {
			runs[i] = run.String()
		}
	}
	if rtl {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			runs[i], runs[j] = runs[j], runs[i]
		}
	}
	return strings.Join(runs, ""), nil
}

// paragraphRTL applies rules P2/P3: the first strong character decides the
// paragraph direction.
func paragraphRTL(s string, defaultLTR bool) bool {
	for _, r := range s {
		props, _ := xbidi.LookupRune(r)
		switch props.Class() {
		case xbidi.R, xbidi.AL:
			return true
		case xbidi.L:
			return false
		}
	}
	return !defaultLTR
}
