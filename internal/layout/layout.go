// Package layout fits a headline into a fixed box on a news card.
//
// Text is wrapped greedily by the measured width of its shaped form, the font
// size is lowered step by step until the line block fits the box height, and
// the resulting lines are centered line by line. Shaping and measuring are
// provided by the caller through the Shaper and Measurer interfaces.
package layout

import (
	"image/color"
	"math"
)

// Shaper turns a logical string into the string handed to the glyph drawer
// (connected forms, visual order). An empty result for non-empty input is
// treated as a shaping failure and the line measures zero.
type Shaper interface {
	Shape(logical string) string
}

// Measurer reports the extent of a display string at a font size, in pixels.
type Measurer interface {
	Measure(display string, size float64) (width, height float64)
}

// Surface paints a display string with its baseline at (x, y).
type Surface interface {
	DrawText(x, y int, display string, size float64, fill color.Color)
}

// BoundingBox is the writable region of the card, in pixels.
type BoundingBox struct {
	Left, Top, Right, Bottom int
}

// Width of the box.
func (b BoundingBox) Width() int { return b.Right - b.Left }

// Height of the box.
func (b BoundingBox) Height() int { return b.Bottom - b.Top }

// DisplayLine is one wrapped line at a given font size.
type DisplayLine struct {
	Logical string  // words of the line in logical order
	Display string  // shaped and reordered form of Logical
	Width   float64 // measured width of Display
	Height  float64 // measured height of Display
}

// Result is the outcome of fitting one title.
type Result struct {
	Lines      []DisplayLine // top-to-bottom paint order
	Size       float64       // chosen font size
	LineHeight int           // distance between baselines
	Height     int           // len(Lines) × LineHeight
	Attempts   int           // number of sizes probed
	Exhausted  bool          // true if MinSize was reached without fitting
}

// Engine wraps and fits text with one shaper and one font.
type Engine struct {
	shaper  Shaper
	metrics Measurer
}

// New creates an engine. Both collaborators are required.
func New(shaper Shaper, metrics Measurer) *Engine {
	if shaper == nil || metrics == nil {
		panic("layout: shaper and metrics must not be nil")
	}
	return &Engine{shaper: shaper, metrics: metrics}
}

// line shapes and measures the logical words of one line.
func (e *Engine) line(logical string, size float64) DisplayLine {
	l := DisplayLine{Logical: logical, Display: e.shaper.Shape(logical)}
	if l.Display == "" {
		return l
	}
	l.Width, l.Height = e.metrics.Measure(l.Display, size)
	if l.Width < 0 || math.IsNaN(l.Width) {
		l.Width = 0
	}
	return l
}
