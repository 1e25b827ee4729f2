package layout

import (
	"image/color"
	"math"
)

// BaselineRatio places the baseline of a line below its top edge, as a
// fraction of the font size.
const BaselineRatio = 0.8

// Instruction paints one line.
type Instruction struct {
	X, Y     int     // top-left corner of the line
	Baseline int     // y of the baseline
	Display  string  // shaped text
	Width    float64 // measured width
}

// Place centers the lines of r inside box: the block vertically, and every
// line horizontally on its own. Lines that shaped to nothing or measure zero
// are skipped and do not advance the pen. r is not modified.
func Place(r Result, box BoundingBox) []Instruction {
	if len(r.Lines) == 0 {
		return nil
	}
	y := box.Top + floorDiv(box.Height()-len(r.Lines)*r.LineHeight, 2)
	baseline := int(r.Size * BaselineRatio)
	out := make([]Instruction, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Display == "" || l.Width <= 0 {
			continue
		}
		x := box.Left + int(math.Floor((float64(box.Width())-l.Width)/2))
		out = append(out, Instruction{
			X:        x,
			Y:        y,
			Baseline: y + baseline,
			Display:  l.Display,
			Width:    l.Width,
		})
		y += r.LineHeight
	}
	return out
}

// Paint hands the instructions to s.
func Paint(s Surface, ins []Instruction, size float64, fill color.Color) {
	for _, in := range ins {
		s.DrawText(in.X, in.Baseline, in.Display, size, fill)
	}
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
