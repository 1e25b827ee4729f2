package layout

import (
	"math"
	"strings"
)

// FitParams bounds the font size search.
type FitParams struct {
	StartSize        float64 // first size tried
	MinSize          float64 // size floor
	Step             float64 // decrement between attempts
	LineHeightFactor float64 // line height = round(size × factor)
	MaxWidth         float64 // box width in pixels
	MaxHeight        int     // box height in pixels
}

// DefaultFitParams returns the card defaults for a box.
func DefaultFitParams(box BoundingBox) FitParams {
	return FitParams{
		StartSize:        60,
		MinSize:          24,
		Step:             2,
		LineHeightFactor: 1.3,
		MaxWidth:         float64(box.Width()),
		MaxHeight:        box.Height(),
	}
}

func (p FitParams) normalize() FitParams {
	if p.Step <= 0 {
		p.Step = 1
	}
	if p.MinSize <= 0 {
		p.MinSize = 1
	}
	if p.StartSize < p.MinSize {
		p.StartSize = p.MinSize
	}
	if p.LineHeightFactor <= 0 {
		p.LineHeightFactor = 1
	}
	return p
}

// MaxAttempts is the number of sizes Fit probes at most.
func (p FitParams) MaxAttempts() int {
	p = p.normalize()
	return int(math.Floor((p.StartSize-p.MinSize)/p.Step)) + 1
}

func (p FitParams) lineHeight(size float64) int {
	return int(math.Round(size * p.LineHeightFactor))
}

// Fit searches downwards from p.StartSize for the largest size whose
// wrapped line block fits p.MaxHeight.
//
// The descent is linear: shrinking the font can change the line count by
// more than one line per step, so the line count is not monotonic enough
// for bisection. If no size down to p.MinSize fits, the lines wrapped at
// p.MinSize are returned with Exhausted set; overflow is accepted.
func (e *Engine) Fit(text string, p FitParams) Result {
	p = p.normalize()
	if len(strings.Fields(text)) == 0 {
		lh := p.lineHeight(p.MinSize)
		return Result{Size: p.MinSize, LineHeight: lh, Exhausted: true}
	}

	var last Result
	attempts := p.MaxAttempts()
	for k := 0; k < attempts; k++ {
		size := p.StartSize - float64(k)*p.Step
		lh := p.lineHeight(size)
		lines := e.Wrap(text, size, p.MaxWidth)
		last = Result{
			Lines:      lines,
			Size:       size,
			LineHeight: lh,
			Height:     len(lines) * lh,
			Attempts:   k + 1,
		}
		if len(lines) > 0 && last.Height <= p.MaxHeight {
			return last
		}
	}

	last.Exhausted = true
	if last.Size != p.MinSize {
		// the step did not land on the floor; report lines measured there
		last.Size = p.MinSize
		last.LineHeight = p.lineHeight(p.MinSize)
		last.Lines = e.Wrap(text, p.MinSize, p.MaxWidth)
		last.Height = len(last.Lines) * last.LineHeight
	}
	return last
}
