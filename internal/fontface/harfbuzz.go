package fontface

import (
	"bytes"
	"fmt"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	"github.com/qenanews/cardbot/internal/cache"
)

// HarfBuzz measures display strings by the advances the HarfBuzz shaper
// produces, which include kerning and mark positioning the plain cmap
// advances of Font.Measure ignore. Heights come from the OpenType face.
type HarfBuzz struct {
	font   *Font
	hbFont *hb.Font
	widths *cache.Cache[measureKey, float64]
}

// NewHarfBuzz prepares a HarfBuzz font from the data of f.
func NewHarfBuzz(f *Font) (*HarfBuzz, error) {
	face, err := hbtt.Parse(bytes.NewReader(f.data), true)
	if err != nil {
		return nil, fmt.Errorf("harfbuzz parse %s: %w", f.Name, err)
	}
	return &HarfBuzz{
		font:   f,
		hbFont: hb.NewFont(face),
		widths: cache.New[measureKey, float64](0),
	}, nil
}

// Measure implements layout.Measurer. display is already in visual order,
// so it is shaped left to right.
func (h *HarfBuzz) Measure(display string, size float64) (float64, float64) {
	_, height := h.font.Measure(display, size)
	key := measureKey{display, size}
	if w, ok := h.widths.Get(key); ok {
		return w, height
	}
	runes := []rune(display)
	buf := hb.NewBuffer()
	buf.Props.Direction = hb.LeftToRight
	buf.AddRunes(runes, 0, len(runes))
	buf.Shape(h.hbFont, nil)

	var advance int64
	for _, pos := range buf.Pos {
		advance += int64(pos.XAdvance)
	}
	w := float64(advance) * size / h.font.UnitsPerEm()
	h.widths.Set(key, w)
	return w, height
}
