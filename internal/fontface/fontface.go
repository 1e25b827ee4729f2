// Package fontface measures and paints display strings with an OpenType
// font. Faces are created per size and memoized, as are measurements, so the
// repeated re-measuring done by the line wrapper stays cheap.
package fontface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/qenanews/cardbot/internal/cache"
	"github.com/qenanews/cardbot/internal/logger"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Font is a parsed font with per-size faces. It is not safe for concurrent
// use.
type Font struct {
	Name string

	data   []byte
	parsed *opentype.Font
	faces  *cache.Cache[float64, font.Face]
	widths *cache.Cache[measureKey, extent]
}

type measureKey struct {
	display string
	size    float64
}

type extent struct {
	width, height float64
}

// Load reads a font file. An empty path selects the embedded Go Regular
// font, which has no Arabic glyphs and is meant for tests and dry runs.
func Load(path string) (*Font, error) {
	if path == "" {
		logger.Warn("no font file configured, using Go Regular")
		return Parse("goregular", goregular.TTF)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses TrueType or OpenType data.
func Parse(name string, data []byte) (*Font, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return &Font{
		Name:   name,
		data:   data,
		parsed: parsed,
		faces:  cache.New[float64, font.Face](0),
		widths: cache.New[measureKey, extent](0),
	}, nil
}

// Face returns the face at size pixels (72 DPI).
func (f *Font) Face(size float64) (font.Face, error) {
	return f.faces.GetOrCreate(size, func() (font.Face, error) {
		face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return nil, fmt.Errorf("create face at %.1fpx: %w", size, err)
		}
		return face, nil
	})
}

// Measure returns the advance width and the ascent+descent of display at
// size. A face that cannot be created measures as zero.
func (f *Font) Measure(display string, size float64) (float64, float64) {
	key := measureKey{display, size}
	if e, ok := f.widths.Get(key); ok {
		return e.width, e.height
	}
	face, err := f.Face(size)
	if err != nil {
		logger.Debug("measure failed", "font", f.Name, "size", size, "error", err)
		return 0, 0
	}
	e := extent{
		width:  fixedToFloat(font.MeasureString(face, display)),
		height: f.lineExtent(face),
	}
	f.widths.Set(key, e)
	return e.width, e.height
}

// Missing returns the runes of s the font has no glyph for.
func (f *Font) Missing(s string) []rune {
	var buf []rune
	seen := map[rune]bool{}
	for _, r := range s {
		if seen[r] || r == ' ' {
			continue
		}
		seen[r] = true
		idx, err := f.parsed.GlyphIndex(nil, r)
		if err != nil || idx == 0 {
			buf = append(buf, r)
		}
	}
	return buf
}

// UnitsPerEm of the font.
func (f *Font) UnitsPerEm() float64 {
	return float64(f.parsed.UnitsPerEm())
}

func (f *Font) lineExtent(face font.Face) float64 {
	m := face.Metrics()
	return fixedToFloat(m.Ascent + m.Descent)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Canvas paints display strings onto an image.
type Canvas struct {
	dst  draw.Image
	font *Font
}

// NewCanvas paints with f onto dst.
func NewCanvas(dst draw.Image, f *Font) *Canvas {
	return &Canvas{dst: dst, font: f}
}

// DrawText draws display with its baseline origin at (x, y).
func (c *Canvas) DrawText(x, y int, display string, size float64, fill color.Color) {
	face, err := c.font.Face(size)
	if err != nil {
		logger.Warn("draw skipped", "font", c.font.Name, "size", size, "error", err)
		return
	}
	d := &font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(fill),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(display)
}
