// Package card composes the square social image for an article: the
// category overlay, the article photo across the top and the headline
// fitted into the text box.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/qenanews/cardbot/internal/fontface"
	"github.com/qenanews/cardbot/internal/layout"
	"golang.org/x/image/draw"
)

// Card is the content of one image.
type Card struct {
	Title     string      // already obfuscated, logical order
	Overlay   image.Image // category background, may be nil
	Photo     image.Image // article photo, may be nil
	TextColor color.Color
}

// Options sizes the card.
type Options struct {
	Size        int // canvas side in pixels
	PhotoHeight int // height of the photo band at the top
	Box         layout.BoundingBox
	Params      layout.FitParams
}

// DefaultOptions is the 1080×1080 layout with the photo band above the text
// box.
func DefaultOptions() Options {
	box := layout.BoundingBox{Left: 55, Top: 765, Right: 1030, Bottom: 980}
	return Options{
		Size:        1080,
		PhotoHeight: 715,
		Box:         box,
		Params:      layout.DefaultFitParams(box),
	}
}

// Renderer draws cards with one layout engine and font.
type Renderer struct {
	opts   Options
	engine *layout.Engine
	font   *fontface.Font
}

func NewRenderer(engine *layout.Engine, font *fontface.Font, opts Options) *Renderer {
	if opts.Params.MaxWidth == 0 {
		opts.Params.MaxWidth = float64(opts.Box.Width())
	}
	if opts.Params.MaxHeight == 0 {
		opts.Params.MaxHeight = opts.Box.Height()
	}
	return &Renderer{opts: opts, engine: engine, font: font}
}

// Render composes c and returns the image with the fit result of the title.
func (r *Renderer) Render(c Card) (*image.RGBA, layout.Result) {
	size := r.opts.Size
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	if c.Overlay != nil {
		draw.Draw(canvas, canvas.Bounds(), Cover(c.Overlay, size, size), image.Point{}, draw.Over)
	}
	if c.Photo != nil && r.opts.PhotoHeight > 0 {
		band := image.Rect(0, 0, size, r.opts.PhotoHeight)
		draw.Draw(canvas, band, Cover(c.Photo, size, r.opts.PhotoHeight), image.Point{}, draw.Over)
	}

	fill := c.TextColor
	if fill == nil {
		fill = color.White
	}
	res := r.engine.Fit(c.Title, r.opts.Params)
	ins := layout.Place(res, r.opts.Box)
	layout.Paint(fontface.NewCanvas(canvas, r.font), ins, res.Size, fill)
	return canvas, res
}

// Cover scales src to cover a w×h frame, keeping its aspect ratio, and crops
// the overflow evenly from both sides.
func Cover(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 || w <= 0 || h <= 0 {
		return dst
	}

	scale := math.Max(float64(w)/float64(sw), float64(h)/float64(sh))
	cw := clamp(int(math.Round(float64(w)/scale)), 1, sw)
	ch := clamp(int(math.Round(float64(h)/scale)), 1, sh)
	x0 := b.Min.X + (sw-cw)/2
	y0 := b.Min.Y + (sh-ch)/2

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+cw, y0+ch), draw.Src, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EncodePNG encodes img.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) ([]byte, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return data, nil
}
