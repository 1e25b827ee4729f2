package fontface

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func goFont(t *testing.T) *Font {
	t.Helper()
	f, err := Parse("goregular", goregular.TTF)
	require.NoError(t, err)
	return f
}

func TestMeasureGrowsWithTextAndSize(t *testing.T) {
	f := goFont(t)
	w1, h1 := f.Measure("Qena", 20)
	w2, _ := f.Measure("Qena News", 20)
	w3, h3 := f.Measure("Qena", 40)

	assert.Greater(t, w1, 0.0)
	assert.Greater(t, h1, 0.0)
	assert.Greater(t, w2, w1)
	assert.InDelta(t, 2*w1, w3, 1.0)
	assert.Greater(t, h3, h1)
}

func TestMeasureIsMemoized(t *testing.T) {
	f := goFont(t)
	w, h := f.Measure("cached", 30)
	assert.Equal(t, 1, f.widths.Len())
	w2, h2 := f.Measure("cached", 30)
	assert.Equal(t, w, w2)
	assert.Equal(t, h, h2)
	assert.Equal(t, 1, f.faces.Len())
}

func TestMissingReportsUncoveredRunes(t *testing.T) {
	f := goFont(t)
	assert.Empty(t, f.Missing("plain latin"))
	assert.NotEmpty(t, f.Missing("ﻗﺘﻞ"))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("junk", []byte("not a font"))
	assert.Error(t, err)
}

func TestCanvasDrawsPixels(t *testing.T) {
	f := goFont(t)
	img := image.NewRGBA(image.Rect(0, 0, 200, 60))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	NewCanvas(img, f).DrawText(10, 40, "Qena", 30, color.Black)

	dark := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 20, "text should leave ink on the canvas")
}

func TestHarfBuzzAgreesWithFaceAdvances(t *testing.T) {
	f := goFont(t)
	hb, err := NewHarfBuzz(f)
	require.NoError(t, err)

	want, _ := f.Measure("Hello world", 32)
	got, h := hb.Measure("Hello world", 32)
	assert.InEpsilon(t, want, got, 0.1)
	assert.Greater(t, h, 0.0)
}
