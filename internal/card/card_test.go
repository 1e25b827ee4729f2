package card

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/qenanews/cardbot/internal/bidi"
	"github.com/qenanews/cardbot/internal/fontface"
	"github.com/qenanews/cardbot/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func bands() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 100))
	cols := []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, cols[x/100])
		}
	}
	return img
}

func TestCoverCropsCenter(t *testing.T) {
	out := Cover(bands(), 50, 50)
	assert.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())
	c := out.RGBAAt(25, 25)
	assert.Greater(t, c.G, uint8(200))
	assert.Less(t, c.R, uint8(50))
	assert.Less(t, c.B, uint8(50))
}

func TestCoverUpscales(t *testing.T) {
	out := Cover(solid(10, 20, color.RGBA{0, 0, 255, 255}), 1080, 715)
	assert.Equal(t, 1080, out.Bounds().Dx())
	assert.Equal(t, 715, out.Bounds().Dy())
	assert.Greater(t, out.RGBAAt(540, 357).B, uint8(250))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"white", color.RGBA{255, 255, 255, 255}},
		{"Black", color.RGBA{0, 0, 0, 255}},
		{"#ff8000", color.RGBA{255, 128, 0, 255}},
		{"#0f0", color.RGBA{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, color.RGBAModel.Convert(got), tt.in)
	}
	for _, bad := range []string{"", "chartreuse-ish", "#12", "#zzzzzz"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestDecodeAndLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(4, 3, color.Black)))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "overlay.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	img, err = LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestRenderComposesCard(t *testing.T) {
	f, err := fontface.Parse("goregular", goregular.TTF)
	require.NoError(t, err)
	r := NewRenderer(layout.New(bidi.Shaper{}, f), f, DefaultOptions())

	img, res := r.Render(Card{
		Title:     "Qena governor opens a new school",
		Overlay:   solid(50, 50, color.RGBA{0, 0, 128, 255}),
		Photo:     solid(400, 300, color.RGBA{255, 0, 0, 255}),
		TextColor: color.White,
	})

	assert.Equal(t, image.Rect(0, 0, 1080, 1080), img.Bounds())
	assert.Equal(t, 60.0, res.Size)
	assert.False(t, res.Exhausted)
	photo := img.RGBAAt(540, 300)
	assert.Greater(t, photo.R, uint8(250))
	assert.Less(t, photo.G, uint8(5))
	overlay := img.RGBAAt(5, 1075)
	assert.InDelta(t, 128, int(overlay.B), 2)
	assert.Less(t, overlay.R, uint8(5))

	light := 0
	for y := 765; y < 980; y++ {
		for x := 55; x < 1030; x++ {
			if img.RGBAAt(x, y).R > 200 {
				light++
			}
		}
	}
	assert.Greater(t, light, 100, "headline should be painted in the text box")

	data, err := EncodePNG(img)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
