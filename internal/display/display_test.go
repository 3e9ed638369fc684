package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barcodeImage(w, h int) *render.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if x%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return &render.Image{NRGBA: img, Width: w, Height: h}
}

func TestPlaceholderText(t *testing.T) {
	assert.Equal(t, EmptyInputText, PlaceholderText(""))
	assert.Equal(t, "ABCé", PlaceholderText("ABCé"))
}

func TestCompose_SuccessContainsBarcode(t *testing.T) {
	bc := barcodeImage(120, 40)
	res := render.Result{Request: render.Request{Text: "HELLO", Symbology: symbology.Code128}, Image: bc}

	out := Compose(res, "HELLO")
	b := out.Bounds()
	assert.GreaterOrEqual(t, b.Dx(), 120+2*padding)
	assert.Greater(t, b.Dy(), 40+2*padding, "caption adds height")

	// The barcode is pasted verbatim at its offset.
	offX := (b.Dx() - 120) / 2
	for x := range 10 {
		want := bc.At(x, 5)
		got := out.At(offX+x, padding+5)
		r1, g1, b1, _ := want.RGBA()
		r2, g2, b2, _ := got.RGBA()
		assert.Equal(t, []uint32{r1, g1, b1}, []uint32{r2, g2, b2})
	}
}

func TestCompose_WithoutCaption(t *testing.T) {
	res := render.Result{Image: barcodeImage(50, 50)}
	out := Compose(res, "")
	assert.Equal(t, 50+2*padding, out.Bounds().Dy())
}

func TestCompose_FailureUsesPlaceholder(t *testing.T) {
	failed := render.Result{
		Request: render.Request{Text: "ABCé", Symbology: symbology.Code128},
		Err:     &payload.UnsupportedCharacterError{Symbology: symbology.Code128, Position: 3, Char: 'é'},
	}
	empty := render.Result{
		Request: render.Request{Text: "", Symbology: symbology.Code128},
		Err:     payload.ErrEmptyInput,
	}

	a := Compose(failed, "ignored")
	b := Compose(empty, "ignored")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, 2*glyphRadius+captionGap+lineHeight+2*padding, a.Bounds().Dy())

	// Both show the circled cross.
	pal := PaletteFor(symbology.Normal)
	assert.True(t, hasColor(a, pal.Glyph))
	assert.True(t, hasColor(b, pal.Glyph))
	assert.Equal(t, placeholder(pal, EmptyInputText).Bounds(), b.Bounds())
}

func TestComposeRemote(t *testing.T) {
	failed := ComposeRemote(nil, remote.ErrNoImage, "96385074", symbology.Normal)
	pal := PaletteFor(symbology.Normal)
	assert.Equal(t, placeholder(pal, "96385074", RemoteErrorText).Bounds(), failed.Bounds())
	assert.Equal(t, 2*glyphRadius+captionGap+2*lineHeight+2*padding, failed.Bounds().Dy())

	failed = ComposeRemote(image.NewGray(image.Rect(0, 0, 10, 10)), errors.New("boom"), "x", symbology.Normal)
	assert.True(t, hasColor(failed, PaletteFor(symbology.Normal).Glyph))

	ok := ComposeRemote(barcodeImage(95, 40), nil, "96385074", symbology.Normal)
	assert.False(t, hasColor(ok, PaletteFor(symbology.Normal).Glyph))
}

func TestCompose_RemoteFailureShowsErrorCaption(t *testing.T) {
	res := render.Result{
		Request: render.Request{Text: "96385074", Symbology: symbology.EAN8, UseRemote: true},
		Err:     fmt.Errorf("ean8: %w", remote.ErrNoImage),
	}

	got := Compose(res, "96385074")
	want := ComposeRemote(nil, res.Err, "96385074", symbology.Normal)
	assert.True(t, sameImage(want, got), "remote failure must match ComposeRemote")

	local := Compose(render.Result{Request: render.Request{Text: "96385074"}, Err: res.Err}, "96385074")
	assert.Less(t, local.Bounds().Dy(), got.Bounds().Dy(), "local failures carry no error caption")

	empty := Compose(render.Result{Request: render.Request{UseRemote: true}, Err: payload.ErrEmptyInput}, "")
	assert.Equal(t, placeholder(PaletteFor(symbology.Normal), EmptyInputText).Bounds(), empty.Bounds())
}

func TestPaletteFor_Inverted(t *testing.T) {
	res := render.Result{Request: render.Request{ColorMode: symbology.Inverted}, Err: payload.ErrEmptyInput}
	out := Compose(res, "")
	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 0}, []uint32{r, g, b}, "inverted mode uses a dark background")
}

func sameImage(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

func hasColor(img image.Image, c color.Color) bool {
	wr, wg, wb, _ := c.RGBA()
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == wr && g == wg && b == wb {
				return true
			}
		}
	}
	return false
}
