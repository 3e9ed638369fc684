package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderBarcode encodes and renders text with the production generators,
// EAN included. A scale of 0 uses the renderer default.
func RenderBarcode(t *testing.T, text string, s symbology.Symbology, scale int) *render.Image {
	t.Helper()

	data, err := payload.Encode(text, s)
	require.NoError(t, err)
	img, err := render.NewRenderer(nil, generator.ServerSet(generator.DefaultOptions()), scale).Render(data, s, symbology.Normal)
	require.NoError(t, err)
	return img
}

// CreateTestImage returns a width x height image filled with bg.
func CreateTestImage(width, height int, bg color.Color) *image.NRGBA {
	return imaging.New(width, height, bg)
}

// CreateTextImage draws text in black on white. It carries no barcode and
// serves as a negative sample for the decoder.
func CreateTextImage(text string, width, height int) *image.NRGBA {
	img := CreateTestImage(width, height, color.White)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, height/2),
	}
	d.DrawString(text)
	return img
}

// SaveImage writes img as PNG, creating parent directories.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	f, err := os.Create(path) //nolint:gosec
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
}

// LoadImage decodes the PNG at path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path) //nolint:gosec
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

// SameImage reports whether a and b have equal bounds and equal pixels.
func SameImage(a, b image.Image) bool {
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	na, nb := toNRGBA(a), toNRGBA(b)
	for y := 0; y < na.Rect.Dy(); y++ {
		for x := 0; x < na.Rect.Dx(); x++ {
			if na.NRGBAAt(x, y) != nb.NRGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}

func toNRGBA(img image.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
