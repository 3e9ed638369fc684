package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkerGenerator returns a deterministic w x h checkerboard.
func checkerGenerator(w, h int) generator.Generator {
	return generator.Func(func([]byte) (image.Image, error) {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				if (x+y)%2 == 0 {
					img.SetGray(x, y, color.Gray{Y: 0xFF})
				}
			}
		}
		return img, nil
	})
}

func stubSet(g generator.Generator) generator.Set {
	return generator.Set{
		symbology.Code128: g,
		symbology.QR:      g,
		symbology.Aztec:   g,
		symbology.PDF417:  g,
	}
}

func TestRender_UpscalesByExactReplication(t *testing.T) {
	base, err := checkerGenerator(3, 2).Generate(nil)
	require.NoError(t, err)

	r := NewRenderer(nil, stubSet(checkerGenerator(3, 2)), 0)
	img, err := r.Render([]byte("x"), symbology.QR, symbology.Normal)
	require.NoError(t, err)

	assert.Equal(t, 30, img.Width)
	assert.Equal(t, 20, img.Height)
	assertReplicated(t, base, img, 10)
}

func TestRender_InvertedIsChannelComplementOfNormal(t *testing.T) {
	r := NewRenderer(nil, stubSet(checkerGenerator(4, 4)), 3)

	normal, err := r.Render([]byte("x"), symbology.Aztec, symbology.Normal)
	require.NoError(t, err)
	inverted, err := r.Render([]byte("x"), symbology.Aztec, symbology.Inverted)
	require.NoError(t, err)

	require.Equal(t, normal.Bounds(), inverted.Bounds())
	for i := 0; i < len(normal.Pix); i += 4 {
		assert.Equal(t, 255-normal.Pix[i], inverted.Pix[i])
		assert.Equal(t, 255-normal.Pix[i+1], inverted.Pix[i+1])
		assert.Equal(t, 255-normal.Pix[i+2], inverted.Pix[i+2])
		assert.Equal(t, normal.Pix[i+3], inverted.Pix[i+3], "alpha is preserved")
	}
}

func TestRender_Code128InvertedMatchesNormal(t *testing.T) {
	data, err := payload.Encode("HELLO123", symbology.Code128)
	require.NoError(t, err)
	r := NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 0)

	normal, err := r.Render(data, symbology.Code128, symbology.Normal)
	require.NoError(t, err)
	inverted, err := r.Render(data, symbology.Code128, symbology.Inverted)
	require.NoError(t, err)

	require.Equal(t, normal.Bounds(), inverted.Bounds())
	require.Len(t, inverted.Pix, len(normal.Pix))
	for i := 0; i < len(normal.Pix); i += 4 {
		if 255-normal.Pix[i] != inverted.Pix[i] || 255-normal.Pix[i+1] != inverted.Pix[i+1] ||
			255-normal.Pix[i+2] != inverted.Pix[i+2] || normal.Pix[i+3] != inverted.Pix[i+3] {
			t.Fatalf("pixel offset %d: normal %v, inverted %v", i, normal.Pix[i:i+4], inverted.Pix[i:i+4])
		}
	}
}

func TestRender_PDF417CapacityAlwaysFits(t *testing.T) {
	for _, level := range []int{0, symbology.DefaultPDF417SecurityLevel, 5, 8} {
		limit := symbology.PDF417Capacity(level)
		require.Positive(t, limit)

		opts := generator.DefaultOptions()
		opts.PDF417SecurityLevel = level
		reg := symbology.NewRegistry().WithCapacity(symbology.PDF417, limit)
		enc := payload.NewEncoder(reg)
		r := NewRenderer(reg, generator.LocalSet(opts), 1)

		for name, unit := range map[string]string{
			"upper":       "A",
			"punctuation": "(",
			"mixed":       "aZ~!9 {",
			"shifts":      "a~!1A",
		} {
			t.Run(fmt.Sprintf("level %d %s", level, name), func(t *testing.T) {
				text := strings.Repeat(unit, limit/len(unit)+1)

				data, err := enc.Encode(text[:limit], symbology.PDF417)
				require.NoError(t, err)
				_, err = r.Render(data, symbology.PDF417, symbology.Normal)
				require.NoError(t, err)

				_, err = enc.Encode(text[:limit+1], symbology.PDF417)
				assert.Equal(t, KindPayloadTooLarge, Kind(err))
			})
		}
	}
}

func TestNewRenderer_Registry(t *testing.T) {
	reg := symbology.NewRegistry().WithCapacity(symbology.QR, 10)
	assert.Same(t, reg, NewRenderer(reg, nil, 0).Registry())

	def := NewRenderer(nil, nil, 0).Registry()
	require.NotNil(t, def)
	assert.False(t, def.Rule(symbology.DataMatrix).Implemented)
}

func TestRender_IsIdempotent(t *testing.T) {
	r := NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 0)
	for _, s := range []symbology.Symbology{symbology.Code128, symbology.QR, symbology.Aztec, symbology.PDF417} {
		t.Run(s.String(), func(t *testing.T) {
			a, err := r.Render([]byte("HELLO123"), s, symbology.Normal)
			require.NoError(t, err)
			b, err := r.Render([]byte("HELLO123"), s, symbology.Normal)
			require.NoError(t, err)
			assert.Equal(t, a.Pix, b.Pix)
		})
	}
}

func TestRender_DataMatrixNotImplemented(t *testing.T) {
	called := false
	g := generator.Func(func([]byte) (image.Image, error) {
		called = true
		return image.NewGray(image.Rect(0, 0, 1, 1)), nil
	})
	r := NewRenderer(nil, generator.Set{symbology.DataMatrix: g}, 0)

	img, err := r.Render([]byte("HELLO"), symbology.DataMatrix, symbology.Normal)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, symbology.ErrNotImplemented)
	assert.False(t, errors.Is(err, ErrGenerationFailed))
	assert.False(t, called)
}

func TestRender_GenerationFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  generator.Generator
	}{
		{"error", generator.Func(func([]byte) (image.Image, error) { return nil, errors.New("boom") })},
		{"nil image", generator.Func(func([]byte) (image.Image, error) { return nil, nil })},
		{"empty image", generator.Func(func([]byte) (image.Image, error) { return image.NewGray(image.Rect(0, 0, 0, 0)), nil })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(nil, stubSet(tt.gen), 0)
			img, err := r.Render([]byte("x"), symbology.Code128, symbology.Normal)
			assert.Nil(t, img)
			assert.ErrorIs(t, err, ErrGenerationFailed)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, symbology.Code128, genErr.Symbology)
			assert.Equal(t, KindGenerationFailed, Kind(err))
		})
	}
}

func TestRender_MissingGenerator(t *testing.T) {
	r := NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 0)
	_, err := r.Render([]byte("4006381333931"), symbology.EAN13, symbology.Normal)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrNoGenerator)
}

func TestRender_PDF417Scenario(t *testing.T) {
	set := generator.LocalSet(generator.DefaultOptions())
	gen, ok := set.Lookup(symbology.PDF417)
	require.True(t, ok)

	data, err := payload.Encode("76457616829459", symbology.PDF417)
	require.NoError(t, err)
	base, err := gen.Generate(data)
	require.NoError(t, err)

	img, err := NewRenderer(nil, set, 0).Render(data, symbology.PDF417, symbology.Normal)
	require.NoError(t, err)

	assert.Equal(t, base.Bounds().Dx()*10, img.Width)
	assert.Equal(t, base.Bounds().Dy()*10, img.Height)
	assert.Greater(t, img.Width, img.Height)
	assertReplicated(t, base, img, 10)
}

func TestImage_PNG(t *testing.T) {
	r := NewRenderer(nil, stubSet(checkerGenerator(2, 2)), 2)
	img, err := r.Render([]byte("x"), symbology.QR, symbology.Normal)
	require.NoError(t, err)

	data, err := img.PNG()
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), decoded.Bounds())

	var nilImg *Image
	_, err = nilImg.PNG()
	assert.ErrorIs(t, err, ErrRasterizationFailed)
}

func TestRasterize_RejectsWrongDimensions(t *testing.T) {
	_, err := rasterize(image.NewNRGBA(image.Rect(0, 0, 5, 5)), 10, 10)
	assert.ErrorIs(t, err, ErrRasterizationFailed)
	assert.Equal(t, KindRasterizationFailed, Kind(err))

	_, err = rasterize(nil, 1, 1)
	assert.ErrorIs(t, err, ErrRasterizationFailed)
}

func assertReplicated(t *testing.T, base image.Image, img *Image, scale int) {
	t.Helper()
	bb := base.Bounds()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			want := color.NRGBAModel.Convert(base.At(bb.Min.X+x/scale, bb.Min.Y+y/scale)).(color.NRGBA)
			got := img.NRGBAAt(x, y)
			if want != got {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
}
