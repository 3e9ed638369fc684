// Package render turns payload bytes into normalized barcode images and runs
// render requests end to end.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/disintegration/imaging"
)

// DefaultScale is the nearest-neighbour upscale factor applied to every
// generated image.
const DefaultScale = 10

// Image is a rendered barcode.
type Image struct {
	*image.NRGBA
	Width  int
	Height int
}

// PNG encodes the image.
func (img *Image) PNG() ([]byte, error) {
	if img == nil || img.NRGBA == nil {
		return nil, &RasterizationError{Operation: "png", Err: errors.New("nil image")}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.NRGBA); err != nil {
		return nil, &RasterizationError{Operation: "png", Err: err}
	}
	return buf.Bytes(), nil
}

// Renderer dispatches payloads to symbology generators and normalizes the
// output. It holds no mutable state and is safe for concurrent use.
type Renderer struct {
	registry   *symbology.Registry
	generators generator.Set
	scale      int
}

// NewRenderer creates a renderer. A nil registry selects the default rules
// and a scale <= 0 selects DefaultScale.
func NewRenderer(registry *symbology.Registry, generators generator.Set, scale int) *Renderer {
	if registry == nil {
		registry = symbology.NewRegistry()
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Renderer{registry: registry, generators: generators, scale: scale}
}

// Registry returns the rules the renderer checks implementation status
// against.
func (r *Renderer) Registry() *symbology.Registry { return r.registry }

// Scale returns the upscale factor.
func (r *Renderer) Scale() int { return r.scale }

// Render generates the barcode for payload, upscales it and applies mode.
func (r *Renderer) Render(payload []byte, s symbology.Symbology, mode symbology.ColorMode) (*Image, error) {
	if !r.registry.Rule(s).Implemented {
		return nil, fmt.Errorf("%s: %w", s, symbology.ErrNotImplemented)
	}

	gen, ok := r.generators.Lookup(s)
	if !ok {
		return nil, &GenerationError{Symbology: s, Err: ErrNoGenerator}
	}

	base, err := gen.Generate(payload)
	if err != nil {
		return nil, &GenerationError{Symbology: s, Err: err}
	}
	if base == nil || base.Bounds().Empty() {
		return nil, &GenerationError{Symbology: s, Err: generator.ErrNoImage}
	}

	out, err := r.normalize(base, mode)
	if err != nil {
		return nil, err
	}
	slog.Debug("barcode rendered", "symbology", s.String(), "mode", mode.String(),
		"width", out.Width, "height", out.Height)
	return out, nil
}

func (r *Renderer) normalize(base image.Image, mode symbology.ColorMode) (*Image, error) {
	b := base.Bounds()
	width, height := b.Dx()*r.scale, b.Dy()*r.scale

	pixels := imaging.Resize(base, width, height, imaging.NearestNeighbor)
	if mode == symbology.Inverted {
		pixels = imaging.Invert(pixels)
	}
	return rasterize(pixels, width, height)
}

func rasterize(pixels *image.NRGBA, width, height int) (*Image, error) {
	if pixels == nil || pixels.Bounds().Empty() {
		return nil, &RasterizationError{Operation: "extract", Err: errors.New("empty pixel buffer")}
	}
	if pixels.Bounds().Dx() != width || pixels.Bounds().Dy() != height {
		return nil, &RasterizationError{
			Operation: "extract",
			Err: fmt.Errorf("got %dx%d, want %dx%d",
				pixels.Bounds().Dx(), pixels.Bounds().Dy(), width, height),
		}
	}
	return &Image{NRGBA: pixels, Width: width, Height: height}, nil
}
