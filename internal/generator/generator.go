// Package generator adapts barcode encoding libraries to a single capability:
// turning a payload into a base image at native module resolution.
//
// A generator is deterministic: the same payload always yields the same
// pixels. Upscaling and colour treatment happen later in the render package.
package generator

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/disintegration/imaging"
)

// ErrNoImage is returned when a library reports success without an image.
var ErrNoImage = errors.New("generator produced no image")

// Generator turns payload bytes into a base barcode image.
type Generator interface {
	Generate(payload []byte) (image.Image, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(payload []byte) (image.Image, error)

// Generate calls f(payload).
func (f Func) Generate(payload []byte) (image.Image, error) { return f(payload) }

// Set maps symbologies to generators.
type Set map[symbology.Symbology]Generator

// Lookup returns the generator for s.
func (s Set) Lookup(sym symbology.Symbology) (Generator, bool) {
	g, ok := s[sym]
	return g, ok && g != nil
}

// Options tunes the production generators.
type Options struct {
	// QRBackend selects the QR implementation: "skip2" or "boombuler".
	QRBackend string
	// PDF417SecurityLevel is the PDF417 error correction level (0-8).
	PDF417SecurityLevel int
	// BarHeight is the height in modules of 1D symbols.
	BarHeight int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		QRBackend:           QRBackendSkip2,
		PDF417SecurityLevel: symbology.DefaultPDF417SecurityLevel,
		BarHeight:           32,
	}
}

const (
	QRBackendSkip2     = "skip2"
	QRBackendBoombuler = "boombuler"
)

// Validate checks the options.
func (o Options) Validate() error {
	if o.QRBackend != QRBackendSkip2 && o.QRBackend != QRBackendBoombuler {
		return fmt.Errorf("invalid qr backend: %s (must be %s or %s)", o.QRBackend, QRBackendSkip2, QRBackendBoombuler)
	}
	if o.PDF417SecurityLevel < 0 || o.PDF417SecurityLevel > 8 {
		return fmt.Errorf("invalid pdf417 security level: %d (must be between 0 and 8)", o.PDF417SecurityLevel)
	}
	if o.BarHeight <= 0 {
		return fmt.Errorf("invalid bar height: %d (must be positive)", o.BarHeight)
	}
	return nil
}

// LocalSet returns the generators for the locally rendered symbologies.
// DataMatrix is intentionally absent; EAN is only served remotely.
func LocalSet(opts Options) Set {
	set := Set{
		symbology.Code128: &code128Generator{barHeight: opts.BarHeight},
		symbology.Aztec:   aztecGenerator{},
		symbology.PDF417:  &pdf417Generator{securityLevel: byte(opts.PDF417SecurityLevel)},
	}
	if opts.QRBackend == QRBackendBoombuler {
		set[symbology.QR] = boombulerQRGenerator{}
	} else {
		set[symbology.QR] = skip2QRGenerator{}
	}
	return set
}

// ServerSet extends LocalSet with the EAN generators used by the barcode
// HTTP service.
func ServerSet(opts Options) Set {
	set := LocalSet(opts)
	set[symbology.EAN8] = &eanGenerator{symbology: symbology.EAN8, barHeight: opts.BarHeight}
	set[symbology.EAN13] = &eanGenerator{symbology: symbology.EAN13, barHeight: opts.BarHeight}
	return set
}

// withQuietZone surrounds img with white margins, measured in pixels.
func withQuietZone(img image.Image, horizontal, vertical int) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx()+2*horizontal, b.Dy()+2*vertical, color.White)
	return imaging.Paste(bg, img, image.Pt(horizontal, vertical))
}

// validImage rejects nil and zero-area images.
func validImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrNoImage
	}
	return nil
}
