// Package scan decodes barcodes from still images and hands the decoded text
// to a clipboard sink.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Scan failure reasons.
const (
	ReasonInvalidImage = "invalid_image"
	ReasonNotFound     = "not_found"
	ReasonCancelled    = "cancelled"
)

// ScanError reports why no barcode was decoded.
type ScanError struct {
	Reason string
	Err    error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return "scan failed: " + e.Reason
	}
	return fmt.Sprintf("scan failed (%s): %v", e.Reason, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Point is a key point of the decoded symbol in image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is a decoded barcode.
type Result struct {
	Symbology symbology.Symbology `json:"symbology"`
	Format    string              `json:"format"`
	Text      string              `json:"text"`
	Points    []Point             `json:"points,omitempty"`
}

// Options controls decoding.
type Options struct {
	// Formats restricts the symbologies tried. Empty means all.
	Formats []symbology.Symbology
	// TryHarder enables the slower exhaustive search.
	TryHarder bool
	// MinSide upscales small inputs so their shorter side reaches it.
	MinSide int
	// Margin adds a white quiet zone around the input, in pixels.
	Margin int
}

// DefaultOptions returns the scanner defaults.
func DefaultOptions() Options {
	return Options{TryHarder: true, MinSide: 120, Margin: 16}
}

// gozxing readers keep per-decode state, so each Scan builds its own.
type formatReader struct {
	symbology symbology.Symbology
	newReader func() gozxing.Reader
}

// Scanner decodes barcodes with gozxing. It is safe for concurrent use.
// PDF417 has no gozxing reader and is never decoded.
type Scanner struct {
	opts    Options
	readers []formatReader
}

// NewScanner builds a scanner for opts.Formats.
func NewScanner(opts Options) *Scanner {
	all := []formatReader{
		{symbology.QR, func() gozxing.Reader { return qrcode.NewQRCodeReader() }},
		{symbology.Aztec, func() gozxing.Reader { return aztec.NewAztecReader() }},
		{symbology.DataMatrix, func() gozxing.Reader { return datamatrix.NewDataMatrixReader() }},
		{symbology.EAN13, func() gozxing.Reader { return oned.NewEAN13Reader() }},
		{symbology.EAN8, func() gozxing.Reader { return oned.NewEAN8Reader() }},
		{symbology.Code128, func() gozxing.Reader { return oned.NewCode128Reader() }},
	}
	if len(opts.Formats) == 0 {
		return &Scanner{opts: opts, readers: all}
	}
	wanted := make(map[symbology.Symbology]bool, len(opts.Formats))
	for _, f := range opts.Formats {
		wanted[f] = true
	}
	var readers []formatReader
	for _, r := range all {
		if wanted[r.symbology] {
			readers = append(readers, r)
		}
	}
	return &Scanner{opts: opts, readers: readers}
}

// Formats returns the symbologies this scanner tries, in order.
func (s *Scanner) Formats() []symbology.Symbology {
	out := make([]symbology.Symbology, 0, len(s.readers))
	for _, r := range s.readers {
		out = append(out, r.symbology)
	}
	return out
}

// Scan returns the first barcode any reader decodes from img.
func (s *Scanner) Scan(ctx context.Context, img image.Image) (Result, error) {
	if err := utils.ValidateImageConstraints(img, utils.DefaultImageConstraints()); err != nil {
		return Result{}, &ScanError{Reason: ReasonInvalidImage, Err: err}
	}

	prepared := utils.AddMargin(utils.EnsureMinSide(img, s.opts.MinSide), s.opts.Margin, color.White)
	bitmap, err := gozxing.NewBinaryBitmapFromImage(prepared)
	if err != nil {
		return Result{}, &ScanError{Reason: ReasonInvalidImage, Err: err}
	}

	hints := map[gozxing.DecodeHintType]interface{}{}
	if s.opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	var errs []error
	for _, r := range s.readers {
		if err := ctx.Err(); err != nil {
			return Result{}, &ScanError{Reason: ReasonCancelled, Err: err}
		}
		res, err := r.newReader().Decode(bitmap, hints)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.symbology, err))
			continue
		}

		out := Result{
			Symbology: r.symbology,
			Format:    res.GetBarcodeFormat().String(),
			Text:      res.GetText(),
		}
		for _, p := range res.GetResultPoints() {
			out.Points = append(out.Points, Point{X: p.GetX(), Y: p.GetY()})
		}
		slog.Debug("barcode decoded", "symbology", r.symbology.String(), "length", len(out.Text))
		return out, nil
	}
	return Result{}, &ScanError{Reason: ReasonNotFound, Err: errors.Join(errs...)}
}
