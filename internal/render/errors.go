package render

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
)

var (
	// ErrGenerationFailed matches every *GenerationError.
	ErrGenerationFailed = errors.New("barcode generation failed")
	// ErrRasterizationFailed matches every *RasterizationError.
	ErrRasterizationFailed = errors.New("barcode rasterization failed")
	// ErrNoGenerator is wrapped when a symbology has no generator bound.
	ErrNoGenerator = errors.New("no generator for symbology")
)

// GenerationError reports that the symbology generator produced no image.
type GenerationError struct {
	Symbology symbology.Symbology
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Symbology, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// RasterizationError reports that an image could not be turned into pixels.
type RasterizationError struct {
	Operation string
	Err       error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterize (%s): %v", e.Operation, e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

func (e *RasterizationError) Is(target error) bool { return target == ErrRasterizationFailed }

// Stable error identifiers shared by the CLI, HTTP and websocket outputs.
const (
	KindNone                 = ""
	KindEmptyInput           = "empty_input"
	KindUnsupportedCharacter = "unsupported_character"
	KindPayloadTooLarge      = "payload_too_large"
	KindInvalidLength        = "invalid_length"
	KindGenerationFailed     = "generation_failed"
	KindRasterizationFailed  = "rasterization_failed"
	KindNotImplemented       = "not_implemented"
	KindNetwork              = "network_or_decode_failure"
	KindInternal             = "internal"
)

// Kind classifies err.
func Kind(err error) string {
	var (
		charErr *payload.UnsupportedCharacterError
		sizeErr *payload.PayloadTooLargeError
		lenErr  *payload.InvalidLengthError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, payload.ErrEmptyInput):
		return KindEmptyInput
	case errors.As(err, &charErr):
		return KindUnsupportedCharacter
	case errors.As(err, &sizeErr):
		return KindPayloadTooLarge
	case errors.As(err, &lenErr):
		return KindInvalidLength
	case errors.Is(err, symbology.ErrNotImplemented):
		return KindNotImplemented
	case errors.Is(err, ErrGenerationFailed):
		return KindGenerationFailed
	case errors.Is(err, ErrRasterizationFailed):
		return KindRasterizationFailed
	case errors.Is(err, remote.ErrNoImage):
		return KindNetwork
	default:
		return KindInternal
	}
}
