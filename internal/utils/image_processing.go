package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints bounds the images accepted for decoding.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the constraints used for scanning.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  8192,
		MaxHeight: 8192,
		MinWidth:  8,
		MinHeight: 1,
	}
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too small: %dx%d < %dx%d", w, h, constraints.MinWidth, constraints.MinHeight),
		}
	}
	if (constraints.MaxWidth > 0 && w > constraints.MaxWidth) || (constraints.MaxHeight > 0 && h > constraints.MaxHeight) {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too large: %dx%d > %dx%d", w, h, constraints.MaxWidth, constraints.MaxHeight),
		}
	}
	return nil
}

// EnsureMinSide upscales img with nearest-neighbour sampling by the smallest
// integer factor that makes its shorter side at least minSide pixels.
func EnsureMinSide(img image.Image, minSide int) image.Image {
	b := img.Bounds()
	short := min(b.Dx(), b.Dy())
	if short <= 0 || short >= minSide {
		return img
	}
	factor := (minSide + short - 1) / short
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// AddMargin surrounds img with a uniform border of width px.
func AddMargin(img image.Image, px int, bg color.Color) image.Image {
	if px <= 0 {
		return img
	}
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*px, b.Dy()+2*px, bg)
	return imaging.Paste(canvas, img, image.Pt(px, px))
}
