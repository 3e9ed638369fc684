package generator

import (
	"fmt"
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// skip2QRGenerator renders the QR module matrix one pixel per module. The
// bitmap from go-qrcode already carries the 4-module quiet zone.
type skip2QRGenerator struct{}

func (skip2QRGenerator) Generate(payload []byte) (image.Image, error) {
	q, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return bitmapImage(q.Bitmap())
}

func bitmapImage(bitmap [][]bool) (image.Image, error) {
	if len(bitmap) == 0 || len(bitmap[0]) == 0 {
		return nil, ErrNoImage
	}
	img := image.NewGray(image.Rect(0, 0, len(bitmap[0]), len(bitmap)))
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}
	return img, nil
}
