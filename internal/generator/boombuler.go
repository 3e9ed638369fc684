package generator

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/aztec"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
)

const (
	// Quiet zones in modules.
	linearQuietZone = 10
	qrQuietZone     = 4
	pdf417QuietZone = 2

	aztecECCPercent = 23
	aztecAutoLayers = 0
)

type code128Generator struct {
	barHeight int
}

func (g *code128Generator) Generate(payload []byte) (image.Image, error) {
	bc, err := code128.Encode(string(payload))
	if err != nil {
		return nil, fmt.Errorf("code128: %w", err)
	}
	return linear(bc, g.barHeight)
}

type eanGenerator struct {
	symbology symbology.Symbology
	barHeight int
}

func (g *eanGenerator) Generate(payload []byte) (image.Image, error) {
	bc, err := ean.Encode(string(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.symbology, err)
	}
	return linear(bc, g.barHeight)
}

type boombulerQRGenerator struct{}

func (boombulerQRGenerator) Generate(payload []byte) (image.Image, error) {
	bc, err := qr.Encode(string(payload), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	if err := validImage(bc); err != nil {
		return nil, err
	}
	return withQuietZone(bc, qrQuietZone, qrQuietZone), nil
}

type aztecGenerator struct{}

func (aztecGenerator) Generate(payload []byte) (image.Image, error) {
	bc, err := aztec.Encode(payload, aztecECCPercent, aztecAutoLayers)
	if err != nil {
		return nil, fmt.Errorf("aztec: %w", err)
	}
	if err := validImage(bc); err != nil {
		return nil, err
	}
	return bc, nil
}

type pdf417Generator struct {
	securityLevel byte
}

func (g *pdf417Generator) Generate(payload []byte) (image.Image, error) {
	bc, err := pdf417.Encode(string(payload), g.securityLevel)
	if err != nil {
		return nil, fmt.Errorf("pdf417: %w", err)
	}
	if err := validImage(bc); err != nil {
		return nil, err
	}
	return withQuietZone(bc, pdf417QuietZone, pdf417QuietZone), nil
}

// linear gives a one pixel tall 1D symbol its bar height and quiet zone.
func linear(bc barcode.Barcode, barHeight int) (image.Image, error) {
	if err := validImage(bc); err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(bc, bc.Bounds().Dx(), barHeight)
	if err != nil {
		return nil, fmt.Errorf("bar height: %w", err)
	}
	return withQuietZone(scaled, linearQuietZone, 0), nil
}
