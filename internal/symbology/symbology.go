// Package symbology enumerates the barcode standards barcodegen knows about
// and, for each of them, the rule used to turn user text into a payload.
package symbology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotImplemented is returned for symbologies that are reserved but have
// no encoder yet (DataMatrix), and for values outside the enumeration.
var ErrNotImplemented = errors.New("symbology not implemented")

// Symbology represents a barcode standard.
type Symbology int

const (
	Unknown Symbology = iota
	Code128
	QR
	Aztec
	PDF417
	DataMatrix
	EAN8
	EAN13
)

// String returns the canonical lower-case name.
func (s Symbology) String() string {
	switch s {
	case Code128:
		return "code128"
	case QR:
		return "qr"
	case Aztec:
		return "aztec"
	case PDF417:
		return "pdf417"
	case DataMatrix:
		return "datamatrix"
	case EAN8:
		return "ean8"
	case EAN13:
		return "ean13"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbology) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbology) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Parse resolves a symbology from its canonical name or a common alias.
func Parse(name string) (Symbology, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "code128", "code-128", "code_128":
		return Code128, nil
	case "qr", "qrcode", "qr-code", "qr_code":
		return QR, nil
	case "aztec":
		return Aztec, nil
	case "pdf417", "pdf-417", "pdf_417":
		return PDF417, nil
	case "datamatrix", "data-matrix", "data_matrix":
		return DataMatrix, nil
	case "ean8", "ean-8", "ean_8":
		return EAN8, nil
	case "ean13", "ean-13", "ean_13":
		return EAN13, nil
	default:
		return Unknown, fmt.Errorf("unknown symbology %q (available: %s)", name, strings.Join(Names(All()), ", "))
	}
}

// All returns every known symbology in declaration order.
func All() []Symbology {
	return []Symbology{Code128, QR, Aztec, PDF417, DataMatrix, EAN8, EAN13}
}

// Names maps symbologies to their canonical names.
func Names(list []Symbology) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.String()
	}
	return out
}

// ColorMode selects the tonal treatment of a rendered barcode.
type ColorMode int

const (
	Normal ColorMode = iota
	Inverted
)

func (m ColorMode) String() string {
	if m == Inverted {
		return "inverted"
	}
	return "normal"
}

// ParseColorMode accepts "normal"/"light" and "inverted"/"dark".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "light":
		return Normal, nil
	case "inverted", "invert", "dark":
		return Inverted, nil
	default:
		return Normal, fmt.Errorf("invalid color mode %q (must be normal or inverted)", s)
	}
}
