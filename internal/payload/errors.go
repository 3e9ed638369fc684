package payload

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
)

// ErrEmptyInput is returned for empty text. Callers treat it as "nothing to
// render", not as a user mistake.
var ErrEmptyInput = errors.New("empty input")

// UnsupportedCharacterError reports the first rune outside the symbology's
// charset.
type UnsupportedCharacterError struct {
	Symbology symbology.Symbology
	Charset   symbology.Charset
	Position  int // rune index, 0-based
	Char      rune
}

func (e *UnsupportedCharacterError) Error() string {
	return fmt.Sprintf("unsupported character %q (U+%04X) at position %d for %s (charset %s)",
		e.Char, e.Char, e.Position, e.Symbology, e.Charset)
}

// PayloadTooLargeError reports a payload above the symbology's capacity.
type PayloadTooLargeError struct {
	Symbology symbology.Symbology
	Size      int
	Limit     int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds %s capacity of %d bytes", e.Size, e.Symbology, e.Limit)
}

// InvalidLengthError reports a payload whose length is not one of the
// lengths the symbology accepts.
type InvalidLengthError struct {
	Symbology symbology.Symbology
	Length    int
	Allowed   []int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("%s requires one of %v digits, got %d", e.Symbology, e.Allowed, e.Length)
}
