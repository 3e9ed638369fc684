// Package payload validates user text against a symbology's rule and turns it
// into the byte sequence handed to that symbology's generator.
package payload

import (
	"fmt"
	"slices"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"golang.org/x/text/encoding/charmap"
)

// Encoder encodes text using the rules of a symbology registry.
// An Encoder is safe for concurrent use.
type Encoder struct {
	registry *symbology.Registry
}

// NewEncoder returns an encoder bound to registry. A nil registry selects the
// default rules.
func NewEncoder(registry *symbology.Registry) *Encoder {
	if registry == nil {
		registry = symbology.NewRegistry()
	}
	return &Encoder{registry: registry}
}

var defaultEncoder = NewEncoder(nil)

// Encode encodes text for s using the default rules.
func Encode(text string, s symbology.Symbology) ([]byte, error) {
	return defaultEncoder.Encode(text, s)
}

// Registry returns the registry the encoder validates against.
func (e *Encoder) Registry() *symbology.Registry {
	return e.registry
}

// Encode validates text and returns the payload bytes for s.
//
// Checks run in a fixed order: empty input, implementation status, charset,
// length, capacity. Characters are never dropped or rewritten; the only
// transformation is the Latin-1 transcoding when that charset is selected.
func (e *Encoder) Encode(text string, s symbology.Symbology) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	rule := e.registry.Rule(s)
	if !rule.Implemented {
		return nil, fmt.Errorf("%s: %w", s, symbology.ErrNotImplemented)
	}

	count := 0
	for _, r := range text {
		if !rule.Charset.Allows(r) {
			return nil, &UnsupportedCharacterError{
				Symbology: s,
				Charset:   rule.Charset,
				Position:  count,
				Char:      r,
			}
		}
		count++
	}

	if len(rule.Lengths) > 0 && !slices.Contains(rule.Lengths, count) {
		return nil, &InvalidLengthError{Symbology: s, Length: count, Allowed: rule.Lengths}
	}

	data, err := transcode(text, rule.Charset)
	if err != nil {
		return nil, err
	}

	if rule.MaxBytes > 0 && len(data) > rule.MaxBytes {
		return nil, &PayloadTooLargeError{Symbology: s, Size: len(data), Limit: rule.MaxBytes}
	}
	return data, nil
}

func transcode(text string, c symbology.Charset) ([]byte, error) {
	if c != symbology.Latin1 {
		// Every other charset is a subset of ASCII, where UTF-8 is the identity.
		return []byte(text), nil
	}
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("latin1 transcoding: %w", err)
	}
	return out, nil
}
