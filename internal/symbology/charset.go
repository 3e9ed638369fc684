package symbology

import (
	"fmt"
	"strings"
)

// Charset names the set of characters a symbology accepts from user input.
type Charset string

const (
	// PrintableASCII accepts 0x20 through 0x7E.
	PrintableASCII Charset = "printable-ascii"
	// Alphanumeric accepts [A-Za-z0-9].
	Alphanumeric Charset = "alphanumeric"
	// ASCII accepts 0x00 through 0x7F.
	ASCII Charset = "ascii"
	// Latin1 accepts ISO-8859-1; payload bytes are transcoded, not UTF-8.
	Latin1 Charset = "latin1"
	// Digits accepts 0-9.
	Digits Charset = "digits"
)

// Charsets lists every supported policy.
func Charsets() []Charset {
	return []Charset{PrintableASCII, Alphanumeric, ASCII, Latin1, Digits}
}

// ParseCharset resolves a charset policy by name.
func ParseCharset(name string) (Charset, error) {
	c := Charset(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Charsets() {
		if c == known {
			return c, nil
		}
	}
	names := make([]string, 0, len(Charsets()))
	for _, known := range Charsets() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("unknown charset %q (must be one of: %s)", name, strings.Join(names, ", "))
}

// Allows reports whether r is part of the charset.
func (c Charset) Allows(r rune) bool {
	switch c {
	case PrintableASCII:
		return r >= 0x20 && r <= 0x7E
	case Alphanumeric:
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	case ASCII:
		return r >= 0 && r <= 0x7F
	case Latin1:
		return r >= 0 && r <= 0xFF
	case Digits:
		return r >= '0' && r <= '9'
	default:
		return false
	}
}
