package batch

import (
	"strings"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLines(t *testing.T) {
	input := "HELLO\r\n\n# comment\n  \nWORLD 42\n"
	entries, err := parseLines(strings.NewReader(input), "codes.txt", render.Request{Symbology: symbology.Code128})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "HELLO", entries[0].Request.Text)
	assert.Equal(t, 1, entries[0].Line)
	assert.Equal(t, symbology.Code128, entries[0].Request.Symbology)
	assert.Equal(t, "WORLD 42", entries[1].Request.Text)
	assert.Equal(t, 5, entries[1].Line)
	assert.Equal(t, "codes.txt", entries[1].Source)
}

func TestParseCSV(t *testing.T) {
	input := "text,symbology,mode\nHELLO,code128,\n\"a, b\",aztec,inverted\nPLAIN\n"
	entries, err := parseCSV(strings.NewReader(input), "codes.csv", render.Request{Symbology: symbology.QR})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, symbology.Code128, entries[0].Request.Symbology)
	assert.Equal(t, 2, entries[0].Line)
	assert.Equal(t, "a, b", entries[1].Request.Text)
	assert.Equal(t, symbology.Aztec, entries[1].Request.Symbology)
	assert.Equal(t, symbology.Inverted, entries[1].Request.ColorMode)
	assert.Equal(t, symbology.QR, entries[2].Request.Symbology)
}

func TestParseCSV_BadSymbology(t *testing.T) {
	_, err := parseCSV(strings.NewReader("HELLO,maxicode\n"), "codes.csv", render.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codes.csv:1")
}
