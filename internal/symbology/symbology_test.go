package symbology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Symbology
	}{
		{"code128", Code128},
		{"Code-128", Code128},
		{"QRCODE", QR},
		{"aztec", Aztec},
		{" pdf417 ", PDF417},
		{"data-matrix", DataMatrix},
		{"ean-8", EAN8},
		{"ean13", EAN13},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("maxicode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code128")
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range All() {
		got, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "unknown", Symbology(42).String())
}

func TestLookupIsTotal(t *testing.T) {
	for _, s := range All() {
		rule := Lookup(s)
		assert.Equal(t, s, rule.Symbology)
		assert.NotEmpty(t, rule.Label)
	}

	rule := Lookup(Symbology(99))
	assert.False(t, rule.Implemented)
	assert.Equal(t, Unknown, rule.Symbology)
}

func TestDataMatrixIsReserved(t *testing.T) {
	rule := Lookup(DataMatrix)
	assert.False(t, rule.Implemented)
	assert.False(t, rule.Selectable())
	assert.Equal(t, 1556, rule.MaxBytes)
}

func TestSelectableHidesReservedAndRemoteOnly(t *testing.T) {
	var names []string
	for _, r := range NewRegistry().Selectable() {
		names = append(names, r.Symbology.String())
	}
	assert.Equal(t, []string{"code128", "qr", "aztec", "pdf417"}, names)
}

func TestRemoteTags(t *testing.T) {
	tags := NewRegistry().RemoteTags()
	assert.Equal(t, map[string]Symbology{"ean8": EAN8, "ean13": EAN13}, tags)
}

func TestWithCharsetReturnsCopy(t *testing.T) {
	base := NewRegistry()
	alnum := base.WithCharset(Code128, Alphanumeric).WithCapacity(Code128, 10)

	assert.Equal(t, PrintableASCII, base.Rule(Code128).Charset)
	assert.Equal(t, 80, base.Rule(Code128).MaxBytes)
	assert.Equal(t, Alphanumeric, alnum.Rule(Code128).Charset)
	assert.Equal(t, 10, alnum.Rule(Code128).MaxBytes)

	// Unknown symbologies are ignored.
	same := base.WithCharset(Unknown, Digits)
	assert.False(t, same.Rule(Unknown).Implemented)
}

func TestCharsetAllows(t *testing.T) {
	tests := []struct {
		name    string
		charset Charset
		ok      []rune
		rejects []rune
	}{
		{"printable ascii", PrintableASCII, []rune{' ', 'a', '~', '0'}, []rune{'\n', 0x7F, 'é', '€'}},
		{"alphanumeric", Alphanumeric, []rune{'a', 'Z', '5'}, []rune{' ', '-', 'é'}},
		{"ascii", ASCII, []rune{0, '\n', 0x7F}, []rune{0x80, 'é'}},
		{"latin1", Latin1, []rune{'a', 'é', 0xFF}, []rune{0x100, '€'}},
		{"digits", Digits, []rune{'0', '9'}, []rune{'a', ' '}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range tt.ok {
				assert.True(t, tt.charset.Allows(r), "expected %q to be allowed", r)
			}
			for _, r := range tt.rejects {
				assert.False(t, tt.charset.Allows(r), "expected %q to be rejected", r)
			}
		})
	}
}

func TestParseCharset(t *testing.T) {
	c, err := ParseCharset("Latin1")
	require.NoError(t, err)
	assert.Equal(t, Latin1, c)

	_, err = ParseCharset("utf-16")
	assert.Error(t, err)
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("dark")
	require.NoError(t, err)
	assert.Equal(t, Inverted, m)

	m, err = ParseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, Normal, m)

	_, err = ParseColorMode("sepia")
	assert.Error(t, err)
}

func TestPDF417Capacity(t *testing.T) {
	assert.Equal(t, 896, PDF417Capacity(0))
	assert.Equal(t, 890, PDF417Capacity(DefaultPDF417SecurityLevel))
	assert.Equal(t, 386, PDF417Capacity(8))
	assert.Zero(t, PDF417Capacity(-1))
	assert.Zero(t, PDF417Capacity(9))
	assert.Equal(t, PDF417Capacity(DefaultPDF417SecurityLevel), Lookup(PDF417).MaxBytes)
}
