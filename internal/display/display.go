// Package display composes what a user sees for a render outcome: the
// barcode with its caption, or a placeholder glyph with an explanatory line.
package display

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	// EmptyInputText replaces the caption when there is no input.
	EmptyInputText = "EMPTY INPUT"
	// RemoteErrorText is the caption of a failed remote fetch.
	RemoteErrorText = "Error fetching barcode"

	padding     = 12
	captionGap  = 8
	glyphRadius = 28
	lineHeight  = 13
)

// Palette holds the colours of one colour mode.
type Palette struct {
	Background color.Color
	Foreground color.Color
	Glyph      color.Color
}

// PaletteFor returns the palette matching mode.
func PaletteFor(mode symbology.ColorMode) Palette {
	if mode == symbology.Inverted {
		return Palette{Background: color.Black, Foreground: color.White, Glyph: color.RGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF}}
	}
	return Palette{Background: color.White, Foreground: color.Black, Glyph: color.RGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}}
}

// PlaceholderText is the line shown under the placeholder glyph.
func PlaceholderText(text string) string {
	if text == "" {
		return EmptyInputText
	}
	return text
}

// Compose renders res for display. Success shows the barcode above label;
// failure shows the placeholder glyph above the literal input text, or
// EmptyInputText when the input was empty. Failed remote requests get the
// same view as ComposeRemote.
func Compose(res render.Result, label string) image.Image {
	pal := PaletteFor(res.Request.ColorMode)
	if res.OK() {
		return withCaption(res.Image, label, pal)
	}
	text := res.Request.Text
	if res.Err != nil && res.Kind() == render.KindEmptyInput {
		return placeholder(pal, EmptyInputText)
	}
	if res.Request.UseRemote {
		return placeholder(pal, PlaceholderText(text), RemoteErrorText)
	}
	return placeholder(pal, PlaceholderText(text))
}

// ComposeRemote renders the outcome of a remote fetch. Failures show the
// value with RemoteErrorText below it.
func ComposeRemote(img image.Image, err error, value string, mode symbology.ColorMode) image.Image {
	pal := PaletteFor(mode)
	if err != nil || img == nil || img.Bounds().Empty() {
		return placeholder(pal, PlaceholderText(value), RemoteErrorText)
	}
	return withCaption(img, value, pal)
}

func withCaption(img image.Image, caption string, pal Palette) image.Image {
	b := img.Bounds()
	textW := measure(caption)

	width := max(b.Dx(), int(math.Ceil(textW))) + 2*padding
	height := b.Dy() + 2*padding
	if caption != "" {
		height += captionGap + lineHeight
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(pal.Background)
	dc.Clear()
	dc.DrawImage(img, (width-b.Dx())/2, padding)

	if caption != "" {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(pal.Foreground)
		dc.DrawStringAnchored(caption, float64(width)/2, float64(padding+b.Dy()+captionGap), 0.5, 1)
	}
	return dc.Image()
}

func placeholder(pal Palette, lines ...string) image.Image {
	textW := 0.0
	for _, line := range lines {
		textW = max(textW, measure(line))
	}
	size := 2 * glyphRadius
	width := max(size, int(math.Ceil(textW))) + 2*padding
	height := size + captionGap + len(lines)*lineHeight + 2*padding

	dc := gg.NewContext(width, height)
	dc.SetColor(pal.Background)
	dc.Clear()

	cx, cy := float64(width)/2, float64(padding+glyphRadius)
	r := float64(glyphRadius) - 2
	dc.SetColor(pal.Glyph)
	dc.DrawCircle(cx, cy, r)
	dc.Fill()

	// The cross is cut out of the disc in the background colour.
	arm := r * 0.45
	dc.SetColor(pal.Background)
	dc.SetLineWidth(4)
	dc.SetLineCapRound()
	dc.DrawLine(cx-arm, cy-arm, cx+arm, cy+arm)
	dc.DrawLine(cx-arm, cy+arm, cx+arm, cy-arm)
	dc.Stroke()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(pal.Foreground)
	for i, line := range lines {
		dc.DrawStringAnchored(line, cx, float64(padding+size+captionGap+i*lineHeight), 0.5, 1)
	}
	return dc.Image()
}

func measure(s string) float64 {
	if s == "" {
		return 0
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(basicfont.Face7x13)
	w, _ := dc.MeasureString(s)
	return w
}
