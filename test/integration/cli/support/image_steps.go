package support

import (
	"context"
	"fmt"
	"image/color"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/scan"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/testutil"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
	"github.com/cucumber/godog"
)

// renderFixture renders text with the production generators.
func renderFixture(text, symName string) (*render.Image, error) {
	sym, err := symbology.Parse(symName)
	if err != nil {
		return nil, err
	}
	data, err := payload.Encode(text, sym)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(nil, generator.ServerSet(generator.DefaultOptions()), 4).Render(data, sym, symbology.Normal)
}

func (testCtx *TestContext) aBarcodeImageEncoding(symName, filename, text string) error {
	img, err := renderFixture(text, symName)
	if err != nil {
		return fmt.Errorf("failed to render fixture: %w", err)
	}
	return utils.SavePNG(img, testCtx.Path(filename))
}

func (testCtx *TestContext) anImageWithoutBarcode(filename string) error {
	return utils.SavePNG(testutil.CreateTextImage("no barcode here", 240, 80), testCtx.Path(filename))
}

func (testCtx *TestContext) aBlankImage(filename string, w, h int) error {
	return utils.SavePNG(testutil.CreateTestImage(w, h, color.White), testCtx.Path(filename))
}

func (testCtx *TestContext) theImageShouldDecodeTo(filename, expected string) error {
	img, _, err := utils.LoadImage(testCtx.Path(filename))
	if err != nil {
		return err
	}
	res, err := scan.NewScanner(scan.DefaultOptions()).Scan(context.Background(), img)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	if res.Text != expected {
		return fmt.Errorf("%s decodes to %q, want %q", filename, res.Text, expected)
	}
	return nil
}

func (testCtx *TestContext) theImageShouldBeAPNG(filename string) error {
	_, meta, err := utils.LoadImage(testCtx.Path(filename))
	if err != nil {
		return err
	}
	if meta.Format != "png" {
		return fmt.Errorf("%s is %s, want png", filename, meta.Format)
	}
	return nil
}

// RegisterImageSteps registers image fixture and inspection steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a "([^"]*)" barcode image "([^"]*)" encoding "([^"]*)"$`, testCtx.aBarcodeImageEncoding)
	sc.Step(`^an image "([^"]*)" without a barcode$`, testCtx.anImageWithoutBarcode)
	sc.Step(`^a blank image "([^"]*)" of (\d+)x(\d+) pixels$`, testCtx.aBlankImage)
	sc.Step(`^the image "([^"]*)" should decode to "([^"]*)"$`, testCtx.theImageShouldDecodeTo)
	sc.Step(`^the image "([^"]*)" should be a PNG$`, testCtx.theImageShouldBeAPNG)
}
