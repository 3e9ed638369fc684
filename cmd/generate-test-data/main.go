package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/testutil"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
)

// Sample is one barcode fixture.
type Sample struct {
	Name      string              `json:"name"`
	Symbology symbology.Symbology `json:"symbology,omitempty"`
	Text      string              `json:"text"`
	File      string              `json:"file"`
	Width     int                 `json:"width,omitempty"`
	Height    int                 `json:"height,omitempty"`
	Decodable bool                `json:"decodable"`
}

var defaultSamples = []Sample{
	{Name: "code128_hello", Symbology: symbology.Code128, Text: "HELLO-128", Decodable: true},
	{Name: "code128_digits", Symbology: symbology.Code128, Text: "0123456789", Decodable: true},
	{Name: "qr_url", Symbology: symbology.QR, Text: "https://example.com/barcodegen", Decodable: true},
	{Name: "qr_latin1", Symbology: symbology.QR, Text: "Grüße aus Köln", Decodable: true},
	{Name: "aztec_text", Symbology: symbology.Aztec, Text: "Aztec sample 42", Decodable: true},
	{Name: "pdf417_text", Symbology: symbology.PDF417, Text: "PDF417 sample payload"},
	{Name: "ean13_product", Symbology: symbology.EAN13, Text: "4006381333931", Decodable: true},
	{Name: "ean8_product", Symbology: symbology.EAN8, Text: "96385074", Decodable: true},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		generateImages   = flag.Bool("images", true, "Generate barcode images")
		generateFixtures = flag.Bool("fixtures", true, "Generate the fixture manifest")
		scale            = flag.Int("scale", 4, "Pixels per module")
		verbose          = flag.Bool("v", false, "Verbose output")
		help             = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate barcode fixtures for barcodegen testing.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                 # Generate all test data\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -fixtures=false # Generate only images\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	if *verbose {
		slog.Info("Options", "images", *generateImages, "fixtures", *generateFixtures, "scale", *scale, "root", root)
	}

	dir := filepath.Join(root, "testdata", "barcodes")
	samples := defaultSamples

	if *generateImages {
		slog.Info("Generating barcode images...")
		samples, err = writeImages(dir, samples, *scale)
		if err != nil {
			slog.Error("Failed to generate barcode images", "error", err)
			os.Exit(1)
		}
		slog.Info("✓ Generated barcode images", "count", len(samples))
	}

	if *generateFixtures {
		slog.Info("Generating fixture manifest...")
		if err := writeManifest(dir, samples); err != nil {
			slog.Error("Failed to generate fixture manifest", "error", err)
			os.Exit(1)
		}
		slog.Info("✓ Generated fixture manifest")
	}

	slog.Info("Test data generation completed successfully!")
}

// writeImages renders every sample into dir plus one negative sample without
// a barcode. The returned samples carry file names and pixel sizes.
func writeImages(dir string, samples []Sample, scale int) ([]Sample, error) {
	renderer := render.NewRenderer(nil, generator.ServerSet(generator.DefaultOptions()), scale)

	out := make([]Sample, 0, len(samples)+1)
	for _, s := range samples {
		data, err := payload.Encode(s.Text, s.Symbology)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sample '%s': %w", s.Name, err)
		}
		img, err := renderer.Render(data, s.Symbology, symbology.Normal)
		if err != nil {
			return nil, fmt.Errorf("failed to render sample '%s': %w", s.Name, err)
		}

		s.File = s.Name + ".png"
		s.Width, s.Height = img.Width, img.Height
		if err := utils.SavePNG(img.NRGBA, filepath.Join(dir, s.File)); err != nil {
			return nil, fmt.Errorf("failed to save sample '%s': %w", s.Name, err)
		}
		out = append(out, s)
	}

	negative := testutil.CreateTextImage("no barcode here", 320, 120)
	if err := utils.SavePNG(negative, filepath.Join(dir, "negative_text.png")); err != nil {
		return nil, fmt.Errorf("failed to save negative sample: %w", err)
	}
	out = append(out, Sample{Name: "negative_text", File: "negative_text.png", Width: 320, Height: 120})

	return out, nil
}

func writeManifest(dir string, samples []Sample) error {
	if err := testutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create fixtures directory: %w", err)
	}
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o600)
}
