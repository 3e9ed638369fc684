package batch

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
)

// Config holds all configuration for batch rendering.
type Config struct {
	// Render defaults for entries that do not override them.
	Symbology symbology.Symbology
	ColorMode symbology.ColorMode

	// Output settings
	OutputDir string
	PDFPath   string
	Format    string

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
}

// DefaultConfig returns the batch defaults.
func DefaultConfig() Config {
	return Config{
		Symbology:        symbology.QR,
		ColorMode:        symbology.Normal,
		OutputDir:        "barcodes",
		Format:           "text",
		Workers:          runtime.NumCPU(),
		ContinueOnError:  true,
		IncludePatterns:  DefaultIncludePatterns,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	if !symbology.Lookup(c.Symbology).Selectable() {
		return fmt.Errorf("symbology %s cannot be rendered locally", c.Symbology)
	}
	switch c.Format {
	case "", "text", "json", "csv":
	default:
		return fmt.Errorf("invalid format: %s (must be text, json or csv)", c.Format)
	}
	return nil
}
