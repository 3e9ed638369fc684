package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/MeKo-Tech/barcodegen/internal/batch"
	"github.com/MeKo-Tech/barcodegen/internal/config"
	"github.com/spf13/cobra"
)

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch INPUT...",
		Short: "Render a barcode for every line of the input files",
		Long: `Render a barcode for every line of one or more text or CSV files.

Each line holds the text to encode, optionally followed by a comma and a
symbology name overriding --symbology. Blank lines and lines starting with
# are skipped. Directories are scanned for files matching --include.

Examples:
  barcodegen batch codes.txt
  barcodegen batch labels/ --recursive --pdf sheet.pdf
  barcodegen batch codes.csv --format json --output results.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args)
		},
	}

	// Render flags
	cmd.Flags().StringP("symbology", "s", "qr", "default symbology for lines without one")
	cmd.Flags().StringP("mode", "m", "normal", "colour mode (normal, inverted)")
	cmd.Flags().Int("scale", 0, "pixels per module (default: render.scale from config)")

	// Output flags
	cmd.Flags().String("output-dir", "", "directory for rendered images (default: library directory)")
	cmd.Flags().String("pdf", "", "also export every rendered image as one PDF sheet")
	cmd.Flags().StringP("format", "f", "text", "output format: text, json, csv")
	cmd.Flags().StringP("output", "o", "", "results file (default: stdout)")

	// Parallel processing flags
	cmd.Flags().IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))
	cmd.Flags().Bool("continue-on-error", true, "keep going when an entry fails")

	// File discovery flags
	cmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	cmd.Flags().StringSlice("include", batch.DefaultIncludePatterns, "file patterns to include")
	cmd.Flags().StringSlice("exclude", []string{}, "file patterns to exclude")

	// Progress and monitoring flags
	cmd.Flags().Bool("progress", false, "show progress bar")
	cmd.Flags().Bool("quiet", false, "suppress progress output")
	cmd.Flags().Bool("stats", false, "print batch statistics")
	return cmd
}

// configToBatchConfig maps configuration and flags onto batch.Config.
func configToBatchConfig(cmd *cobra.Command, cfg *config.Config) (batch.Config, error) {
	bc := batch.DefaultConfig()

	sym, mode, err := renderSelection(cmd, cfg)
	if err != nil {
		return bc, err
	}
	bc.Symbology, bc.ColorMode = sym, mode

	bc.OutputDir = cfg.Library.Dir
	if cmd.Flags().Changed("output-dir") {
		bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	bc.PDFPath, _ = cmd.Flags().GetString("pdf")

	bc.Format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		bc.Format, _ = cmd.Flags().GetString("format")
	}

	if cfg.Batch.Workers > 0 {
		bc.Workers = cfg.Batch.Workers
	}
	if cmd.Flags().Changed("workers") {
		bc.Workers, _ = cmd.Flags().GetInt("workers")
	}
	bc.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		bc.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	bc.ShowProgress, _ = cmd.Flags().GetBool("progress")
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")

	return bc, bc.Validate()
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	bc, err := configToBatchConfig(cmd, cfg)
	if err != nil {
		return err
	}
	pl, err := newPipeline(cmd, cfg, false)
	if err != nil {
		return err
	}

	if !bc.Quiet {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Processing %d inputs...\n", len(args))
	}

	result, runErr := batch.Run(cmd.Context(), pl, args, bc)
	if result == nil {
		return fmt.Errorf("batch rendering failed: %w", runErr)
	}

	formatted, err := result.FormatResults(bc.Format)
	if err != nil {
		return err
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := os.WriteFile(output, []byte(formatted), 0o600); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	} else {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatted)
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats && !bc.Quiet {
		result.PrintStats(cmd.ErrOrStderr())
	}
	if runErr != nil {
		return fmt.Errorf("batch rendering failed: %w", runErr)
	}
	return nil
}
