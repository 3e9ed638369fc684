package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/MeKo-Tech/barcodegen/internal/library"
	"github.com/MeKo-Tech/barcodegen/internal/scan"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
	"github.com/spf13/cobra"
)

// scanOutput is one decoded (or undecodable) image.
type scanOutput struct {
	File   string       `json:"file"`
	Page   int          `json:"page,omitempty"`
	Result *scan.Result `json:"result,omitempty"`
	Reason string       `json:"reason,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type scanSource struct {
	file  string
	page  int
	image image.Image
	err   error
}

func newScanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan FILE...",
		Short: "Decode barcodes from images or PDF files",
		Long: `Decode one barcode from every image. PDF files are scanned page by
page using the images embedded in them.

With --copy only the decoded text is written to stdout, one line per
barcode, ready to be piped into a clipboard tool.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, args)
		},
	}

	cmd.Flags().Bool("copy", false, "write only the decoded text to stdout")
	cmd.Flags().String("format", "text", "output format (text, json)")
	cmd.Flags().StringSlice("formats", nil, "restrict decoding to these symbologies (e.g. qr,code128)")
	cmd.Flags().Bool("try-harder", true, "enable the exhaustive search")
	return cmd
}

func (a *app) runScan(cmd *cobra.Command, files []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (must be text or json)", format)
	}

	opts := cfg.ToScanOptions()
	if cmd.Flags().Changed("try-harder") {
		opts.TryHarder, _ = cmd.Flags().GetBool("try-harder")
	}
	names, _ := cmd.Flags().GetStringSlice("formats")
	for _, name := range names {
		sym, err := symbology.Parse(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		opts.Formats = append(opts.Formats, sym)
	}
	scanner := scan.NewScanner(opts)

	copyOnly, _ := cmd.Flags().GetBool("copy")
	clip := &scan.WriterClipboard{W: cmd.OutOrStdout()}

	var outputs []scanOutput
	decoded := 0
	for _, src := range loadScanSources(files) {
		out := scanOutput{File: src.file, Page: src.page}
		if src.err != nil {
			out.Reason, out.Error = scan.ReasonInvalidImage, src.err.Error()
			outputs = append(outputs, out)
			continue
		}

		var res scan.Result
		if copyOnly {
			res, err = scan.ScanAndCopy(cmd.Context(), scanner, src.image, clip)
		} else {
			res, err = scanner.Scan(cmd.Context(), src.image)
		}
		if err != nil {
			out.Error = err.Error()
			var scanErr *scan.ScanError
			if errors.As(err, &scanErr) {
				out.Reason = scanErr.Reason
			}
		} else {
			decoded++
			out.Result = &res
		}
		outputs = append(outputs, out)
	}

	if !copyOnly {
		if err := writeScanOutputs(cmd, format, outputs); err != nil {
			return err
		}
	} else {
		for _, out := range outputs {
			if out.Error != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", sourceName(out), out.Error)
			}
		}
	}

	if decoded == 0 {
		return errors.New("no barcode decoded")
	}
	return nil
}

// loadScanSources expands files into the images to scan.
func loadScanSources(files []string) []scanSource {
	var imagePaths []string
	for _, file := range files {
		if !library.IsPDF(file) {
			imagePaths = append(imagePaths, file)
		}
	}
	loaded := make(map[string]utils.BatchImageResult, len(imagePaths))
	for _, r := range utils.BatchLoadImages(imagePaths) {
		loaded[r.Path] = r
	}

	var out []scanSource
	for _, file := range files {
		if library.IsPDF(file) {
			pages, err := library.ExtractImages(file)
			if err != nil {
				out = append(out, scanSource{file: file, err: err})
				continue
			}
			if len(pages) == 0 {
				out = append(out, scanSource{file: file, err: errors.New("no images in PDF")})
			}
			for _, p := range pages {
				out = append(out, scanSource{file: file, page: p.Page, image: p.Image})
			}
			continue
		}
		r := loaded[file]
		out = append(out, scanSource{file: file, image: r.Img, err: r.Err})
	}
	return out
}

func sourceName(out scanOutput) string {
	if out.Page > 0 {
		return fmt.Sprintf("%s:%d", out.File, out.Page)
	}
	return out.File
}

func writeScanOutputs(cmd *cobra.Command, format string, outputs []scanOutput) error {
	w := cmd.OutOrStdout()
	if format == "json" {
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	for _, out := range outputs {
		if out.Result != nil {
			_, _ = fmt.Fprintf(w, "%s: %s %s\n", sourceName(out), out.Result.Symbology, out.Result.Text)
			continue
		}
		reason := out.Reason
		if reason == "" {
			reason = "error"
		}
		_, _ = fmt.Fprintf(w, "%s: [%s] %s\n", sourceName(out), reason, out.Error)
	}
	return nil
}
