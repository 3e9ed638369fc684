package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/barcodegen/internal/config"
	"github.com/MeKo-Tech/barcodegen/internal/display"
	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/library"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
	"github.com/spf13/cobra"
)

// renderOutput is the json form of a render result.
type renderOutput struct {
	Text       string `json:"text"`
	Symbology  string `json:"symbology"`
	Mode       string `json:"mode"`
	Remote     bool   `json:"remote,omitempty"`
	Path       string `json:"path,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func newRenderCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render TEXT",
		Short: "Render text as a barcode image",
		Long: `Encode TEXT for the selected symbology and render it as a PNG.

The image is written to --output, or saved into the barcode library
directory under a name derived from TEXT. With --display the saved image
is the composed view: the barcode above its caption, or the placeholder
glyph when rendering fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0])
		},
	}

	cmd.Flags().StringP("symbology", "s", "qr", "barcode symbology (code128, qr, aztec, pdf417, ean8, ean13)")
	cmd.Flags().StringP("mode", "m", "normal", "colour mode (normal, inverted)")
	cmd.Flags().Int("scale", render.DefaultScale, "pixels per module")
	cmd.Flags().StringP("output", "o", "", "output PNG file (default: save into the library directory)")
	cmd.Flags().String("library-dir", library.DefaultDir, "library directory for saved images")
	cmd.Flags().Bool("remote", false, "fetch the image from the remote barcode service")
	cmd.Flags().String("base-url", remote.DefaultBaseURL, "remote barcode service endpoint")
	cmd.Flags().Bool("display", false, "save the composed display view instead of the bare barcode")
	cmd.Flags().String("format", "text", "report format (text, json)")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, text string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	sym, mode, err := renderSelection(cmd, cfg)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (must be text or json)", format)
	}

	useRemote, _ := cmd.Flags().GetBool("remote")
	pl, err := newPipeline(cmd, cfg, useRemote)
	if err != nil {
		return err
	}

	res := pl.Process(cmd.Context(), render.Request{Text: text, Symbology: sym, ColorMode: mode, UseRemote: useRemote})
	out := renderOutput{
		Text:       text,
		Symbology:  sym.String(),
		Mode:       mode.String(),
		Remote:     useRemote,
		DurationMs: res.Duration.Milliseconds(),
	}
	if !res.OK() {
		out.ErrorKind = res.Kind()
		out.Error = res.Err.Error()
		slog.Debug("Render failed", "symbology", sym, "kind", out.ErrorKind, "error", res.Err)
	}

	withDisplay, _ := cmd.Flags().GetBool("display")
	var img image.Image
	switch {
	case withDisplay:
		img = display.Compose(res, text)
	case res.OK():
		img = res.Image
	}

	if img != nil {
		if out.Path, err = saveImage(cmd, cfg, img, text); err != nil {
			return err
		}
		out.Width, out.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}

	if err := writeRenderOutput(cmd.OutOrStdout(), format, out); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s: %w", out.ErrorKind, res.Err)
	}
	return nil
}

// newPipeline builds the render pipeline from cfg and the command flags.
// The remote fetcher is only wired when useRemote is set.
func newPipeline(cmd *cobra.Command, cfg *config.Config, useRemote bool) (*render.Pipeline, error) {
	registry, err := cfg.ToRegistry()
	if err != nil {
		return nil, err
	}
	opts := cfg.ToGeneratorOptions()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	scale := cfg.Render.Scale
	if cmd.Flags().Changed("scale") {
		scale, _ = cmd.Flags().GetInt("scale")
	}
	if scale < 1 {
		return nil, fmt.Errorf("invalid scale: %d", scale)
	}

	var fetcher remote.ImageFetcher
	if useRemote {
		f, err := newFetcher(cmd, cfg)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}
	return render.NewPipeline(payload.NewEncoder(registry), render.NewRenderer(registry, generator.LocalSet(opts), scale), fetcher), nil
}

func newFetcher(cmd *cobra.Command, cfg *config.Config) (*remote.Fetcher, error) {
	rc := cfg.ToRemoteConfig()
	if cmd.Flags().Changed("base-url") {
		rc.BaseURL, _ = cmd.Flags().GetString("base-url")
	}
	return remote.NewFetcher(rc, remote.NewClient(rc.Timeout))
}

// saveImage writes img to --output, or into the library under name.
func saveImage(cmd *cobra.Command, cfg *config.Config, img image.Image, name string) (string, error) {
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := utils.SavePNG(img, output); err != nil {
			return "", err
		}
		return output, nil
	}
	return libraryStore(cmd, cfg).Save(img, name)
}

func libraryStore(cmd *cobra.Command, cfg *config.Config) *library.Store {
	dir := cfg.Library.Dir
	if cmd.Flags().Changed("library-dir") {
		dir, _ = cmd.Flags().GetString("library-dir")
	}
	return library.NewStore(dir)
}

func writeRenderOutput(w io.Writer, format string, out renderOutput) error {
	if format == "json" {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if out.Error != "" {
		_, _ = fmt.Fprintf(w, "FAIL %s [%s]: %s\n", out.Symbology, out.ErrorKind, out.Error)
	}
	if out.Path != "" {
		_, _ = fmt.Fprintf(w, "Saved %s (%dx%d, %s, %s)\n", out.Path, out.Width, out.Height, out.Symbology, out.Mode)
	}
	return nil
}
