package cmd

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/barcodegen/internal/display"
	"github.com/MeKo-Tech/barcodegen/internal/library"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/spf13/cobra"
)

func newFetchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch VALUE...",
		Short: "Fetch barcode images from the remote barcode service",
		Long: `Fetch one image per VALUE from the remote barcode service.

Each VALUE is treated as one edit of the input field: a fetch is fired for
every value as it arrives and completions are applied in the order they
come back. With --drop-stale, completions of superseded values are
discarded so only the newest value is saved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, args)
		},
	}

	cmd.Flags().StringP("type", "t", "ean13", "remote barcode type (ean8, ean13)")
	cmd.Flags().String("base-url", remote.DefaultBaseURL, "remote barcode service endpoint")
	cmd.Flags().Bool("drop-stale", false, "discard completions of superseded values")
	cmd.Flags().Bool("display", false, "save the composed display view, including failures")
	cmd.Flags().StringP("mode", "m", "normal", "colour mode of the display view (normal, inverted)")
	cmd.Flags().String("library-dir", library.DefaultDir, "library directory for saved images")
	return cmd
}

func (a *app) runFetch(cmd *cobra.Command, values []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	typeName, _ := cmd.Flags().GetString("type")
	sym, err := symbology.Parse(typeName)
	if err != nil {
		return err
	}
	tag := symbology.Lookup(sym).RemoteTag
	if tag == "" {
		return fmt.Errorf("symbology %s is not served remotely", sym)
	}

	mode, err := symbology.ParseColorMode(cfg.Render.Mode)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mode") {
		name, _ := cmd.Flags().GetString("mode")
		if mode, err = symbology.ParseColorMode(name); err != nil {
			return err
		}
	}

	dropStale := cfg.Remote.DropStale
	if cmd.Flags().Changed("drop-stale") {
		dropStale, _ = cmd.Flags().GetBool("drop-stale")
	}
	withDisplay, _ := cmd.Flags().GetBool("display")

	fetcher, err := newFetcher(cmd, cfg)
	if err != nil {
		return err
	}
	store := libraryStore(cmd, cfg)

	// Completions are applied on this goroutine, in arrival order.
	completions := make(chan func(), len(values))
	session := remote.NewSession(fetcher, func(f func()) { completions <- f }, dropStale)

	var (
		mu       sync.Mutex
		saved    int
		failed   int
		saveErrs []error
	)
	out := cmd.OutOrStdout()
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(out, format, args...)
	}

	apply := func(c remote.Completion) {
		if c.Err != nil {
			failed++
			slog.Warn("Fetch failed", "value", c.Value, "tag", c.Tag, "error", c.Err)
			report("FAIL %s: %s\n", c.Value, display.RemoteErrorText)
		}
		var img image.Image
		switch {
		case withDisplay:
			img = display.ComposeRemote(c.Image, c.Err, c.Value, mode)
		case c.Err == nil:
			img = c.Image
		}
		if img == nil {
			return
		}
		store.SaveAsync(img, c.Value+"-"+c.Tag, func(path string, err error) {
			mu.Lock()
			if err != nil {
				saveErrs = append(saveErrs, err)
				mu.Unlock()
				return
			}
			saved++
			mu.Unlock()
			report("Saved %s (%s)\n", path, c.Value)
		})
	}

	for _, v := range values {
		seq := session.Trigger(cmd.Context(), v, tag, apply)
		slog.Debug("Fetch triggered", "seq", seq, "value", v, "tag", tag)
	}
	go func() {
		session.Wait()
		close(completions)
	}()
	for f := range completions {
		f()
	}
	store.Wait()

	if err := errors.Join(saveErrs...); err != nil {
		return err
	}
	if saved == 0 {
		return fmt.Errorf("no barcode fetched (%d failed)", failed)
	}
	return nil
}
