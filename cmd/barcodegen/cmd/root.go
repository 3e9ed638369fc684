package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/barcodegen/internal/config"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree with its own configuration
// state, so several trees can run in one process.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "barcodegen",
		Short: "Barcode payload encoding, rendering and decoding",
		Long: `barcodegen turns text into barcode images and back.

It validates text against per-symbology encoding rules, renders Code128,
QR, Aztec and PDF417 symbols locally, fetches EAN-8/EAN-13 images from a
remote barcode service, decodes barcodes from images and PDFs, and can
serve all of it over HTTP.

Examples:
  barcodegen render "HELLO" --symbology code128
  barcodegen fetch 4006381333931 --type ean13
  barcodegen scan label.png --copy
  barcodegen batch codes.txt --pdf sheet.pdf
  barcodegen serve --port 12138`,
		Version:           version.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/barcodegen, /etc/barcodegen)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = a.v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = a.v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newRenderCommand(a),
		newFetchCommand(a),
		newScanCommand(a),
		newBatchCommand(a),
		newServeCommand(a),
		newSymbologiesCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command line and reports the error on stderr.
func Execute() error {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	if err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// setup loads the configuration and installs the structured logger.
// Validation is left to the commands that need a usable configuration.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.loader = config.NewLoader(a.v)
	cfg, err := a.loader.LoadWithFileWithoutValidation(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg))
	if used := a.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("Loaded configuration", "file", used)
	}
	return nil
}

// config returns the validated configuration.
func (a *app) config() (*config.Config, error) {
	if a.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return a.cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// renderSelection resolves the symbology and colour mode from the
// configuration, overridden by the --symbology and --mode flags.
func renderSelection(cmd *cobra.Command, cfg *config.Config) (symbology.Symbology, symbology.ColorMode, error) {
	sym, mode, err := cfg.RenderDefaults()
	if err != nil {
		return sym, mode, err
	}
	if cmd.Flags().Changed("symbology") {
		name, _ := cmd.Flags().GetString("symbology")
		if sym, err = symbology.Parse(name); err != nil {
			return sym, mode, err
		}
	}
	if cmd.Flags().Changed("mode") {
		name, _ := cmd.Flags().GetString("mode")
		if mode, err = symbology.ParseColorMode(name); err != nil {
			return sym, mode, err
		}
	}
	return sym, mode, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
