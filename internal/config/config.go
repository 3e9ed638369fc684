package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/library"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/scan"
	"github.com/MeKo-Tech/barcodegen/internal/server"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	gen := generator.DefaultOptions()
	scanOpts := scan.DefaultOptions()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Render: RenderConfig{
			Symbology:           symbology.QR.String(),
			Mode:                symbology.Normal.String(),
			Scale:               render.DefaultScale,
			QRBackend:           gen.QRBackend,
			PDF417SecurityLevel: gen.PDF417SecurityLevel,
			BarHeight:           gen.BarHeight,
		},
		Remote: RemoteConfig{
			BaseURL:    remote.DefaultBaseURL,
			TimeoutSec: int(remote.DefaultTimeout / time.Second),
			DropStale:  false,
		},
		Scan: ScanConfig{
			TryHarder: scanOpts.TryHarder,
			MinSide:   scanOpts.MinSide,
			Margin:    scanOpts.Margin,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            server.DefaultPort,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Library: LibraryConfig{
			Dir: library.DefaultDir,
		},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			ContinueOnError: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	sym, err := symbology.Parse(c.Render.Symbology)
	if err != nil {
		return fmt.Errorf("invalid render.symbology: %w", err)
	}
	if !symbology.Lookup(sym).Selectable() {
		return fmt.Errorf("invalid render.symbology: %s cannot be rendered locally", sym)
	}
	if _, err := symbology.ParseColorMode(c.Render.Mode); err != nil {
		return fmt.Errorf("invalid render.mode: %w", err)
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("invalid render scale: %d (must be positive)", c.Render.Scale)
	}
	if err := c.ToGeneratorOptions().Validate(); err != nil {
		return fmt.Errorf("invalid render options: %w", err)
	}
	if _, err := c.ToRegistry(); err != nil {
		return err
	}

	if c.Remote.BaseURL == "" {
		return fmt.Errorf("invalid remote.base_url: must not be empty")
	}
	if c.Remote.TimeoutSec <= 0 {
		return fmt.Errorf("invalid remote timeout: %d (must be positive)", c.Remote.TimeoutSec)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}

	if c.Library.Dir == "" {
		return fmt.Errorf("invalid library.dir: must not be empty")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	if c.Scan.MinSide < 0 || c.Scan.Margin < 0 {
		return fmt.Errorf("invalid scan options: min_side and margin must not be negative")
	}
	return nil
}

// ToGeneratorOptions converts the render section to generator options.
func (c *Config) ToGeneratorOptions() generator.Options {
	return generator.Options{
		QRBackend:           c.Render.QRBackend,
		PDF417SecurityLevel: c.Render.PDF417SecurityLevel,
		BarHeight:           c.Render.BarHeight,
	}
}

// ToRegistry applies the symbology overrides to the default registry.
func (c *Config) ToRegistry() (*symbology.Registry, error) {
	reg := symbology.NewRegistry()
	if limit := symbology.PDF417Capacity(c.Render.PDF417SecurityLevel); limit > 0 {
		reg = reg.WithCapacity(symbology.PDF417, limit)
	}
	for name, override := range c.Symbologies {
		sym, err := symbology.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid symbologies key: %w", err)
		}
		if override.Charset != "" {
			cs, err := symbology.ParseCharset(override.Charset)
			if err != nil {
				return nil, fmt.Errorf("invalid symbologies.%s.charset: %w", name, err)
			}
			reg = reg.WithCharset(sym, cs)
		}
		if override.MaxBytes < 0 {
			return nil, fmt.Errorf("invalid symbologies.%s.max_bytes: %d (must not be negative)", name, override.MaxBytes)
		}
		if override.MaxBytes > 0 {
			reg = reg.WithCapacity(sym, override.MaxBytes)
		}
	}
	return reg, nil
}

// RenderDefaults returns the parsed default symbology and colour mode.
func (c *Config) RenderDefaults() (symbology.Symbology, symbology.ColorMode, error) {
	sym, err := symbology.Parse(c.Render.Symbology)
	if err != nil {
		return symbology.Unknown, symbology.Normal, err
	}
	mode, err := symbology.ParseColorMode(c.Render.Mode)
	if err != nil {
		return symbology.Unknown, symbology.Normal, err
	}
	return sym, mode, nil
}

// ToRemoteConfig converts the remote section.
func (c *Config) ToRemoteConfig() remote.Config {
	return remote.Config{
		BaseURL: c.Remote.BaseURL,
		Timeout: time.Duration(c.Remote.TimeoutSec) * time.Second,
	}
}

// ToScanOptions converts the scan section.
func (c *Config) ToScanOptions() scan.Options {
	return scan.Options{
		TryHarder: c.Scan.TryHarder,
		MinSide:   c.Scan.MinSide,
		Margin:    c.Scan.Margin,
	}
}

// ToServerConfig converts the server section.
func (c *Config) ToServerConfig(registry *symbology.Registry, version string) server.Config {
	rl := c.Server.RateLimit
	return server.Config{
		Host:        c.Server.Host,
		Port:        c.Server.Port,
		CORSOrigin:  c.Server.CORSOrigin,
		MaxUploadMB: int64(c.Server.MaxUploadMB),
		TimeoutSec:  c.Server.TimeoutSec,
		Scale:       c.Render.Scale,
		Generator:   c.ToGeneratorOptions(),
		Registry:    registry,
		Scan:        c.ToScanOptions(),
		RateLimit: server.RateLimitConfig{
			RequestsPerMinute: rl.RequestsPerMinute,
			RequestsPerHour:   rl.RequestsPerHour,
			MaxRequestsPerDay: rl.MaxRequestsPerDay,
			MaxDataPerDay:     int64(rl.MaxDataPerDayMB) * 1024 * 1024,
		},
		Version: version,
	}
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
