//nolint:lll
package config

// Config represents the complete configuration for barcodegen.
// It includes settings for all commands (render, fetch, scan, batch, serve)
// and supports loading from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	// Per-symbology overrides keyed by canonical name (e.g. "qr").
	Symbologies map[string]SymbologyConfig `mapstructure:"symbologies" yaml:"symbologies,omitempty" json:"symbologies,omitempty"`

	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote" json:"remote"`
	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan" json:"scan"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Library LibraryConfig `mapstructure:"library" yaml:"library" json:"library"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
}

// RenderConfig contains local rendering settings.
type RenderConfig struct {
	Symbology           string `mapstructure:"symbology" yaml:"symbology" json:"symbology"`
	Mode                string `mapstructure:"mode" yaml:"mode" json:"mode"`
	Scale               int    `mapstructure:"scale" yaml:"scale" json:"scale"`
	QRBackend           string `mapstructure:"qr_backend" yaml:"qr_backend" json:"qr_backend"`
	PDF417SecurityLevel int    `mapstructure:"pdf417_security_level" yaml:"pdf417_security_level" json:"pdf417_security_level"`
	BarHeight           int    `mapstructure:"bar_height" yaml:"bar_height" json:"bar_height"`
}

// SymbologyConfig overrides the encoding rule of one symbology.
type SymbologyConfig struct {
	Charset  string `mapstructure:"charset" yaml:"charset,omitempty" json:"charset,omitempty"`
	MaxBytes int    `mapstructure:"max_bytes" yaml:"max_bytes,omitempty" json:"max_bytes,omitempty"`
}

// RemoteConfig contains remote barcode service settings.
type RemoteConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	DropStale  bool   `mapstructure:"drop_stale" yaml:"drop_stale" json:"drop_stale"`
}

// ScanConfig contains decoder settings.
type ScanConfig struct {
	TryHarder bool `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	MinSide   int  `mapstructure:"min_side" yaml:"min_side" json:"min_side"`
	Margin    int  `mapstructure:"margin" yaml:"margin" json:"margin"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client limits; zero disables a limit.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// LibraryConfig contains save-to-library settings.
type LibraryConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// BatchConfig contains batch rendering settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}
