package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/scan"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPort is the port the barcode service listens on.
const DefaultPort = 12138

// Server holds the HTTP server state and dependencies.
type Server struct {
	local       *render.Pipeline // client-side generator set, used by /render and /ws
	data        *render.Pipeline // server-side set including EAN, used by /data
	dataTypes   []string
	registry    *symbology.Registry
	scanner     *scan.Scanner
	rateLimiter *RateLimiter
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
	started     time.Time
}

// RateLimitConfig holds the per-client limits. Zero disables a limit.
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Scale       int
	Generator   generator.Options
	Registry    *symbology.Registry
	Scan        scan.Options
	RateLimit   RateLimitConfig
	Version     string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        DefaultPort,
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  30,
		Scale:       render.DefaultScale,
		Generator:   generator.DefaultOptions(),
		Scan:        scan.DefaultOptions(),
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
	Time    string `json:"time"`
}

type SymbologyInfo struct {
	Name        string            `json:"name"`
	Label       string            `json:"label"`
	Charset     symbology.Charset `json:"charset"`
	MaxBytes    int               `json:"max_bytes"`
	Lengths     []int             `json:"lengths,omitempty"`
	Dimensions  int               `json:"dimensions"`
	Selectable  bool              `json:"selectable"`
	Implemented bool              `json:"implemented"`
	DataType    string            `json:"data_type,omitempty"`
}

type SymbologiesResponse struct {
	Symbologies []SymbologyInfo `json:"symbologies"`
	Count       int             `json:"count"`
}

type RenderResponse struct {
	Success    bool   `json:"success"`
	Symbology  string `json:"symbology"`
	Mode       string `json:"mode"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	PNG        []byte `json:"png,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type ScanResponse struct {
	Success bool         `json:"success"`
	Result  *scan.Result `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

// MessageResponse is the error body of the /data endpoint.
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer creates a new barcode server instance.
func NewServer(config Config) (*Server, error) {
	if err := config.Generator.Validate(); err != nil {
		return nil, fmt.Errorf("generator options: %w", err)
	}
	registry := config.Registry
	if registry == nil {
		registry = symbology.NewRegistry()
	}
	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	encoder := payload.NewEncoder(registry)
	serverSet := generator.ServerSet(config.Generator)

	dataTypes := make([]string, 0, len(serverSet))
	for s := range serverSet {
		dataTypes = append(dataTypes, s.String())
	}
	sort.Strings(dataTypes)

	s := &Server{
		local:       render.NewPipeline(encoder, render.NewRenderer(encoder.Registry(), generator.LocalSet(config.Generator), config.Scale), nil),
		data:        render.NewPipeline(encoder, render.NewRenderer(encoder.Registry(), serverSet, config.Scale), nil),
		dataTypes:   dataTypes,
		registry:    registry,
		scanner:     scan.NewScanner(config.Scan),
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeout:     timeout,
		version:     config.Version,
		started:     time.Now(),
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.maxUploadMB <= 0 {
		s.maxUploadMB = 10
	}
	rl := config.RateLimit
	limiter := NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	if limiter.Enabled() {
		s.rateLimiter = limiter
	}
	return s, nil
}

// DataTypes returns the tags accepted by /data, sorted.
func (s *Server) DataTypes() []string {
	return append([]string(nil), s.dataTypes...)
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware("/health", s.healthHandler))
	mux.HandleFunc("/symbologies", s.corsMiddleware("/symbologies", s.symbologiesHandler))
	mux.HandleFunc("/data", s.corsMiddleware("/data", s.rateLimitMiddleware(s.dataHandler)))
	mux.HandleFunc("/render", s.corsMiddleware("/render", s.rateLimitMiddleware(s.renderHandler)))
	mux.HandleFunc("/scan", s.corsMiddleware("/scan", s.rateLimitMiddleware(s.scanHandler)))
	mux.HandleFunc("/ws", s.renderWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
