// Package remote fetches barcode images from an HTTP barcode service.
//
// The service contract is a single GET {baseURL}?value={text}&type={tag}
// answered with image bytes. Every failure collapses to ErrNoImage.
package remote

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrNoImage is the single outcome of a failed fetch.
var ErrNoImage = errors.New("no image from remote barcode service")

const (
	// DefaultBaseURL is the endpoint of the companion barcode service.
	DefaultBaseURL = "http://localhost:12138/data"
	// DefaultTimeout bounds a fetch against an unreachable endpoint.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 10 << 20
)

// ImageFetcher retrieves a barcode image for value rendered as tag.
type ImageFetcher interface {
	Fetch(ctx context.Context, value, tag string) (image.Image, error)
}

// Config configures a Fetcher.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the fetcher defaults.
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}
}

// Fetcher talks to the remote barcode service.
type Fetcher struct {
	baseURL string
	client  *http.Client
	tags    map[string]symbology.Symbology
}

// NewFetcher builds a Fetcher. A nil client gets an instrumented client with
// cfg.Timeout applied.
func NewFetcher(cfg Config, client *http.Client) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if client == nil {
		client = NewClient(cfg.Timeout)
	}
	return &Fetcher{
		baseURL: cfg.BaseURL,
		client:  client,
		tags:    symbology.NewRegistry().RemoteTags(),
	}, nil
}

// NewClient returns an http.Client whose transport records request metrics.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var transport http.RoundTripper = http.DefaultTransport
	transport = promhttp.InstrumentRoundTripperCounter(fetchRequestsTotal, transport)
	transport = promhttp.InstrumentRoundTripperDuration(fetchDuration, transport)
	return &http.Client{Timeout: timeout, Transport: transport}
}

// BaseURL returns the configured endpoint.
func (f *Fetcher) BaseURL() string { return f.baseURL }

// Fetch issues one GET request. There is no retry and no cache.
func (f *Fetcher) Fetch(ctx context.Context, value, tag string) (image.Image, error) {
	if _, ok := f.tags[tag]; !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrNoImage, tag)
	}

	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	q := u.Query()
	q.Set("value", value)
	q.Set("type", tag)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("remote fetch failed", "url", u.Redacted(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		slog.Debug("remote fetch rejected", "status", resp.StatusCode, "type", tag)
		return nil, fmt.Errorf("%w: status %d", ErrNoImage, resp.StatusCode)
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNoImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrNoImage)
	}

	slog.Debug("remote fetch complete", "type", tag, "format", format, "duration", time.Since(start))
	return img, nil
}
