// Package library saves rendered barcodes to a directory and exchanges them
// with PDF sheets.
package library

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/MeKo-Tech/barcodegen/internal/utils"
)

// DefaultDir is the library directory used when none is configured.
const DefaultDir = "barcodes"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store saves images as PNG files in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
	wg  sync.WaitGroup
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Save writes img as <name>.png and returns its path. An existing file is
// never overwritten; a numeric suffix is added instead.
func (s *Store) Save(img image.Image, name string) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", errors.New("library: nothing to save")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("library: create %s: %w", s.dir, err)
	}
	path, err := s.freePath(SanitizeName(name))
	if err != nil {
		return "", fmt.Errorf("library: %w", err)
	}
	if err := utils.SavePNG(img, path); err != nil {
		return "", fmt.Errorf("library: %w", err)
	}
	slog.Debug("barcode saved", "path", path)
	return path, nil
}

// SaveAsync saves img in the background and reports the outcome to done,
// which may be nil.
func (s *Store) SaveAsync(img image.Image, name string, done func(path string, err error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		path, err := s.Save(img, name)
		if err != nil {
			slog.Warn("save to library failed", "name", name, "error", err)
		}
		if done != nil {
			done(path, err)
		}
	}()
}

// Wait blocks until every SaveAsync call has finished.
func (s *Store) Wait() { s.wg.Wait() }

// SanitizeName turns arbitrary text into a file name stem.
func SanitizeName(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".png")
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > 64 {
		name = name[:64]
	}
	if name == "" {
		name = "barcode"
	}
	return name
}

func (s *Store) freePath(stem string) (string, error) {
	path := filepath.Join(s.dir, stem+".png")
	for i := 1; ; i++ {
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return path, nil
		case err != nil:
			return "", fmt.Errorf("check %s: %w", path, err)
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%d.png", stem, i))
	}
}
