package library

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/barcodegen/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExportPDF writes a PDF sheet with one page per image file.
func ExportPDF(imagePaths []string, outFile string) error {
	if len(imagePaths) == 0 {
		return errors.New("pdf export: no images")
	}
	if dir := filepath.Dir(outFile); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("pdf export: %w", err)
		}
	}
	if err := api.ImportImagesFile(imagePaths, outFile, nil, nil); err != nil {
		return fmt.Errorf("pdf export: %w", err)
	}
	return nil
}

// PageCount returns the number of pages of a PDF file.
func PageCount(filename string) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// PageImage is an image embedded in a PDF page.
type PageImage struct {
	Page  int
	Image image.Image
}

// ExtractImages returns the images embedded in filename ordered by page.
func ExtractImages(filename string) ([]PageImage, error) {
	tempDir, err := os.MkdirTemp("", "barcodegen-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(filename, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, err
	}
	var out []PageImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, err := pageFromFilename(e.Name())
		if err != nil {
			continue
		}
		img, _, err := utils.LoadImage(filepath.Join(tempDir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, PageImage{Page: page, Image: img})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out, nil
}

// pageFromFilename parses the page number out of the names pdfcpu gives
// extracted images: <stem>_<page>_<obj>.<ext> or page_<page>_....
func pageFromFilename(name string) (int, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return 0, errors.New("invalid filename format")
	}
	if parts[0] == "page" {
		return strconv.Atoi(parts[1])
	}
	return strconv.Atoi(parts[len(parts)-2])
}
