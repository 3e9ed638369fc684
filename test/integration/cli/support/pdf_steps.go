package support

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/barcodegen/internal/library"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
	"github.com/cucumber/godog"
)

// aPDFContainingBarcodes builds a PDF with one page per table row
// (columns: symbology, text).
func (testCtx *TestContext) aPDFContainingBarcodes(filename string, table *godog.Table) error {
	var paths []string
	for i, row := range table.Rows {
		if i == 0 || len(row.Cells) < 2 {
			continue
		}
		img, err := renderFixture(row.Cells[1].Value, row.Cells[0].Value)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		path := filepath.Join(testCtx.TempDir, "pdf-src", "page-"+strconv.Itoa(i)+".png")
		if err := utils.SavePNG(img, path); err != nil {
			return err
		}
		paths = append(paths, path)
	}
	return library.ExportPDF(paths, testCtx.Path(filename))
}

func (testCtx *TestContext) thePDFShouldHavePages(filename string, n int) error {
	got, err := library.PageCount(testCtx.Path(filename))
	if err != nil {
		return err
	}
	if got != n {
		return fmt.Errorf("%s has %d pages, want %d", filename, got, n)
	}
	return nil
}

// RegisterPDFSteps registers PDF fixture and inspection steps.
func (testCtx *TestContext) RegisterPDFSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a PDF "([^"]*)" containing barcodes:$`, testCtx.aPDFContainingBarcodes)
	sc.Step(`^the PDF "([^"]*)" should have (\d+) pages?$`, testCtx.thePDFShouldHavePages)
}
