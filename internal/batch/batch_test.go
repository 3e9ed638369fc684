package batch

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/MeKo-Tech/barcodegen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline() *render.Pipeline {
	return render.NewPipeline(nil, render.NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 2), nil)
}

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.Workers = 2
	return cfg
}

func TestRun_RendersEveryLine(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	in := testutil.WriteFile(t, dir, "codes.txt", "HELLO\nWORLD\nABCé\n")

	res, err := Run(context.Background(), newPipeline(), []string{in}, testConfig(dir))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	assert.FileExists(t, res.Items[0].Path)
	assert.FileExists(t, res.Items[1].Path)
	assert.Equal(t, filepath.Join(dir, "out", "codes-1-qr.png"), res.Items[0].Path)
	assert.Equal(t, render.KindUnsupportedCharacter, res.Items[2].Kind)

	stats := res.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Rendered)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.FailuresByKind[render.KindUnsupportedCharacter])
}

func TestRun_StopOnError(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	in := testutil.WriteFile(t, dir, "codes.txt", "OK\nABCé\nNEVER\n")

	cfg := testConfig(dir)
	cfg.ContinueOnError = false
	res, err := Run(context.Background(), newPipeline(), []string{in}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codes.txt:2")
	assert.Len(t, res.Items, 1)
}

func TestRun_PDFSheet(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	in := testutil.WriteFile(t, dir, "codes.csv", "HELLO,code128\nWORLD,pdf417\n")

	cfg := testConfig(dir)
	cfg.PDFPath = filepath.Join(dir, "sheet.pdf")
	res, err := Run(context.Background(), newPipeline(), []string{in}, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.PDFPath, res.PDFPath)
	assert.FileExists(t, cfg.PDFPath)
}

func TestRun_Errors(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	_, err := Run(context.Background(), newPipeline(), []string{filepath.Join(dir, "missing.txt")}, testConfig(dir))
	assert.Error(t, err)

	empty := testutil.WriteFile(t, dir, "empty.txt", "# only comments\n")
	_, err = Run(context.Background(), newPipeline(), []string{empty}, testConfig(dir))
	assert.ErrorContains(t, err, "no entries")

	cfg := testConfig(dir)
	cfg.Symbology = symbology.DataMatrix
	_, err = Run(context.Background(), newPipeline(), []string{empty}, cfg)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.OutputDir = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Symbology = symbology.EAN13
	assert.Error(t, cfg.Validate())
}

func TestFormatResults(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	in := testutil.WriteFile(t, dir, "codes.txt", "HELLO\nABCé\n")
	res, err := Run(context.Background(), newPipeline(), []string{in}, testConfig(dir))
	require.NoError(t, err)

	text, err := res.FormatResults("text")
	require.NoError(t, err)
	assert.Contains(t, text, "OK   ")
	assert.Contains(t, text, "FAIL ")
	assert.Contains(t, text, "[unsupported_character]")

	js, err := res.FormatResults("json")
	require.NoError(t, err)
	assert.Contains(t, js, `"error_kind": "unsupported_character"`)
	assert.Contains(t, js, `"symbology": "qr"`)

	csvOut, err := res.FormatResults("csv")
	require.NoError(t, err)
	assert.Contains(t, csvOut, "source,line,symbology,text,path,error_kind,error")

	var buf bytes.Buffer
	res.PrintStats(&buf)
	assert.Contains(t, buf.String(), "Rendered: 1")
	assert.Contains(t, buf.String(), "Failed: 1")
}
