// Package batch renders barcodes for every line of one or more input files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/library"
	"github.com/MeKo-Tech/barcodegen/internal/render"
)

// Item is the outcome of one entry.
type Item struct {
	Entry
	Path  string `json:"path,omitempty"`
	Kind  string `json:"error_kind,omitempty"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// Result holds the outcome of a batch run.
type Result struct {
	Items       []Item        `json:"items"`
	InputFiles  []string      `json:"input_files"`
	PDFPath     string        `json:"pdf,omitempty"`
	Duration    time.Duration `json:"duration"`
	WorkerCount int           `json:"workers"`
}

// Stats summarizes a Result.
type Stats struct {
	Total            int
	Rendered         int
	Failed           int
	FailuresByKind   map[string]int
	Duration         time.Duration
	ThroughputPerSec float64
}

// Run discovers input files, renders every entry on pipeline's worker pool
// and saves the images to cfg.OutputDir.
func Run(ctx context.Context, pl *render.Pipeline, inputs []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	files, err := discoverInputFiles(inputs, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files found")
	}

	defaults := render.Request{Symbology: cfg.Symbology, ColorMode: cfg.ColorMode}
	var entries []Entry
	for _, f := range files {
		e, err := readEntries(f, defaults)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	if len(entries) == 0 {
		return nil, errors.New("no entries found in input files")
	}

	reqs := make([]render.Request, len(entries))
	for i, e := range entries {
		reqs[i] = e.Request
	}

	pc := render.ParallelConfig{MaxWorkers: cfg.Workers}
	if cfg.ShowProgress && !cfg.Quiet {
		pc.ProgressCallback = render.NewConsoleProgressCallback(nil, "Rendering: ")
	}

	start := time.Now()
	results := pl.ProcessAll(ctx, reqs, pc)

	store := library.NewStore(cfg.OutputDir)
	res := &Result{InputFiles: files, WorkerCount: pc.MaxWorkers, Items: make([]Item, len(entries))}
	var saved []string
	for i, r := range results {
		item := Item{Entry: entries[i]}
		if r.Err == nil {
			item.Path, item.Err = store.Save(r.Image, itemName(entries[i]))
		} else {
			item.Err = r.Err
		}
		if item.Err != nil {
			item.Kind = render.Kind(item.Err)
			item.Error = item.Err.Error()
			slog.Warn("batch entry failed", "source", item.Source, "line", item.Line, "kind", item.Kind, "error", item.Err)
			if !cfg.ContinueOnError {
				res.Items = res.Items[:i]
				return res, fmt.Errorf("%s:%d: %w", item.Source, item.Line, item.Err)
			}
		} else {
			saved = append(saved, item.Path)
		}
		res.Items[i] = item
	}

	if cfg.PDFPath != "" && len(saved) > 0 {
		if err := library.ExportPDF(saved, cfg.PDFPath); err != nil {
			return res, err
		}
		res.PDFPath = cfg.PDFPath
	}
	res.Duration = time.Since(start)
	return res, nil
}

func itemName(e Entry) string {
	stem := strings.TrimSuffix(filepath.Base(e.Source), filepath.Ext(e.Source))
	return stem + "-" + strconv.Itoa(e.Line) + "-" + e.Request.Symbology.String()
}

// Stats computes summary statistics.
func (r *Result) Stats() Stats {
	s := Stats{Total: len(r.Items), Duration: r.Duration, FailuresByKind: map[string]int{}}
	for _, it := range r.Items {
		if it.Err != nil {
			s.Failed++
			s.FailuresByKind[it.Kind]++
		} else {
			s.Rendered++
		}
	}
	if r.Duration > 0 {
		s.ThroughputPerSec = float64(s.Total) / r.Duration.Seconds()
	}
	return s
}

// PrintStats writes processing statistics to w.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nBatch Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Input files: %d\n", len(r.InputFiles))
	_, _ = fmt.Fprintf(w, "  Entries: %d\n", stats.Total)
	_, _ = fmt.Fprintf(w, "  Rendered: %d\n", stats.Rendered)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	for kind, n := range stats.FailuresByKind {
		_, _ = fmt.Fprintf(w, "    %s: %d\n", kind, n)
	}
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f barcodes/sec\n", stats.ThroughputPerSec)
	if r.PDFPath != "" {
		_, _ = fmt.Fprintf(w, "  PDF sheet: %s\n", r.PDFPath)
	}
}
