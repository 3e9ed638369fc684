package batch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
)

// Entry is one barcode to render, read from an input file.
type Entry struct {
	Source  string         `json:"source"`
	Line    int            `json:"line"`
	Request render.Request `json:"request"`
}

// readEntries parses path. Plain text files carry one payload per line;
// blank lines and lines starting with '#' are skipped. CSV files carry
// text[,symbology[,mode]] rows.
func readEntries(path string, defaults render.Request) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // G304: input files are chosen by the user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return parseCSV(f, path, defaults)
	}
	return parseLines(f, path, defaults)
}

func parseLines(r io.Reader, source string, defaults render.Request) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		req := defaults
		req.Text = text
		entries = append(entries, Entry{Source: source, Line: line, Request: req})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return entries, nil
}

func parseCSV(r io.Reader, source string, defaults render.Request) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	var entries []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}
		if line == 1 && strings.EqualFold(record[0], "text") {
			continue // header
		}

		req := defaults
		req.Text = record[0]
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			s, err := symbology.Parse(strings.TrimSpace(record[1]))
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", source, line, err)
			}
			req.Symbology = s
		}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			m, err := symbology.ParseColorMode(strings.TrimSpace(record[2]))
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", source, line, err)
			}
			req.ColorMode = m
		}
		entries = append(entries, Entry{Source: source, Line: line, Request: req})
	}
	return entries, nil
}
