package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormatResults renders the items as text, json or csv.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "json":
		return r.formatJSON()
	case "csv":
		return r.formatCSV()
	default:
		return r.formatText(), nil
	}
}

func (r *Result) formatJSON() (string, error) {
	bts, err := json.MarshalIndent(r, "", "  ")
	return string(bts), err
}

func (r *Result) formatCSV() (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	rows := [][]string{{"source", "line", "symbology", "text", "path", "error_kind", "error"}}
	for _, it := range r.Items {
		rows = append(rows, []string{
			it.Source,
			strconv.Itoa(it.Line),
			it.Request.Symbology.String(),
			it.Request.Text,
			it.Path,
			it.Kind,
			it.Error,
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

func (r *Result) formatText() string {
	var output strings.Builder
	for _, it := range r.Items {
		if it.Err != nil {
			output.WriteString(fmt.Sprintf("FAIL %s:%d [%s] %s\n", it.Source, it.Line, it.Kind, it.Error))
			continue
		}
		output.WriteString(fmt.Sprintf("OK   %s:%d -> %s\n", it.Source, it.Line, it.Path))
	}
	return output.String()
}
