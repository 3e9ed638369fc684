package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
)

// Defaults of the /data endpoint.
const (
	DefaultDataValue = "123456789012"
	DefaultDataType  = "ean13"
)

// healthHandler handles health check requests.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// symbologiesHandler lists every symbology with its encoding rule.
func (s *Server) symbologiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rules := s.registry.Rules()
	resp := SymbologiesResponse{Symbologies: make([]SymbologyInfo, 0, len(rules)), Count: len(rules)}
	for _, rule := range rules {
		info := SymbologyInfo{
			Name:        rule.Symbology.String(),
			Label:       rule.Label,
			Charset:     rule.Charset,
			MaxBytes:    rule.MaxBytes,
			Lengths:     rule.Lengths,
			Dimensions:  rule.Dimensions,
			Selectable:  rule.Selectable(),
			Implemented: rule.Implemented,
		}
		if slices.Contains(s.dataTypes, info.Name) {
			info.DataType = info.Name
		}
		resp.Symbologies = append(resp.Symbologies, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// dataHandler is the barcode image service queried by remote fetchers:
// GET /data?value=<text>&type=<tag> answers with a PNG.
func (s *Server) dataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	value := DefaultDataValue
	if query.Has("value") {
		value = query.Get("value")
	}
	tag := DefaultDataType
	if query.Has("type") {
		tag = strings.ToLower(query.Get("type"))
	}

	if !slices.Contains(s.dataTypes, tag) {
		writeJSON(w, http.StatusBadRequest, MessageResponse{
			Message: "Invalid barcode type. Available types: " + strings.Join(s.dataTypes, ", "),
		})
		return
	}
	sym, err := symbology.Parse(tag)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid barcode type: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res := s.process(ctx, s.data, "data", render.Request{Text: value, Symbology: sym})
	if !res.OK() {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Error generating barcode: " + res.Err.Error()})
		return
	}
	s.writePNG(w, res.Image)
}

// renderHandler renders through the client-side pipeline.
// GET /render?text=&symbology=&mode=&format=png|json
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	req, err := parseRenderRequest(query.Get("text"), query.Get("symbology"), query.Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	format := strings.ToLower(query.Get("format"))
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "json" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: fmt.Sprintf("unsupported format %q (must be png or json)", format),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	res := s.process(ctx, s.local, "render", req)

	if format == "png" {
		if !res.OK() {
			writeJSON(w, statusForKind(res.Kind()), ErrorResponse{Error: res.Kind(), Message: res.Err.Error()})
			return
		}
		s.writePNG(w, res.Image)
		return
	}

	resp, err := renderResponse(res)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: render.KindRasterizationFailed, Message: err.Error()})
		return
	}
	status := http.StatusOK
	if !resp.Success {
		status = statusForKind(resp.ErrorKind)
	}
	writeJSON(w, status, resp)
}

// process runs req through pl and records the render metrics.
func (s *Server) process(ctx context.Context, pl *render.Pipeline, source string, req render.Request) render.Result {
	res := pl.Process(ctx, req)
	status := "success"
	if !res.OK() {
		status = res.Kind()
	}
	rendersTotal.WithLabelValues(source, req.Symbology.String(), status).Inc()
	renderDuration.WithLabelValues(req.Symbology.String()).Observe(res.Duration.Seconds())
	if !res.OK() {
		slog.Debug("Render failed", "source", source, "symbology", req.Symbology, "kind", res.Kind(), "error", res.Err)
	}
	return res
}

func (s *Server) writePNG(w http.ResponseWriter, img *render.Image) {
	data, err := img.PNG()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: render.KindRasterizationFailed, Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write image response", "error", err)
	}
}

func parseRenderRequest(text, sym, mode string) (render.Request, error) {
	req := render.Request{Text: text, Symbology: symbology.QR}
	if sym != "" {
		parsed, err := symbology.Parse(sym)
		if err != nil {
			return req, err
		}
		req.Symbology = parsed
	}
	colorMode, err := symbology.ParseColorMode(mode)
	if err != nil {
		return req, err
	}
	req.ColorMode = colorMode
	return req, nil
}

func renderResponse(res render.Result) (RenderResponse, error) {
	resp := RenderResponse{
		Success:    res.OK(),
		Symbology:  res.Request.Symbology.String(),
		Mode:       res.Request.ColorMode.String(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if !res.OK() {
		resp.Error = res.Err.Error()
		resp.ErrorKind = res.Kind()
		return resp, nil
	}
	data, err := res.Image.PNG()
	if err != nil {
		return resp, err
	}
	resp.Width, resp.Height, resp.PNG = res.Image.Width, res.Image.Height, data
	return resp, nil
}

// statusForKind maps a render failure kind to an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case render.KindEmptyInput, render.KindUnsupportedCharacter, render.KindPayloadTooLarge, render.KindInvalidLength:
		return http.StatusUnprocessableEntity
	case render.KindNotImplemented:
		return http.StatusNotImplemented
	case render.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
