package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/barcodegen/internal/scan"
	"github.com/MeKo-Tech/barcodegen/internal/utils"
)

// scanHandler decodes a barcode from an uploaded image.
// POST /scan, multipart field "image".
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ScanResponse{Error: "Failed to parse form data", Reason: scan.ReasonInvalidImage})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ScanResponse{Error: "No image file provided", Reason: scan.ReasonInvalidImage})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, ScanResponse{Error: "File too large", Reason: scan.ReasonInvalidImage})
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	img, meta, err := utils.DecodeImage(file)
	if err != nil {
		scansTotal.WithLabelValues(scan.ReasonInvalidImage).Inc()
		writeJSON(w, http.StatusBadRequest, ScanResponse{Error: "Invalid image format", Reason: scan.ReasonInvalidImage})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.scanner.Scan(ctx, img)
	if err != nil {
		reason := scan.ReasonNotFound
		var scanErr *scan.ScanError
		if errors.As(err, &scanErr) {
			reason = scanErr.Reason
		}
		scansTotal.WithLabelValues(reason).Inc()
		slog.Debug("Scan failed", "filename", header.Filename, "format", meta.Format, "reason", reason, "error", err)
		writeJSON(w, statusForScanReason(reason), ScanResponse{Error: err.Error(), Reason: reason})
		return
	}

	scansTotal.WithLabelValues("success").Inc()
	slog.Info("Scanned barcode", "filename", header.Filename, "symbology", res.Symbology, "width", meta.Width, "height", meta.Height)
	writeJSON(w, http.StatusOK, ScanResponse{Success: true, Result: &res})
}

func statusForScanReason(reason string) int {
	switch reason {
	case scan.ReasonInvalidImage:
		return http.StatusBadRequest
	case scan.ReasonCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusUnprocessableEntity
	}
}
