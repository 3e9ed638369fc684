package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Scale = 2
	cfg.Version = "test"
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func newTestMux(t *testing.T, mutate ...func(*Config)) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	newTestServer(t, mutate...).SetupRoutes(mux)
	return mux
}

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"GET request success", http.MethodGet, http.StatusOK},
		{"POST request not allowed", http.MethodPost, http.StatusMethodNotAllowed},
		{"PUT request not allowed", http.MethodPut, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "healthy", resp.Status)
			assert.Equal(t, "test", resp.Version)
			assert.NotEmpty(t, resp.Time)
		})
	}
}

func TestServer_SymbologiesHandler(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(t).symbologiesHandler(w, httptest.NewRequest(http.MethodGet, "/symbologies", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SymbologiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Count)

	byName := map[string]SymbologyInfo{}
	for _, info := range resp.Symbologies {
		byName[info.Name] = info
	}
	assert.True(t, byName["qr"].Selectable)
	assert.False(t, byName["datamatrix"].Implemented)
	assert.Empty(t, byName["datamatrix"].DataType)
	assert.False(t, byName["ean13"].Selectable)
	assert.Equal(t, "ean13", byName["ean13"].DataType)
	assert.Equal(t, []int{12, 13}, byName["ean13"].Lengths)
}

func TestServer_DataTypesSorted(t *testing.T) {
	assert.Equal(t,
		[]string{"aztec", "code128", "ean13", "ean8", "pdf417", "qr"},
		newTestServer(t).DataTypes())
}

func TestServer_DataHandler(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectPNG      bool
		messagePrefix  string
	}{
		{"defaults", "", http.StatusOK, true, ""},
		{"ean8", "?value=9638507&type=ean8", http.StatusOK, true, ""},
		{"type is case insensitive", "?value=4006381333931&type=EAN13", http.StatusOK, true, ""},
		{"qr", "?value=hello&type=qr", http.StatusOK, true, ""},
		{"unknown type", "?type=upca", http.StatusBadRequest, false, "Invalid barcode type. Available types: aztec, code128, ean13"},
		{"datamatrix is not served", "?type=datamatrix", http.StatusBadRequest, false, "Invalid barcode type."},
		{"invalid ean value", "?value=12ab&type=ean13", http.StatusBadRequest, false, "Error generating barcode: "},
		{"empty value", "?value=&type=qr", http.StatusBadRequest, false, "Error generating barcode: empty input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data"+tt.query, nil))

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectPNG {
				assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
				img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
				require.NoError(t, err)
				assert.False(t, img.Bounds().Empty())
				return
			}
			var resp MessageResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, strings.HasPrefix(resp.Message, tt.messagePrefix), resp.Message)
		})
	}
}

func TestServer_RenderHandler_PNG(t *testing.T) {
	mux := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render?text=HELLO&symbology=code128", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, img.Bounds().Dx()%2)
}

func TestServer_RenderHandler_JSON(t *testing.T) {
	mux := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render?text=hi&symbology=qr&mode=inverted&format=json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "qr", resp.Symbology)
	assert.Equal(t, "inverted", resp.Mode)
	assert.Positive(t, resp.Width)
	assert.Equal(t, resp.Width, resp.Height)

	img, err := png.Decode(bytes.NewReader(resp.PNG))
	require.NoError(t, err)
	assert.Equal(t, resp.Width, img.Bounds().Dx())
}

func TestServer_RenderHandler_Failures(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedKind   string
	}{
		{"empty text", "?symbology=qr", http.StatusUnprocessableEntity, render.KindEmptyInput},
		{"unsupported character", "?text=caf%C3%A9&symbology=code128", http.StatusUnprocessableEntity, render.KindUnsupportedCharacter},
		{"payload too large", "?text=" + strings.Repeat("A", 81) + "&symbology=code128", http.StatusUnprocessableEntity, render.KindPayloadTooLarge},
		{"data matrix", "?text=abc&symbology=datamatrix", http.StatusNotImplemented, render.KindNotImplemented},
		{"ean has no local generator", "?text=4006381333931&symbology=ean13", http.StatusInternalServerError, render.KindGenerationFailed},
		{"unknown symbology", "?text=abc&symbology=maxicode", http.StatusBadRequest, "invalid_request"},
		{"unknown mode", "?text=abc&mode=sepia", http.StatusBadRequest, "invalid_request"},
		{"unknown format", "?text=abc&format=svg", http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render"+tt.query, nil))
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedKind, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestServer_RenderHandler_JSONFailureCarriesKind(t *testing.T) {
	mux := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render?text=&format=json", nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, render.KindEmptyInput, resp.ErrorKind)
	assert.Empty(t, resp.PNG)
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(render.KindInvalidLength))
	assert.Equal(t, http.StatusNotImplemented, statusForKind(render.KindNotImplemented))
	assert.Equal(t, http.StatusBadGateway, statusForKind(render.KindNetwork))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(render.KindRasterizationFailed))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(render.KindInternal))
}

func TestNewServer_RejectsInvalidGeneratorOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.QRBackend = "zint"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestNewServer_PipelinesShareRegistry(t *testing.T) {
	s := newTestServer(t)
	assert.Same(t, s.local.Encoder.Registry(), s.local.Renderer.Registry())
	assert.Same(t, s.data.Encoder.Registry(), s.data.Renderer.Registry())
}

func TestServer_Metrics(t *testing.T) {
	mux := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/render?text=abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "barcodegen_renders_total")
	assert.Contains(t, w.Body.String(), "barcodegen_http_requests_total")
}
