package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketRenderRequest asks for one render. Clients send one per change of
// text, symbology or mode and match responses by RequestID.
type WebSocketRenderRequest struct {
	Type      string `json:"type"` // "render"
	Text      string `json:"text"`
	Symbology string `json:"symbology,omitempty"`
	Mode      string `json:"mode,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketRenderResponse carries the outcome of one render request.
type WebSocketRenderResponse struct {
	Type      string `json:"type"`
	Status    string `json:"status"` // "completed" or "error"
	RequestID string `json:"request_id,omitempty"`
	Symbology string `json:"symbology,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	PNG       []byte `json:"png,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// renderWebSocketHandler handles WebSocket connections for live rendering.
func (s *Server) renderWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection
// until the client goes away.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage renders one request and answers on conn.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketRenderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.RequestID == "" {
		req.RequestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if req.Type != "render" {
		s.sendWebSocketError(conn, req.RequestID, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}

	renderReq, err := parseRenderRequest(req.Text, req.Symbology, req.Mode)
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, "invalid_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res := s.process(ctx, s.local, "websocket", renderReq)

	out, err := renderResponse(res)
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, "rasterization_failed", err.Error())
		return
	}
	resp := WebSocketRenderResponse{
		Type:      "render_response",
		Status:    "completed",
		RequestID: req.RequestID,
		Symbology: out.Symbology,
		Mode:      out.Mode,
		Width:     out.Width,
		Height:    out.Height,
		PNG:       out.PNG,
	}
	if !out.Success {
		resp.Status = "error"
		resp.Error = out.Error
		resp.ErrorKind = out.ErrorKind
	}
	s.sendWebSocketResponse(conn, resp)
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketRenderResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorKind, message string) {
	s.sendWebSocketResponse(conn, WebSocketRenderResponse{
		Type:      "error",
		Status:    "error",
		RequestID: requestID,
		Error:     message,
		ErrorKind: errorKind,
	})
}
