package support

import (
	"net/http"
	"net/http/httptest"

	"github.com/MeKo-Tech/barcodegen/internal/server"
)

// StartServer runs the barcode server on an httptest listener.
func (testCtx *TestContext) StartServer(mutate func(*server.Config)) error {
	testCtx.StopServer()

	cfg := server.DefaultConfig()
	cfg.Scale = 3
	cfg.Version = "test"
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPTestServer = httptest.NewServer(mux)
	return nil
}

// StopServer stops the running server, if any.
func (testCtx *TestContext) StopServer() {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
		testCtx.HTTPTestServer = nil
	}
}
