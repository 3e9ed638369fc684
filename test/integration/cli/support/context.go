package support

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir     string
	originalDir string
	savedEnv    map[string]*string

	// Server management
	HTTPTestServer *httptest.Server

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   []byte
	LastHTTPHeaders    http.Header
}

// NewTestContext creates a scenario context working inside a fresh
// temporary directory. HOME and XDG_CONFIG_HOME point at it so no user
// configuration leaks into a scenario.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	tempDir, err := os.MkdirTemp("", "barcodegen-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		TempDir:     tempDir,
		originalDir: originalDir,
		savedEnv:    map[string]*string{},
	}
	if err := os.Chdir(tempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}
	ctx.SetEnv("HOME", tempDir)
	ctx.SetEnv("XDG_CONFIG_HOME", tempDir)
	return ctx, nil
}

// SetEnv sets an environment variable until Cleanup.
func (testCtx *TestContext) SetEnv(name, value string) {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	_ = os.Setenv(name, value)
}

// Cleanup stops the server, restores the environment and removes the
// temporary directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	testCtx.StopServer()

	for name, old := range testCtx.savedEnv {
		if old == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *old)
		}
	}

	if err := os.Chdir(testCtx.originalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}
	return errors.Join(errs...)
}

// Path resolves name relative to the scenario directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substituteVariables expands {tmp} and {data_url} in step arguments.
func (testCtx *TestContext) substituteVariables(s string) string {
	s = strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
	if testCtx.HTTPTestServer != nil {
		s = strings.ReplaceAll(s, "{data_url}", testCtx.HTTPTestServer.URL+"/data")
		s = strings.ReplaceAll(s, "{server}", testCtx.HTTPTestServer.URL)
	}
	return s
}
