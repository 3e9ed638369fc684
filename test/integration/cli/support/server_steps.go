package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/server"
	"github.com/cucumber/godog"
)

var errNoServer = errors.New("the barcode server is not running")

func (testCtx *TestContext) theBarcodeServerIsRunning() error {
	return testCtx.StartServer(nil)
}

func (testCtx *TestContext) theBarcodeServerIsRunningWithARequestLimit(perMinute int) error {
	return testCtx.StartServer(func(cfg *server.Config) {
		cfg.RateLimit.RequestsPerMinute = perMinute
	})
}

func (testCtx *TestContext) do(req *http.Request) error {
	ctx, cancel := context.WithTimeout(req.Context(), 30*time.Second)
	defer cancel()

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = body
	testCtx.LastHTTPHeaders = resp.Header
	return nil
}

func (testCtx *TestContext) request(method, path string, body io.Reader) (*http.Request, error) {
	if testCtx.HTTPTestServer == nil {
		return nil, errNoServer
	}
	return http.NewRequestWithContext(context.Background(), method, testCtx.HTTPTestServer.URL+path, body)
}

func (testCtx *TestContext) iGET(path string) error {
	req, err := testCtx.request(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iGETTimes(path string, n int) error {
	for range n {
		if err := testCtx.iGET(path); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) iMakeAnOPTIONSRequestTo(path string) error {
	req, err := testCtx.request(http.MethodOptions, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Origin", "https://example.com")
	return testCtx.do(req)
}

// iPOSTTheImageTo uploads a file as the multipart field "image".
func (testCtx *TestContext) iPOSTTheImageTo(filename, path string) error {
	data, err := os.ReadFile(testCtx.Path(filename))
	if err != nil {
		return err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := testCtx.request(http.MethodPost, path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("response status is %d, want %d\nBody: %s", testCtx.LastHTTPStatusCode, status, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(testCtx.LastHTTPResponse), text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); got != expected {
		return fmt.Errorf("header %s is %q, want %q", name, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBeSet(name string) error {
	if testCtx.LastHTTPHeaders.Get(name) == "" {
		return fmt.Errorf("header %s is not set", name)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeAPNGImage() error {
	if ct := testCtx.LastHTTPHeaders.Get("Content-Type"); ct != "image/png" {
		return fmt.Errorf("content type is %q, want image/png", ct)
	}
	img, err := png.Decode(bytes.NewReader(testCtx.LastHTTPResponse))
	if err != nil {
		return fmt.Errorf("response is not a PNG: %w", err)
	}
	if img.Bounds().Empty() {
		return errors.New("response image is empty")
	}
	return nil
}

// RegisterServerSteps registers HTTP server steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the barcode server is running$`, testCtx.theBarcodeServerIsRunning)
	sc.Step(`^the barcode server is running with a limit of (\d+) requests per minute$`, testCtx.theBarcodeServerIsRunningWithARequestLimit)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I GET "([^"]*)" (\d+) times$`, testCtx.iGETTimes)
	sc.Step(`^I make an OPTIONS request to "([^"]*)"$`, testCtx.iMakeAnOPTIONSRequestTo)
	sc.Step(`^I POST the image "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTTheImageTo)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response header "([^"]*)" should be set$`, testCtx.theResponseHeaderShouldBeSet)
	sc.Step(`^the response should be a PNG image$`, testCtx.theResponseShouldBeAPNGImage)
}
