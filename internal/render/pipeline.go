package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/disintegration/imaging"
)

// Request is one render request.
type Request struct {
	Text      string              `json:"text"`
	Symbology symbology.Symbology `json:"symbology"`
	ColorMode symbology.ColorMode `json:"-"`
	UseRemote bool                `json:"use_remote,omitempty"`
}

// Result is the terminal outcome of a Request: exactly one of Image and Err
// is set.
type Result struct {
	Request  Request
	Image    *Image
	Err      error
	Duration time.Duration
}

// OK reports whether the request produced an image.
func (r Result) OK() bool { return r.Err == nil && r.Image != nil }

// Kind returns the stable error identifier of the result.
func (r Result) Kind() string { return Kind(r.Err) }

// Pipeline runs requests through encoding and rendering, or through the
// remote fetcher when a request asks for it.
type Pipeline struct {
	Encoder  *payload.Encoder
	Renderer *Renderer
	Remote   remote.ImageFetcher
}

// NewPipeline wires a pipeline. fetcher may be nil when the remote path is
// not used.
func NewPipeline(encoder *payload.Encoder, renderer *Renderer, fetcher remote.ImageFetcher) *Pipeline {
	if encoder == nil {
		encoder = payload.NewEncoder(nil)
	}
	return &Pipeline{Encoder: encoder, Renderer: renderer, Remote: fetcher}
}

// Process runs a single request.
func (p *Pipeline) Process(ctx context.Context, req Request) Result {
	start := time.Now()
	res := Result{Request: req}
	if req.UseRemote {
		res.Image, res.Err = p.fetch(ctx, req)
	} else {
		res.Image, res.Err = p.render(req)
	}
	if res.Err != nil {
		res.Image = nil
	}
	res.Duration = time.Since(start)
	return res
}

func (p *Pipeline) render(req Request) (*Image, error) {
	if p == nil || p.Renderer == nil {
		return nil, errors.New("pipeline not initialized")
	}
	data, err := p.Encoder.Encode(req.Text, req.Symbology)
	if err != nil {
		return nil, err
	}
	return p.Renderer.Render(data, req.Symbology, req.ColorMode)
}

// fetch delegates to the remote service. Remote images are not rescaled;
// the colour mode still applies.
func (p *Pipeline) fetch(ctx context.Context, req Request) (*Image, error) {
	if req.Text == "" {
		return nil, payload.ErrEmptyInput
	}
	if p == nil || p.Remote == nil {
		return nil, fmt.Errorf("%w: remote fetcher not configured", remote.ErrNoImage)
	}
	tag := p.Encoder.Registry().Rule(req.Symbology).RemoteTag
	if tag == "" {
		tag = req.Symbology.String()
	}
	img, err := p.Remote.Fetch(ctx, req.Text, tag)
	if err != nil {
		return nil, err
	}
	pixels := imaging.Clone(img)
	if req.ColorMode == symbology.Inverted {
		pixels = imaging.Invert(pixels)
	}
	return rasterize(pixels, img.Bounds().Dx(), img.Bounds().Dy())
}

// ParallelConfig holds configuration for ProcessAll.
type ParallelConfig struct {
	MaxWorkers       int              // Number of parallel workers (0 = runtime.NumCPU())
	ProgressCallback ProgressCallback // Optional progress reporting
}

// DefaultParallelConfig returns the defaults for ProcessAll.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

type job struct {
	index int
	req   Request
}

type indexedResult struct {
	index  int
	result Result
}

// ProcessAll runs independent requests on a worker pool. Results are in the
// same order as reqs. Requests not started before ctx is cancelled carry
// ctx.Err().
func (p *Pipeline) ProcessAll(ctx context.Context, reqs []Request, config ParallelConfig) []Result {
	if len(reqs) == 0 {
		return nil
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, len(reqs))

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(len(reqs))
		defer config.ProgressCallback.OnComplete()
	}

	jobs := make(chan job, len(reqs))
	results := make(chan indexedResult, len(reqs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, req := range reqs {
			select {
			case jobs <- job{index: i, req: req}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]Result, len(reqs))
	done := make([]bool, len(reqs))
	processed := 0
	for r := range results {
		ordered[r.index] = r.result
		done[r.index] = true
		processed++
		if config.ProgressCallback != nil {
			if r.result.Err != nil {
				config.ProgressCallback.OnError(r.index, r.result.Err)
			}
			config.ProgressCallback.OnProgress(processed, len(reqs))
		}
	}

	for i := range ordered {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = errors.New("request not processed")
			}
			ordered[i] = Result{Request: reqs[i], Err: err}
		}
	}
	return ordered
}

func (p *Pipeline) worker(ctx context.Context, jobs <-chan job, results chan<- indexedResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			res := p.Process(ctx, j.req)
			if res.Err != nil {
				slog.Debug("render request failed", "index", j.index,
					"symbology", j.req.Symbology.String(), "kind", res.Kind(), "error", res.Err)
			}
			results <- indexedResult{index: j.index, result: res}
		case <-ctx.Done():
			return
		}
	}
}
