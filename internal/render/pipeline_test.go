package render

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/payload"
	"github.com/MeKo-Tech/barcodegen/internal/remote"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct {
	mu    sync.Mutex
	calls int
	inner generator.Generator
}

func (c *countingGenerator) Generate(p []byte) (image.Image, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Generate(p)
}

type stubFetcher struct {
	img      image.Image
	err      error
	gotValue string
	gotTag   string
}

func (s *stubFetcher) Fetch(_ context.Context, value, tag string) (image.Image, error) {
	s.gotValue, s.gotTag = value, tag
	return s.img, s.err
}

func TestProcess_EmptyInputNeverCallsGenerator(t *testing.T) {
	gen := &countingGenerator{inner: checkerGenerator(2, 2)}
	p := NewPipeline(nil, NewRenderer(nil, stubSet(gen), 0), nil)

	for _, s := range symbology.All() {
		res := p.Process(context.Background(), Request{Text: "", Symbology: s})
		assert.Nil(t, res.Image)
		assert.ErrorIs(t, res.Err, payload.ErrEmptyInput)
		assert.Equal(t, KindEmptyInput, res.Kind())
	}
	assert.Zero(t, gen.calls)
}

func TestProcess_ExactlyOneTerminalValue(t *testing.T) {
	p := NewPipeline(nil, NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 0), nil)

	reqs := []Request{
		{Text: "HELLO123", Symbology: symbology.Code128},
		{Text: "ABCé", Symbology: symbology.Code128},
		{Text: "HELLO", Symbology: symbology.DataMatrix},
		{Text: "", Symbology: symbology.QR},
	}
	for _, req := range reqs {
		res := p.Process(context.Background(), req)
		assert.NotEqual(t, res.Image != nil, res.Err != nil, "request %+v", req)
		assert.Equal(t, res.Err == nil, res.OK())
	}
}

func TestProcess_KindsAreDistinct(t *testing.T) {
	p := NewPipeline(nil, NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 0), nil)

	tests := []struct {
		req  Request
		kind string
	}{
		{Request{Text: "ABCé", Symbology: symbology.Code128}, KindUnsupportedCharacter},
		{Request{Text: "HELLO", Symbology: symbology.DataMatrix}, KindNotImplemented},
		{Request{Text: "", Symbology: symbology.Aztec}, KindEmptyInput},
		{Request{Text: "1234", Symbology: symbology.EAN8}, KindInvalidLength},
		{Request{Text: "4006381333931", Symbology: symbology.EAN13}, KindGenerationFailed},
	}
	for _, tt := range tests {
		res := p.Process(context.Background(), tt.req)
		assert.Equal(t, tt.kind, res.Kind(), "request %+v: %v", tt.req, res.Err)
	}
}

func TestProcess_RemotePath(t *testing.T) {
	f := &stubFetcher{img: image.NewGray(image.Rect(0, 0, 95, 40))}
	p := NewPipeline(nil, nil, f)

	res := p.Process(context.Background(), Request{Text: "96385074", Symbology: symbology.EAN8, UseRemote: true})
	require.NoError(t, res.Err)
	assert.Equal(t, 95, res.Image.Width)
	assert.Equal(t, 40, res.Image.Height)
	assert.Equal(t, "96385074", f.gotValue)
	assert.Equal(t, "ean8", f.gotTag)
}

func TestProcess_RemoteFailureIsNetworkKind(t *testing.T) {
	f := &stubFetcher{err: fmt.Errorf("%w: status 500", remote.ErrNoImage)}
	p := NewPipeline(nil, nil, f)

	res := p.Process(context.Background(), Request{Text: "96385074", Symbology: symbology.EAN8, UseRemote: true})
	assert.Nil(t, res.Image)
	assert.Equal(t, KindNetwork, res.Kind())

	res = NewPipeline(nil, nil, nil).Process(context.Background(), Request{Text: "1", Symbology: symbology.EAN8, UseRemote: true})
	assert.Equal(t, KindNetwork, res.Kind())

	res = p.Process(context.Background(), Request{Text: "", Symbology: symbology.EAN8, UseRemote: true})
	assert.Equal(t, KindEmptyInput, res.Kind())
}

func TestProcessAll_PreservesOrder(t *testing.T) {
	p := NewPipeline(nil, NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 2), nil)

	reqs := make([]Request, 0, 20)
	for i := range 20 {
		text := fmt.Sprintf("ITEM-%02d", i)
		if i%5 == 0 {
			text = ""
		}
		reqs = append(reqs, Request{Text: text, Symbology: symbology.Code128})
	}

	results := p.ProcessAll(context.Background(), reqs, ParallelConfig{MaxWorkers: 4})
	require.Len(t, results, len(reqs))
	for i, res := range results {
		assert.Equal(t, reqs[i], res.Request)
		if i%5 == 0 {
			assert.ErrorIs(t, res.Err, payload.ErrEmptyInput)
		} else {
			assert.True(t, res.OK(), "index %d: %v", i, res.Err)
		}
	}
}

func TestProcessAll_MatchesSequential(t *testing.T) {
	p := NewPipeline(nil, NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 1), nil)
	reqs := []Request{
		{Text: "A", Symbology: symbology.QR},
		{Text: "B", Symbology: symbology.Aztec},
		{Text: "C", Symbology: symbology.PDF417, ColorMode: symbology.Inverted},
	}

	parallel := p.ProcessAll(context.Background(), reqs, ParallelConfig{MaxWorkers: 3})
	for i, req := range reqs {
		seq := p.Process(context.Background(), req)
		require.NoError(t, seq.Err)
		assert.Equal(t, seq.Image.Pix, parallel[i].Image.Pix)
	}
}

type recordingProgress struct {
	mu       sync.Mutex
	started  int
	last     int
	errors   int
	complete bool
}

func (r *recordingProgress) OnStart(total int) { r.started = total }
func (r *recordingProgress) OnProgress(current, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = current
}
func (r *recordingProgress) OnComplete() { r.complete = true }
func (r *recordingProgress) OnError(int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
}

func TestProcessAll_ReportsProgress(t *testing.T) {
	p := NewPipeline(nil, NewRenderer(nil, stubSet(checkerGenerator(2, 2)), 1), nil)
	progress := &recordingProgress{}

	reqs := []Request{{Text: "a", Symbology: symbology.QR}, {Text: "", Symbology: symbology.QR}, {Text: "b", Symbology: symbology.QR}}
	p.ProcessAll(context.Background(), reqs, ParallelConfig{MaxWorkers: 2, ProgressCallback: progress})

	assert.Equal(t, 3, progress.started)
	assert.Equal(t, 3, progress.last)
	assert.Equal(t, 1, progress.errors)
	assert.True(t, progress.complete)
}

func TestProcessAll_CancelledContext(t *testing.T) {
	p := NewPipeline(nil, NewRenderer(nil, stubSet(checkerGenerator(2, 2)), 1), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.ProcessAll(ctx, []Request{{Text: "a", Symbology: symbology.QR}, {Text: "b", Symbology: symbology.QR}}, ParallelConfig{MaxWorkers: 2})
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.OK() || res.Err != nil)
	}
	assert.Nil(t, p.ProcessAll(ctx, nil, DefaultParallelConfig()))
}
