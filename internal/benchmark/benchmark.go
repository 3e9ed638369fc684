// Package benchmark measures render throughput.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
)

// Timer measures one named span.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer starts a timer.
func NewTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory statistics for benchmarking.
type MemoryStats struct {
	AllocBytes      uint64  // Currently allocated bytes
	TotalAllocBytes uint64  // Total allocated bytes (cumulative)
	SysBytes        uint64  // Total bytes from system
	NumGC           uint32  // Number of GC runs
	GCCPUFraction   float64 // Fraction of CPU time spent in GC
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
		GCCPUFraction:   m.GCCPUFraction,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d (%.2f%% CPU)",
		m.AllocBytes/1024,
		m.TotalAllocBytes/1024,
		m.SysBytes/1024,
		m.NumGC,
		m.GCCPUFraction*100)
}

// Result holds the outcome of one benchmark.
type Result struct {
	Name         string
	Duration     time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Iterations   int
	Error        error
}

// Average returns the mean duration of one iteration.
func (r Result) Average() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Duration / time.Duration(r.Iterations)
}

// AllocatedKB is the growth of total allocations during the run.
func (r Result) AllocatedKB() int64 {
	return int64(r.MemoryAfter.TotalAllocBytes-r.MemoryBefore.TotalAllocBytes) / 1024 //nolint:gosec // G115: display only
}

func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, alloc: %d KB",
		r.Name, r.Iterations, r.Average(), r.Duration, r.AllocatedKB())
}

// Benchmark is one named function to measure.
type Benchmark struct {
	Name string
	Func func() error
}

// Suite runs a set of benchmarks.
type Suite struct {
	benchmarks []Benchmark
	results    []Result
	mu         sync.Mutex
}

// NewSuite creates an empty suite.
func NewSuite() *Suite {
	return &Suite{}
}

// Add registers a benchmark.
func (s *Suite) Add(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmarks = append(s.benchmarks, Benchmark{Name: name, Func: fn})
}

// Run runs the named benchmark.
func (s *Suite) Run(name string, iterations int) Result {
	s.mu.Lock()
	var (
		b     Benchmark
		found bool
	)
	for _, candidate := range s.benchmarks {
		if candidate.Name == name {
			b, found = candidate, true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return Result{Name: name, Error: fmt.Errorf("benchmark %q not found", name)}
	}
	return run(b, iterations)
}

// RunAll runs every benchmark in registration order.
func (s *Suite) RunAll(iterations int) []Result {
	s.mu.Lock()
	benchmarks := append([]Benchmark(nil), s.benchmarks...)
	s.mu.Unlock()

	results := make([]Result, 0, len(benchmarks))
	for _, b := range benchmarks {
		results = append(results, run(b, iterations))
	}

	s.mu.Lock()
	s.results = results
	s.mu.Unlock()
	return results
}

// Results returns the results of the last RunAll.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// PrintResults writes the results of the last RunAll to w.
func (s *Suite) PrintResults(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Benchmark Results:")
	_, _ = fmt.Fprintln(w, "==================")
	for _, r := range s.Results() {
		_, _ = fmt.Fprintln(w, r.String())
	}
}

func run(b Benchmark, iterations int) Result {
	if iterations < 1 {
		iterations = 1
	}
	runtime.GC()
	before := GetMemoryStats()

	timer := NewTimer(b.Name)
	var err error
	for range iterations {
		if err = b.Func(); err != nil {
			break
		}
	}
	duration := timer.Stop()

	return Result{
		Name:         b.Name,
		Duration:     duration,
		MemoryBefore: before,
		MemoryAfter:  GetMemoryStats(),
		Iterations:   iterations,
		Error:        err,
	}
}

// DefaultSamples are representative inputs per local symbology.
var DefaultSamples = map[symbology.Symbology]string{
	symbology.Code128: "BARCODEGEN-0001",
	symbology.QR:      "https://example.com/item/0001",
	symbology.Aztec:   "AZTEC-0001",
	symbology.PDF417:  "PDF417 SAMPLE 0001",
}

// AddRenderBenchmarks registers one single-request benchmark per sample.
func (s *Suite) AddRenderBenchmarks(pl *render.Pipeline, samples map[symbology.Symbology]string) {
	for _, sym := range symbology.All() {
		text, ok := samples[sym]
		if !ok {
			continue
		}
		req := render.Request{Text: text, Symbology: sym}
		s.Add("render/"+sym.String(), func() error {
			return pl.Process(context.Background(), req).Err
		})
	}
}

// ParallelResult compares sequential and parallel processing of one batch.
type ParallelResult struct {
	Requests   int
	Workers    int
	Sequential Result
	Parallel   Result
	Speedup    float64
}

func (r ParallelResult) String() string {
	return fmt.Sprintf("%d requests: sequential %v, %d workers %v, speedup %.2fx",
		r.Requests, r.Sequential.Duration, r.Workers, r.Parallel.Duration, r.Speedup)
}

// CompareParallel renders requests once with a single worker and once with
// workers, iterations times each.
func CompareParallel(pl *render.Pipeline, reqs []render.Request, workers, iterations int) (ParallelResult, error) {
	if len(reqs) == 0 {
		return ParallelResult{}, errors.New("no requests to benchmark")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batch := func(n int) func() error {
		return func() error {
			for _, res := range pl.ProcessAll(context.Background(), reqs, render.ParallelConfig{MaxWorkers: n}) {
				if res.Err != nil {
					return res.Err
				}
			}
			return nil
		}
	}

	out := ParallelResult{Requests: len(reqs), Workers: workers}
	out.Sequential = run(Benchmark{Name: "sequential", Func: batch(1)}, iterations)
	if out.Sequential.Error != nil {
		return out, out.Sequential.Error
	}
	out.Parallel = run(Benchmark{Name: fmt.Sprintf("parallel-%d", workers), Func: batch(workers)}, iterations)
	if out.Parallel.Error != nil {
		return out, out.Parallel.Error
	}
	if out.Parallel.Duration > 0 {
		out.Speedup = float64(out.Sequential.Duration) / float64(out.Parallel.Duration)
	}
	return out, nil
}

// SampleRequests returns n requests cycling through samples.
func SampleRequests(samples map[symbology.Symbology]string, n int) []render.Request {
	var syms []symbology.Symbology
	for _, sym := range symbology.All() {
		if _, ok := samples[sym]; ok {
			syms = append(syms, sym)
		}
	}
	if len(syms) == 0 {
		return nil
	}
	reqs := make([]render.Request, n)
	for i := range reqs {
		sym := syms[i%len(syms)]
		reqs[i] = render.Request{Text: fmt.Sprintf("%s-%d", samples[sym], i), Symbology: sym}
	}
	return reqs
}
