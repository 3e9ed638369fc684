package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/MeKo-Tech/barcodegen/internal/benchmark"
	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/render"
)

func main() {
	var (
		iterations = flag.Int("iterations", 20, "Number of iterations per benchmark")
		requests   = flag.Int("requests", 200, "Number of requests in the parallel comparison")
		workers    = flag.Int("workers", runtime.NumCPU(), "Workers in the parallel comparison")
		scale      = flag.Int("scale", render.DefaultScale, "Pixels per module")
		qrBackend  = flag.String("qr-backend", generator.QRBackendSkip2, "QR backend (skip2, boombuler)")
		outputFile = flag.String("output", "", "Output file for CSV results (optional)")
	)
	flag.Parse()

	fmt.Println("barcodegen Render Benchmark")
	fmt.Println("===========================")

	opts := generator.DefaultOptions()
	opts.QRBackend = *qrBackend
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}
	pl := render.NewPipeline(nil, render.NewRenderer(nil, generator.LocalSet(opts), *scale), nil)

	suite := benchmark.NewSuite()
	suite.AddRenderBenchmarks(pl, benchmark.DefaultSamples)
	fmt.Printf("Running benchmarks with %d iterations per test...\n\n", *iterations)
	results := suite.RunAll(*iterations)
	suite.PrintResults(os.Stdout)

	fmt.Println()
	cmp, err := benchmark.CompareParallel(pl, benchmark.SampleRequests(benchmark.DefaultSamples, *requests), *workers, 1)
	if err != nil {
		log.Fatalf("Parallel comparison failed: %v", err)
	}
	fmt.Println(cmp.String())

	if *outputFile != "" {
		if err := saveResultsToFile(*outputFile, results, cmp); err != nil {
			log.Printf("Failed to save results to file: %v", err)
		} else {
			fmt.Printf("Results saved to: %s\n", *outputFile)
		}
	}
}

func saveResultsToFile(filename string, results []benchmark.Result, cmp benchmark.ParallelResult) error {
	file, err := os.Create(filename) //nolint:gosec // G304: output path is chosen by the user
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(file, "Name,Iterations,Avg_ms,Total_ms,Alloc_KB,Error")
	for _, r := range results {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		_, _ = fmt.Fprintf(file, "%s,%d,%.3f,%.3f,%d,%q\n",
			r.Name,
			r.Iterations,
			float64(r.Average().Nanoseconds())/1e6,
			float64(r.Duration.Nanoseconds())/1e6,
			r.AllocatedKB(),
			errText,
		)
	}

	_, _ = fmt.Fprintln(file)
	_, _ = fmt.Fprintln(file, "Requests,Workers,Sequential_ms,Parallel_ms,Speedup")
	_, err = fmt.Fprintf(file, "%d,%d,%.2f,%.2f,%.2f\n",
		cmp.Requests, cmp.Workers,
		float64(cmp.Sequential.Duration.Nanoseconds())/1e6,
		float64(cmp.Parallel.Duration.Nanoseconds())/1e6,
		cmp.Speedup)
	return err
}
