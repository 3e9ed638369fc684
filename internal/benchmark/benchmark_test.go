package benchmark

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/MeKo-Tech/barcodegen/internal/generator"
	"github.com/MeKo-Tech/barcodegen/internal/render"
	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline() *render.Pipeline {
	return render.NewPipeline(nil, render.NewRenderer(nil, generator.LocalSet(generator.DefaultOptions()), 2), nil)
}

func TestTimer(t *testing.T) {
	timer := NewTimer("test_timer")
	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Equal(t, duration, timer.Duration())
	assert.Contains(t, timer.String(), "test_timer")
}

func TestSuiteRun(t *testing.T) {
	suite := NewSuite()
	suite.Add("success_test", func() error {
		time.Sleep(1 * time.Millisecond)
		return nil
	})
	suite.Add("error_test", func() error {
		return errors.New("test error")
	})

	result := suite.Run("success_test", 5)
	assert.Equal(t, "success_test", result.Name)
	assert.Equal(t, 5, result.Iterations)
	require.NoError(t, result.Error)
	assert.GreaterOrEqual(t, result.Average(), time.Millisecond)

	result = suite.Run("error_test", 3)
	require.Error(t, result.Error)
	assert.Contains(t, result.String(), "ERROR - test error")

	result = suite.Run("non_existent", 1)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "not found")
}

func TestSuiteRunAll(t *testing.T) {
	suite := NewSuite()
	suite.Add("fast_test", func() error {
		time.Sleep(1 * time.Millisecond)
		return nil
	})
	suite.Add("slow_test", func() error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	results := suite.RunAll(3)
	require.Len(t, results, 2)
	assert.Equal(t, results, suite.Results())
	assert.Equal(t, "fast_test", results[0].Name)
	assert.Equal(t, "slow_test", results[1].Name)
	assert.Greater(t, results[1].Duration, results[0].Duration)

	var buf bytes.Buffer
	suite.PrintResults(&buf)
	assert.Contains(t, buf.String(), "fast_test: 3 iterations")
}

func TestAddRenderBenchmarks(t *testing.T) {
	suite := NewSuite()
	suite.AddRenderBenchmarks(newPipeline(), DefaultSamples)

	results := suite.RunAll(2)
	require.Len(t, results, len(DefaultSamples))
	names := make([]string, len(results))
	for i, r := range results {
		require.NoError(t, r.Error, r.Name)
		names[i] = r.Name
	}
	assert.Equal(t, []string{"render/code128", "render/qr", "render/aztec", "render/pdf417"}, names)
}

func TestAddRenderBenchmarks_ReportsRenderErrors(t *testing.T) {
	suite := NewSuite()
	suite.AddRenderBenchmarks(newPipeline(), map[symbology.Symbology]string{symbology.Code128: "ABCé"})

	result := suite.Run("render/code128", 1)
	assert.Error(t, result.Error)
}

func TestCompareParallel(t *testing.T) {
	reqs := SampleRequests(DefaultSamples, 8)
	require.Len(t, reqs, 8)
	assert.Equal(t, symbology.Code128, reqs[0].Symbology)
	assert.Equal(t, symbology.QR, reqs[1].Symbology)

	res, err := CompareParallel(newPipeline(), reqs, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Requests)
	assert.Equal(t, 2, res.Workers)
	assert.Positive(t, res.Speedup)
	assert.Contains(t, res.String(), "8 requests")

	_, err = CompareParallel(newPipeline(), nil, 2, 1)
	assert.Error(t, err)
}
