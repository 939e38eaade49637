package dataset_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayne-ml/bayne/internal/config"
	"github.com/bayne-ml/bayne/internal/dataset"
)

func testExperiment() *config.Experiment {
	return &config.Experiment{
		Dataset:          dataset.Toy,
		Noise:            0.2,
		Variance:         1.0,
		Range:            [2]float64{-1, 1},
		RegressionPoints: 11,
		TrainSamples:     400,
		TestSamples:      100,
	}
}

func TestGenerate_SizesAndRange(t *testing.T) {
	exp := testExperiment()
	train, test, err := dataset.Generate(exp, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, exp.TrainSamples, train.Len())
	assert.Equal(t, exp.TestSamples, test.Len())
	for _, x := range train.X {
		assert.GreaterOrEqual(t, x, exp.Range[0])
		assert.LessOrEqual(t, x, exp.Range[1])
	}
}

func TestGenerate_DeterministicPerSeed(t *testing.T) {
	exp := testExperiment()
	a, _, err := dataset.Generate(exp, rand.New(rand.NewSource(12)))
	require.NoError(t, err)
	b, _, err := dataset.Generate(exp, rand.New(rand.NewSource(12)))
	require.NoError(t, err)
	c, _, err := dataset.Generate(exp, rand.New(rand.NewSource(33)))
	require.NoError(t, err)

	assert.Equal(t, a.X, b.X)
	assert.Equal(t, a.Y, b.Y)
	assert.NotEqual(t, a.X, c.X)
}

func TestGenerate_UnknownDataset(t *testing.T) {
	exp := testExperiment()
	exp.Dataset = "spiral"
	_, _, err := dataset.Generate(exp, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestGrid(t *testing.T) {
	exp := testExperiment()
	grid := dataset.Grid(exp)
	require.Len(t, grid, 11)
	assert.Equal(t, -1.0, grid[0])
	assert.Equal(t, 1.0, grid[10])
	assert.InDelta(t, 0.0, grid[5], 1e-12)
}

func TestNoiseScale_Heteroscedastic(t *testing.T) {
	exp := testExperiment()
	// Noise grows away from the origin.
	assert.Greater(t, dataset.NoiseScale(exp, 1.0), dataset.NoiseScale(exp, 0.0))
	assert.Equal(t, dataset.NoiseScale(exp, -1.0), dataset.NoiseScale(exp, 1.0))
	assert.InDelta(t, exp.Noise, dataset.NoiseScale(exp, 0.0), 1e-12)
}

func TestNoiseScale_ObservedVariance(t *testing.T) {
	// Empirical residual spread at the edge of the range should exceed the
	// spread at the center by roughly the sigma ratio.
	exp := testExperiment()
	exp.TrainSamples = 20000
	train, _, err := dataset.Generate(exp, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	var center, edge []float64
	for i, x := range train.X {
		truth, err := dataset.Truth(exp, x)
		require.NoError(t, err)
		res := train.Y[i] - truth
		switch {
		case math.Abs(x) < 0.1:
			center = append(center, res)
		case math.Abs(x) > 0.9:
			edge = append(edge, res)
		}
	}
	require.NotEmpty(t, center)
	require.NotEmpty(t, edge)

	assert.Greater(t, stddev(edge), 1.5*stddev(center))
}

func TestBatches(t *testing.T) {
	s := &dataset.Set{
		X: []float64{1, 2, 3, 4, 5},
		Y: []float64{10, 20, 30, 40, 50},
	}

	batches := s.Batches(2, rand.New(rand.NewSource(3)))
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].X, 2)
	assert.Len(t, batches[2].X, 1)

	// Every sample appears exactly once, pairing preserved.
	seen := map[float64]float64{}
	for _, b := range batches {
		for i := range b.X {
			seen[b.X[i]] = b.Y[i]
		}
	}
	assert.Equal(t, map[float64]float64{1: 10, 2: 20, 3: 30, 4: 40, 5: 50}, seen)

	// Zero size means one full batch.
	full := s.Batches(0, nil)
	require.Len(t, full, 1)
	assert.Equal(t, s.X, full[0].X)
}

func stddev(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var v float64
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return math.Sqrt(v / float64(len(xs)))
}
