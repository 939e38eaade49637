// Package dataset generates the synthetic heteroscedastic regression data
// the experiments train on.
//
// Inputs are drawn uniformly from the configured range and targets are
// y = f(x) + sigma(x)*eps with eps ~ N(0,1). The observation noise scale
// sigma grows with |x|, so the task exercises uncertainty-aware models:
// a well-calibrated network should report wider predictive intervals near
// the edges of the range.
package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/bayne-ml/bayne/internal/config"
)

// Dataset name tags accepted in the dataset field.
const (
	Toy   = "toy"   // x + 0.3 sin(2 pi x) + 0.3 sin(4 pi x)
	Cubic = "cubic" // x^3
)

// Set is a collection of scalar regression samples.
type Set struct {
	X []float64
	Y []float64
}

// Len returns the number of samples.
func (s *Set) Len() int { return len(s.X) }

// Batch is one minibatch view over a Set.
type Batch struct {
	X []float64
	Y []float64
}

// Batches splits the set into shuffled minibatches of at most size samples.
// The last batch may be smaller. A nil rng disables shuffling.
func (s *Set) Batches(size int, rng *rand.Rand) []Batch {
	n := s.Len()
	if size <= 0 || size > n {
		size = n
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	var batches []Batch
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		b := Batch{X: make([]float64, end-start), Y: make([]float64, end-start)}
		for i, j := range idx[start:end] {
			b.X[i] = s.X[j]
			b.Y[i] = s.Y[j]
		}
		batches = append(batches, b)
	}
	return batches
}

// Generate produces the train and test sets for an experiment record.
// Sampling is fully determined by rng, so runs with the same seed see the
// same data.
func Generate(exp *config.Experiment, rng *rand.Rand) (train, test *Set, err error) {
	if _, err := truthFunc(exp.Dataset); err != nil {
		return nil, nil, err
	}
	train = sample(exp, exp.TrainSamples, rng)
	test = sample(exp, exp.TestSamples, rng)
	return train, test, nil
}

// Grid returns regression_points evenly spaced inputs over the
// experiment's range, used for predictive-curve evaluation.
func Grid(exp *config.Experiment) []float64 {
	grid := make([]float64, exp.RegressionPoints)
	if exp.RegressionPoints == 1 {
		grid[0] = exp.Range[0]
		return grid
	}
	return floats.Span(grid, exp.Range[0], exp.Range[1])
}

// Truth evaluates the noiseless target function of the experiment's
// dataset at x.
func Truth(exp *config.Experiment, x float64) (float64, error) {
	f, err := truthFunc(exp.Dataset)
	if err != nil {
		return 0, err
	}
	return f(x), nil
}

// NoiseScale returns the heteroscedastic observation noise sigma(x).
func NoiseScale(exp *config.Experiment, x float64) float64 {
	switch exp.Dataset {
	case Cubic:
		return exp.Noise * (1 + exp.Variance*math.Abs(x))
	default:
		return exp.Noise * (1 + exp.Variance*x*x)
	}
}

func sample(exp *config.Experiment, n int, rng *rand.Rand) *Set {
	f, _ := truthFunc(exp.Dataset)
	lo, hi := exp.Range[0], exp.Range[1]

	s := &Set{X: make([]float64, n), Y: make([]float64, n)}
	for i := 0; i < n; i++ {
		x := lo + rng.Float64()*(hi-lo)
		s.X[i] = x
		s.Y[i] = f(x) + NoiseScale(exp, x)*rng.NormFloat64()
	}
	return s
}

func truthFunc(name string) (func(float64) float64, error) {
	switch name {
	case Toy, "":
		return func(x float64) float64 {
			return x + 0.3*math.Sin(2*math.Pi*x) + 0.3*math.Sin(4*math.Pi*x)
		}, nil
	case Cubic:
		return func(x float64) float64 { return x * x * x }, nil
	default:
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
}
