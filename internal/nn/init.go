package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/config"
)

// Xavier returns a rows x cols matrix initialized with the Glorot uniform
// distribution U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
//
// This keeps the variance of activations roughly constant across layers.
func Xavier(rng *rand.Rand, fanIn, fanOut, rows, cols int) *mat.Dense {
	bound := xavierBound(fanIn, fanOut)
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
	return mat.NewDense(rows, cols, data)
}

func xavierBound(fanIn, fanOut int) float64 {
	return math.Sqrt(6.0 / float64(fanIn+fanOut))
}

// FromDist returns a rows x cols matrix with entries drawn from the
// distribution spec (uniform, constant or gaussian).
func FromDist(rng *rand.Rand, spec *config.DistSpec, rows, cols int) (*mat.Dense, error) {
	draw, err := Sampler(spec)
	if err != nil {
		return nil, err
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = draw(rng)
	}
	return mat.NewDense(rows, cols, data), nil
}

// Sampler returns a scalar draw function for the distribution spec.
func Sampler(spec *config.DistSpec) (func(*rand.Rand) float64, error) {
	switch spec.Type {
	case config.DistUniform:
		a, b := spec.A, spec.B
		return func(rng *rand.Rand) float64 { return a + rng.Float64()*(b-a) }, nil
	case config.DistConstant:
		c := spec.C
		return func(*rand.Rand) float64 { return c }, nil
	case config.DistGaussian:
		mu, sigma := spec.Mu, spec.Sigma
		return func(rng *rand.Rand) float64 { return mu + sigma*rng.NormFloat64() }, nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
