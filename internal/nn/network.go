package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/config"
)

// Regression is a scalar regression network built from an experiment
// record's topology and network type.
//
// The network maps a [batch, 1] input to a [batch, 1] predictive mean and
// carries a learned homoscedastic noise scale sigma = exp(logNoise) used
// by the Gaussian likelihood. Variants:
//
//   - ann:     point-estimate Linear layers
//   - dropout: Linear layers with MC dropout after each activation
//   - bbb:     BayesianLinear layers, KL divergence to a gaussian prior
//   - mmd:     BayesianLinear layers, kernel MMD divergence to the prior
type Regression struct {
	seq      *Sequential
	logNoise *Parameter

	netType  string
	bayesian []*BayesianLinear
	dropouts []*Dropout
	biased   bool // mmd estimator variant
}

// NewRegression builds the network for an experiment record. All weight
// initialization and sampling uses rng.
func NewRegression(exp *config.Experiment, rng *rand.Rand) (*Regression, error) {
	variational := exp.NetworkType == config.NetworkBBB || exp.NetworkType == config.NetworkMMD
	if exp.NetworkType == config.NetworkBBB && exp.Prior.Type != config.DistGaussian {
		return nil, fmt.Errorf("bbb networks require a gaussian prior, got %q", exp.Prior.Type)
	}

	r := &Regression{
		seq:      NewSequential(),
		logNoise: NewParameter("noise", mat.NewDense(1, 1, nil)),
		netType:  exp.NetworkType,
		biased:   exp.NetworkParameters.Biased,
	}

	prev := 1
	layerIdx := 0
	addLayer := func(width int) error {
		layerIdx++
		name := fmt.Sprintf("fc%d", layerIdx)
		if variational {
			bl, err := NewBayesianLinear(name, prev, width, exp.RhoInit, exp.Prior, rng)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			r.bayesian = append(r.bayesian, bl)
			r.seq.Append(bl)
		} else {
			r.seq.Append(NewLinear(name, prev, width, rng))
		}
		prev = width
		return nil
	}

	for i, l := range exp.Topology {
		if l.IsWidth() {
			if err := addLayer(l.Width); err != nil {
				return nil, err
			}
			continue
		}
		act, err := NewActivation(l.Activation)
		if err != nil {
			return nil, fmt.Errorf("topology[%d]: %w", i, err)
		}
		r.seq.Append(act)
		if exp.NetworkType == config.NetworkDropout {
			d := NewDropout(exp.NetworkParameters.Drop, rng)
			r.dropouts = append(r.dropouts, d)
			r.seq.Append(d)
		}
	}

	// Output head to a single regression target.
	if err := addLayer(1); err != nil {
		return nil, err
	}

	return r, nil
}

// NetworkType returns the record's network type tag.
func (r *Regression) NetworkType() string { return r.netType }

// Forward computes the predictive means for a [batch, 1] input.
//
// For dropout and variational networks every call is stochastic; repeated
// calls sample the predictive distribution.
func (r *Regression) Forward(x *mat.Dense) *mat.Dense {
	return r.seq.Forward(x)
}

// Backward propagates the output gradient through all layers.
func (r *Regression) Backward(grad *mat.Dense) *mat.Dense {
	return r.seq.Backward(grad)
}

// Parameters returns all trainable parameters including the noise scale.
func (r *Regression) Parameters() []*Parameter {
	return append(r.seq.Parameters(), r.logNoise)
}

// NumParameters returns the total number of scalar trainable values.
func (r *Regression) NumParameters() int {
	var n int
	for _, p := range r.Parameters() {
		rows, cols := p.Data().Dims()
		n += rows * cols
	}
	return n
}

// Sigma returns the learned homoscedastic noise scale exp(logNoise).
func (r *Regression) Sigma() float64 {
	return math.Exp(r.logNoise.Data().At(0, 0))
}

// AddNoiseGrad accumulates a gradient on logNoise.
func (r *Regression) AddNoiseGrad(dLogSigma float64) {
	r.logNoise.AddGradAt(0, 0, dLogSigma)
}

// Divergence adds the network's variational penalty gradients, scaled by
// scale, and returns the summed penalty value. It is zero for ann and
// dropout networks. Must be called after Forward within the same step.
func (r *Regression) Divergence(scale float64) float64 {
	var v float64
	switch r.netType {
	case config.NetworkBBB:
		for _, bl := range r.bayesian {
			v += bl.ApplyKL(scale)
		}
	case config.NetworkMMD:
		for _, bl := range r.bayesian {
			v += bl.ApplyMMD(r.biased, scale)
		}
	}
	return v
}

// SetDropoutActive toggles MC dropout; active dropout during evaluation
// is what makes repeated forward passes sample the predictive
// distribution.
func (r *Regression) SetDropoutActive(active bool) {
	for _, d := range r.dropouts {
		d.SetActive(active)
	}
}

// Sample runs n stochastic forward passes over the inputs and returns the
// mean and standard deviation of the sampled predictions per input.
//
// The spread reflects model (epistemic) uncertainty only; the aleatoric
// noise scale is reported separately by Sigma.
func (r *Regression) Sample(xs []float64, n int) (mean, std []float64) {
	if n < 1 {
		n = 1
	}
	x := InputMatrix(xs)

	sum := make([]float64, len(xs))
	sumSq := make([]float64, len(xs))
	for s := 0; s < n; s++ {
		out := r.Forward(x)
		for i := range xs {
			v := out.At(i, 0)
			sum[i] += v
			sumSq[i] += v * v
		}
	}

	mean = make([]float64, len(xs))
	std = make([]float64, len(xs))
	for i := range xs {
		m := sum[i] / float64(n)
		mean[i] = m
		if n > 1 {
			variance := sumSq[i]/float64(n) - m*m
			if variance > 0 {
				std[i] = math.Sqrt(variance)
			}
		}
	}
	return mean, std
}

// InputMatrix packs scalar inputs into the [batch, 1] matrix layers expect.
func InputMatrix(xs []float64) *mat.Dense {
	x := mat.NewDense(len(xs), 1, nil)
	for i, v := range xs {
		x.Set(i, 0, v)
	}
	return x
}
