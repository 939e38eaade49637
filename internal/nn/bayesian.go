package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/config"
)

// BayesianLinear is a fully connected layer with a factorized Gaussian
// posterior over its weights and biases.
//
// Each weight w is parameterized as w = mu + softplus(rho) * eps with
// eps ~ N(0,1), sampled fresh on every Forward (the reparameterization
// trick). Gradients flow to mu and rho through the sampled weights; the
// variational divergence to the prior is added separately with ApplyKL
// (closed-form KL, Bayes-by-Backprop) or ApplyMMD (kernel MMD between the
// sampled weights and fresh prior draws).
type BayesianLinear struct {
	in, out int

	weightMu  *Parameter // [out, in]
	weightRho *Parameter // [out, in]
	biasMu    *Parameter // [1, out]
	biasRho   *Parameter // [1, out]

	prior     *config.DistSpec
	samplePri func(*rand.Rand) float64
	rng       *rand.Rand

	// last Forward's sample
	input  *mat.Dense
	weight *mat.Dense
	bias   *mat.Dense
	epsW   *mat.Dense
	epsB   *mat.Dense
}

// NewBayesianLinear creates a variational layer. Posterior means use
// Xavier initialization, rho values are drawn from rhoInit.
func NewBayesianLinear(name string, in, out int, rhoInit, prior *config.DistSpec, rng *rand.Rand) (*BayesianLinear, error) {
	weightRho, err := FromDist(rng, rhoInit, out, in)
	if err != nil {
		return nil, fmt.Errorf("rho_init: %w", err)
	}
	biasRho, err := FromDist(rng, rhoInit, 1, out)
	if err != nil {
		return nil, fmt.Errorf("rho_init: %w", err)
	}
	samplePri, err := Sampler(prior)
	if err != nil {
		return nil, fmt.Errorf("prior: %w", err)
	}

	return &BayesianLinear{
		in:        in,
		out:       out,
		weightMu:  NewParameter(name+".weight_mu", Xavier(rng, in, out, out, in)),
		weightRho: NewParameter(name+".weight_rho", weightRho),
		biasMu:    NewParameter(name+".bias_mu", mat.NewDense(1, out, nil)),
		biasRho:   NewParameter(name+".bias_rho", biasRho),
		prior:     prior,
		samplePri: samplePri,
		rng:       rng,
	}, nil
}

// InFeatures returns the input width.
func (b *BayesianLinear) InFeatures() int { return b.in }

// OutFeatures returns the output width.
func (b *BayesianLinear) OutFeatures() int { return b.out }

// Forward samples weights from the posterior and applies the affine map.
func (b *BayesianLinear) Forward(x *mat.Dense) *mat.Dense {
	_, c := x.Dims()
	if c != b.in {
		panic(fmt.Sprintf("BayesianLinear.Forward: expected input with %d features, got %d", b.in, c))
	}
	b.input = x
	b.weight, b.epsW = b.sample(b.weightMu.Data(), b.weightRho.Data())
	b.bias, b.epsB = b.sample(b.biasMu.Data(), b.biasRho.Data())
	return affine(x, b.weight, b.bias)
}

func (b *BayesianLinear) sample(mu, rho *mat.Dense) (w, eps *mat.Dense) {
	r, c := mu.Dims()
	w = mat.NewDense(r, c, nil)
	eps = mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			e := b.rng.NormFloat64()
			eps.Set(i, j, e)
			w.Set(i, j, mu.At(i, j)+softplus(rho.At(i, j))*e)
		}
	}
	return w, eps
}

// Backward accumulates posterior gradients through the sampled weights
// and returns the input gradient.
//
// With w = mu + softplus(rho)*eps: dmu = dw, drho = dw * eps * sigmoid(rho).
func (b *BayesianLinear) Backward(grad *mat.Dense) *mat.Dense {
	dx, dw, db := affineBackward(grad, b.input, b.weight)
	b.accumulate(dw, b.weightMu, b.weightRho, b.epsW)
	b.accumulate(db, b.biasMu, b.biasRho, b.epsB)
	return dx
}

func (b *BayesianLinear) accumulate(dw *mat.Dense, mu, rho *Parameter, eps *mat.Dense) {
	mu.AddGrad(dw)
	r, c := dw.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rho.AddGradAt(i, j, dw.At(i, j)*eps.At(i, j)*sigmoid(rho.Data().At(i, j)))
		}
	}
}

// Parameters returns the posterior parameters.
func (b *BayesianLinear) Parameters() []*Parameter {
	return []*Parameter{b.weightMu, b.weightRho, b.biasMu, b.biasRho}
}

// KL returns the closed-form KL divergence from the posterior to the
// Gaussian prior, summed over all weights and biases.
//
// KL requires a gaussian prior; the model builder enforces this for
// Bayes-by-Backprop networks.
func (b *BayesianLinear) KL() float64 {
	return b.klTerm(b.weightMu, b.weightRho, nil) + b.klTerm(b.biasMu, b.biasRho, nil)
}

// ApplyKL accumulates scale * dKL/dtheta into the posterior gradients and
// returns the (unscaled) KL value.
func (b *BayesianLinear) ApplyKL(scale float64) float64 {
	return b.klTerm(b.weightMu, b.weightRho, &scale) + b.klTerm(b.biasMu, b.biasRho, &scale)
}

// klTerm computes the summed KL for one mu/rho pair; when scale is
// non-nil the scaled gradients are accumulated as a side effect.
func (b *BayesianLinear) klTerm(mu, rho *Parameter, scale *float64) float64 {
	pm, ps := b.prior.Mu, b.prior.Sigma
	var kl float64

	r, c := mu.Data().Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m := mu.Data().At(i, j)
			rh := rho.Data().At(i, j)
			s := softplus(rh)

			kl += math.Log(ps/s) + (s*s+(m-pm)*(m-pm))/(2*ps*ps) - 0.5

			if scale != nil {
				dmu := (m - pm) / (ps * ps)
				dsigma := -1/s + s/(ps*ps)
				mu.AddGradAt(i, j, *scale*dmu)
				rho.AddGradAt(i, j, *scale*dsigma*sigmoid(rh))
			}
		}
	}
	return kl
}

// ApplyMMD estimates the kernel MMD between the weights sampled by the
// last Forward and an equal number of fresh prior draws, accumulates
// scale * dMMD/dtheta into the posterior gradients, and returns the
// (unscaled) MMD value.
//
// Must be called after Forward. The kernel bandwidth is treated as a
// constant in the gradient.
func (b *BayesianLinear) ApplyMMD(biased bool, scale float64) float64 {
	if b.weight == nil {
		panic("BayesianLinear.ApplyMMD: no sampled weights, call Forward first")
	}

	n := b.out*b.in + b.out
	x := make([]float64, 0, n)
	x = append(x, flatten(b.weight)...)
	x = append(x, flatten(b.bias)...)

	y := make([]float64, n)
	for i := range y {
		y[i] = b.samplePri(b.rng)
	}

	v, gradX := RBFMMD(x, y, biased)

	// Chain through w = mu + softplus(rho)*eps for weights, then biases.
	k := 0
	k = b.chainSampleGrad(gradX, k, b.weightMu, b.weightRho, b.epsW, scale)
	b.chainSampleGrad(gradX, k, b.biasMu, b.biasRho, b.epsB, scale)
	return v
}

func (b *BayesianLinear) chainSampleGrad(gradX []float64, offset int, mu, rho *Parameter, eps *mat.Dense, scale float64) int {
	r, c := mu.Data().Dims()
	k := offset
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := gradX[k]
			mu.AddGradAt(i, j, scale*g)
			rho.AddGradAt(i, j, scale*g*eps.At(i, j)*sigmoid(rho.Data().At(i, j)))
			k++
		}
	}
	return k
}

// SampledWeights returns the weights drawn by the last Forward, or nil.
func (b *BayesianLinear) SampledWeights() *mat.Dense { return b.weight }

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)[:c]...)
	}
	return out
}
