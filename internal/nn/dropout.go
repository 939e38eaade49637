package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dropout zeroes each activation with probability p and scales the
// survivors by 1/(1-p) (inverted dropout).
//
// In an MC-dropout network the layer stays active during evaluation:
// repeated stochastic forward passes give samples from the approximate
// predictive distribution. SetActive(false) turns the layer into an
// identity for deterministic inference.
type Dropout struct {
	p      float64
	rng    *rand.Rand
	active bool
	mask   *mat.Dense
}

// NewDropout creates a Dropout module with drop probability p in [0, 1).
func NewDropout(p float64, rng *rand.Rand) *Dropout {
	return &Dropout{p: p, rng: rng, active: true}
}

// SetActive toggles the stochastic behavior.
func (d *Dropout) SetActive(active bool) { d.active = active }

// Forward samples a fresh mask and applies it.
func (d *Dropout) Forward(x *mat.Dense) *mat.Dense {
	if !d.active || d.p == 0 {
		d.mask = nil
		return x
	}
	r, c := x.Dims()
	scale := 1 / (1 - d.p)

	d.mask = mat.NewDense(r, c, nil)
	d.mask.Apply(func(_, _ int, _ float64) float64 {
		if d.rng.Float64() < d.p {
			return 0
		}
		return scale
	}, d.mask)

	out := mat.NewDense(r, c, nil)
	out.MulElem(x, d.mask)
	return out
}

// Backward applies the mask sampled by the last Forward.
func (d *Dropout) Backward(grad *mat.Dense) *mat.Dense {
	if d.mask == nil {
		return grad
	}
	out := &mat.Dense{}
	out.MulElem(grad, d.mask)
	return out
}

// Parameters returns nil.
func (d *Dropout) Parameters() []*Parameter { return nil }
