package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/nn"
)

// RMSprop implements the RMSprop optimizer (Tieleman & Hinton).
//
// Update rule:
//
//	sq_t = alpha*sq_{t-1} + (1-alpha)*grad^2
//	param -= lr * grad / (sqrt(sq_t) + eps)
//
// With momentum the normalized gradient feeds a velocity buffer instead:
//
//	buf = momentum*buf + grad/(sqrt(sq_t) + eps)
//	param -= lr * buf
type RMSprop struct {
	params   []*nn.Parameter
	lr       float64
	alpha    float64
	eps      float64
	momentum float64
	sq       map[*nn.Parameter]*mat.Dense
	buf      map[*nn.Parameter]*mat.Dense
}

// RMSpropConfig holds the RMSprop hyperparameters.
type RMSpropConfig struct {
	LR       float64 // learning rate (default 0.01)
	Alpha    float64 // squared-gradient smoothing constant (default 0.99)
	Eps      float64 // numerical stability term (default 1e-8)
	Momentum float64 // momentum factor (default 0)
}

// NewRMSprop creates an RMSprop optimizer.
func NewRMSprop(params []*nn.Parameter, config RMSpropConfig) *RMSprop {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Alpha == 0 {
		config.Alpha = 0.99
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &RMSprop{
		params:   params,
		lr:       config.LR,
		alpha:    config.Alpha,
		eps:      config.Eps,
		momentum: config.Momentum,
		sq:       make(map[*nn.Parameter]*mat.Dense),
		buf:      make(map[*nn.Parameter]*mat.Dense),
	}
}

// Step applies one RMSprop update.
func (r *RMSprop) Step() {
	for _, p := range r.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}

		sq, ok := r.sq[p]
		if !ok {
			sq = zerosLike(p)
			r.sq[p] = sq
		}

		rows, cols := grad.Dims()
		data := p.Data()

		var buf *mat.Dense
		if r.momentum > 0 {
			buf, ok = r.buf[p]
			if !ok {
				buf = zerosLike(p)
				r.buf[p] = buf
			}
		}

		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := grad.At(i, j)
				s := r.alpha*sq.At(i, j) + (1-r.alpha)*g*g
				sq.Set(i, j, s)

				step := g / (math.Sqrt(s) + r.eps)
				if buf != nil {
					step += r.momentum * buf.At(i, j)
					buf.Set(i, j, step)
				}
				data.Set(i, j, data.At(i, j)-r.lr*step)
			}
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (r *RMSprop) ZeroGrad() { zeroGrads(r.params) }

// GetLR returns the learning rate.
func (r *RMSprop) GetLR() float64 { return r.lr }
