package optim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/nn"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Without momentum: param -= lr * grad.
// With momentum: velocity = momentum*velocity + grad; param -= lr * velocity.
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities map[*nn.Parameter]*mat.Dense
}

// SGDConfig holds the SGD hyperparameters.
type SGDConfig struct {
	LR       float64 // learning rate (default 0.01)
	Momentum float64 // momentum factor in [0, 1) (default 0)
}

// NewSGD creates an SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter]*mat.Dense),
	}
}

// Step applies one SGD update.
func (s *SGD) Step() {
	for _, p := range s.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}

		update := grad
		if s.momentum > 0 {
			v, ok := s.velocities[p]
			if !ok {
				v = zerosLike(p)
				s.velocities[p] = v
			}
			v.Scale(s.momentum, v)
			v.Add(v, grad)
			update = v
		}

		var scaled mat.Dense
		scaled.Scale(s.lr, update)
		p.Data().Sub(p.Data(), &scaled)
	}
}

// ZeroGrad clears all parameter gradients.
func (s *SGD) ZeroGrad() { zeroGrads(s.params) }

// GetLR returns the learning rate.
func (s *SGD) GetLR() float64 { return s.lr }
