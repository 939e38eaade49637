// Package optim implements the optimization algorithms used to train the
// regression networks: SGD with momentum, Adam and RMSprop.
//
// Optimizers update parameters in place from the gradients the layers
// accumulated during Backward.
package optim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to all parameters from their accumulated
	// gradients. Parameters without a gradient are skipped.
	Step()

	// ZeroGrad clears all parameter gradients. Call before each
	// backward pass to prevent accumulation across iterations.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// New builds the optimizer named in an experiment record.
func New(name string, params []*nn.Parameter, lr float64) (Optimizer, error) {
	switch name {
	case "sgd":
		return NewSGD(params, SGDConfig{LR: lr}), nil
	case "adam":
		return NewAdam(params, AdamConfig{LR: lr}), nil
	case "rmsprop":
		return NewRMSprop(params, RMSpropConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

func zeroGrads(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

func zerosLike(p *nn.Parameter) *mat.Dense {
	r, c := p.Data().Dims()
	return mat.NewDense(r, c, nil)
}
