// Package optim provides the public API for bayne's optimizers.
//
// Optimizers update parameters in place from the gradients accumulated
// during Backward:
//
//	opt, err := optim.New(exp.Optimizer, model.Parameters(), exp.LR)
//	opt.ZeroGrad()
//	// forward, loss, backward ...
//	opt.Step()
package optim

import (
	"github.com/bayne-ml/bayne/internal/nn"
	"github.com/bayne-ml/bayne/internal/optim"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig holds the SGD hyperparameters.
type SGDConfig = optim.SGDConfig

// Adam is the Adam optimizer.
type Adam = optim.Adam

// AdamConfig holds the Adam hyperparameters.
type AdamConfig = optim.AdamConfig

// RMSprop is the RMSprop optimizer.
type RMSprop = optim.RMSprop

// RMSpropConfig holds the RMSprop hyperparameters.
type RMSpropConfig = optim.RMSpropConfig

// New builds the optimizer named in an experiment record.
func New(name string, params []*nn.Parameter, lr float64) (Optimizer, error) {
	return optim.New(name, params, lr)
}

// NewSGD creates an SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// NewAdam creates an Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

// NewRMSprop creates an RMSprop optimizer.
func NewRMSprop(params []*nn.Parameter, config RMSpropConfig) *RMSprop {
	return optim.NewRMSprop(params, config)
}
