// Package nn implements the neural network building blocks for bayne's
// regression experiments.
//
// The package provides:
//   - Module interface: forward/backward building block
//   - Parameter: trainable matrices with accumulated gradients
//   - Linear: fully connected layer
//   - BayesianLinear: variational layer with a Gaussian weight posterior
//   - Activations: ReLU, Sigmoid, Tanh
//   - Dropout: inverted dropout, kept active for MC sampling
//   - Regression: topology-driven model with a learned noise scale
//   - Losses: Gaussian negative log likelihood, MSE, RBF-kernel MMD
//
// Design inspired by PyTorch's nn.Module; gradients are layer-local and
// closed form rather than tape-based.
package nn

import "gonum.org/v1/gonum/mat"

// Module is the base interface for all network components.
//
// Forward consumes a [batch, features] matrix and produces the module
// output. Backward consumes the gradient of the loss with respect to that
// output, accumulates parameter gradients, and returns the gradient with
// respect to the input. Backward must be called after the Forward whose
// intermediate state it relies on.
type Module interface {
	Forward(x *mat.Dense) *mat.Dense
	Backward(grad *mat.Dense) *mat.Dense

	// Parameters returns all trainable parameters of the module.
	// Modules without parameters return nil.
	Parameters() []*Parameter
}

// Sequential chains modules, feeding each output into the next module.
type Sequential struct {
	modules []Module
}

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Append adds a module at the end of the chain.
func (s *Sequential) Append(m Module) { s.modules = append(s.modules, m) }

// Modules returns the chained modules in order.
func (s *Sequential) Modules() []Module { return s.modules }

// Forward runs the modules in order.
func (s *Sequential) Forward(x *mat.Dense) *mat.Dense {
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Backward runs the modules in reverse order.
func (s *Sequential) Backward(grad *mat.Dense) *mat.Dense {
	for i := len(s.modules) - 1; i >= 0; i-- {
		grad = s.modules[i].Backward(grad)
	}
	return grad
}

// Parameters returns the parameters of all chained modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}
