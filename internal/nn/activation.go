package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU struct {
	input *mat.Dense
}

// NewReLU creates a ReLU activation module.
func NewReLU() *ReLU { return &ReLU{} }

// Forward applies the activation.
func (r *ReLU) Forward(x *mat.Dense) *mat.Dense {
	r.input = x
	out := &mat.Dense{}
	out.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, x)
	return out
}

// Backward masks the gradient where the input was non-positive.
func (r *ReLU) Backward(grad *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Apply(func(i, j int, v float64) float64 {
		if r.input.At(i, j) > 0 {
			return v
		}
		return 0
	}, grad)
	return out
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter { return nil }

// Sigmoid applies f(x) = 1 / (1 + exp(-x)) element-wise.
type Sigmoid struct {
	output *mat.Dense
}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

// Forward applies the activation.
func (s *Sigmoid) Forward(x *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, x)
	s.output = out
	return out
}

// Backward uses f'(x) = f(x)(1 - f(x)) from the cached output.
func (s *Sigmoid) Backward(grad *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Apply(func(i, j int, v float64) float64 {
		y := s.output.At(i, j)
		return v * y * (1 - y)
	}, grad)
	return out
}

// Parameters returns nil.
func (s *Sigmoid) Parameters() []*Parameter { return nil }

// Tanh applies the hyperbolic tangent element-wise.
type Tanh struct {
	output *mat.Dense
}

// NewTanh creates a Tanh activation module.
func NewTanh() *Tanh { return &Tanh{} }

// Forward applies the activation.
func (t *Tanh) Forward(x *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, x)
	t.output = out
	return out
}

// Backward uses f'(x) = 1 - f(x)^2 from the cached output.
func (t *Tanh) Backward(grad *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Apply(func(i, j int, v float64) float64 {
		y := t.output.At(i, j)
		return v * (1 - y*y)
	}, grad)
	return out
}

// Parameters returns nil.
func (t *Tanh) Parameters() []*Parameter { return nil }

// NewActivation returns the activation module for a topology name.
func NewActivation(name string) (Module, error) {
	switch name {
	case "relu":
		return NewReLU(), nil
	case "sigmoid":
		return NewSigmoid(), nil
	case "tanh":
		return NewTanh(), nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// softplus is the inverse of the rho parameterization: sigma = log(1+e^rho).
func softplus(x float64) float64 {
	// Stable for large |x|.
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}
