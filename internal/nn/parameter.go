package nn

import "gonum.org/v1/gonum/mat"

// Parameter is a trainable matrix with an accumulated gradient.
//
// Layers expose their weights and biases as Parameters; optimizers read
// Grad and update Data in place. Gradients accumulate across Backward
// calls until ZeroGrad.
type Parameter struct {
	name string
	data *mat.Dense
	grad *mat.Dense
}

// NewParameter creates a trainable parameter.
//
// The name should be unique within a model (e.g. "fc1.weight") so that
// checkpoints can restore it.
func NewParameter(name string, data *mat.Dense) *Parameter {
	return &Parameter{name: name, data: data}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Data returns the parameter matrix.
func (p *Parameter) Data() *mat.Dense { return p.data }

// Grad returns the accumulated gradient, or nil if none has been added
// since the last ZeroGrad.
func (p *Parameter) Grad() *mat.Dense { return p.grad }

// AddGrad accumulates g into the parameter gradient.
func (p *Parameter) AddGrad(g mat.Matrix) {
	if p.grad == nil {
		r, c := p.data.Dims()
		p.grad = mat.NewDense(r, c, nil)
	}
	p.grad.Add(p.grad, g)
}

// AddGradAt accumulates a single gradient entry.
func (p *Parameter) AddGradAt(i, j int, v float64) {
	if p.grad == nil {
		r, c := p.data.Dims()
		p.grad = mat.NewDense(r, c, nil)
	}
	p.grad.Set(i, j, p.grad.At(i, j)+v)
}

// ZeroGrad clears the accumulated gradient.
//
// Call before each training iteration to avoid carrying gradients over
// from the previous one.
func (p *Parameter) ZeroGrad() { p.grad = nil }
