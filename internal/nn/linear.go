package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear implements a fully connected layer: y = x @ W.T + b.
//
//   - x is the input with shape [batch, in]
//   - W is the weight matrix with shape [out, in]
//   - b is the bias row vector with shape [1, out]
//
// Weights use Xavier initialization, biases start at zero.
type Linear struct {
	in, out int
	weight  *Parameter // [out, in]
	bias    *Parameter // [1, out]

	input *mat.Dense // cached for Backward
}

// NewLinear creates a Linear layer. The name prefixes the parameter names
// ("<name>.weight", "<name>.bias").
func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	return &Linear{
		in:     in,
		out:    out,
		weight: NewParameter(name+".weight", Xavier(rng, in, out, out, in)),
		bias:   NewParameter(name+".bias", mat.NewDense(1, out, nil)),
	}
}

// InFeatures returns the input width.
func (l *Linear) InFeatures() int { return l.in }

// OutFeatures returns the output width.
func (l *Linear) OutFeatures() int { return l.out }

// Forward computes y = x @ W.T + b for a [batch, in] input.
func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	_, c := x.Dims()
	if c != l.in {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.in, c))
	}
	l.input = x
	return affine(x, l.weight.Data(), l.bias.Data())
}

// Backward accumulates dW and db and returns the input gradient.
func (l *Linear) Backward(grad *mat.Dense) *mat.Dense {
	dx, dw, db := affineBackward(grad, l.input, l.weight.Data())
	l.weight.AddGrad(dw)
	l.bias.AddGrad(db)
	return dx
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// affine computes x @ W.T + b with b broadcast over rows.
func affine(x *mat.Dense, w, b *mat.Dense) *mat.Dense {
	batch, _ := x.Dims()
	out, _ := w.Dims()

	y := mat.NewDense(batch, out, nil)
	y.Mul(x, w.T())
	for i := 0; i < batch; i++ {
		for j := 0; j < out; j++ {
			y.Set(i, j, y.At(i, j)+b.At(0, j))
		}
	}
	return y
}

// affineBackward returns the gradients of x @ W.T + b:
// dx = grad @ W, dW = grad.T @ x, db = column sums of grad.
func affineBackward(grad, x, w *mat.Dense) (dx, dw, db *mat.Dense) {
	batch, out := grad.Dims()
	_, in := x.Dims()

	dx = mat.NewDense(batch, in, nil)
	dx.Mul(grad, w)

	dw = mat.NewDense(out, in, nil)
	dw.Mul(grad.T(), x)

	db = mat.NewDense(1, out, nil)
	for j := 0; j < out; j++ {
		var s float64
		for i := 0; i < batch; i++ {
			s += grad.At(i, j)
		}
		db.Set(0, j, s)
	}
	return dx, dw, db
}
