package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/config"
	"github.com/bayne-ml/bayne/internal/nn"
)

func testRhoInit() *config.DistSpec {
	return &config.DistSpec{Type: config.DistUniform, A: -5, B: -4}
}

func testPrior() *config.DistSpec {
	return &config.DistSpec{Type: config.DistGaussian, Mu: 0, Sigma: 1}
}

func newTestBayesian(t *testing.T, in, out int, seed int64) *nn.BayesianLinear {
	t.Helper()
	b, err := nn.NewBayesianLinear("bl", in, out, testRhoInit(), testPrior(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return b
}

func TestBayesianLinear_Creation(t *testing.T) {
	b := newTestBayesian(t, 3, 2, 1)

	assert.Equal(t, 3, b.InFeatures())
	assert.Equal(t, 2, b.OutFeatures())

	params := b.Parameters()
	require.Len(t, params, 4)
	assert.Equal(t, "bl.weight_mu", params[0].Name())
	assert.Equal(t, "bl.weight_rho", params[1].Name())
	assert.Equal(t, "bl.bias_mu", params[2].Name())
	assert.Equal(t, "bl.bias_rho", params[3].Name())

	// rho drawn from U(-5, -4)
	wr := params[1].Data()
	r, c := wr.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := wr.At(i, j)
			assert.GreaterOrEqual(t, v, -5.0)
			assert.LessOrEqual(t, v, -4.0)
		}
	}
}

func TestBayesianLinear_UnknownDist(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := nn.NewBayesianLinear("bl", 2, 2, &config.DistSpec{Type: "cauchy"}, testPrior(), rng)
	assert.Error(t, err)

	_, err = nn.NewBayesianLinear("bl", 2, 2, testRhoInit(), &config.DistSpec{Type: "cauchy"}, rng)
	assert.Error(t, err)
}

// With rho ~ U(-5,-4) the posterior noise is softplus(rho) < 0.01, so two
// forward passes stay close to the affine map through mu but are not equal.
func TestBayesianLinear_ForwardIsStochastic(t *testing.T) {
	b := newTestBayesian(t, 1, 4, 2)
	x := mat.NewDense(1, 1, []float64{1})

	a := b.Forward(x)
	c := b.Forward(x)

	var diff float64
	for j := 0; j < 4; j++ {
		diff += math.Abs(a.At(0, j) - c.At(0, j))
		assert.InDelta(t, a.At(0, j), c.At(0, j), 0.1)
	}
	assert.Greater(t, diff, 0.0)
}

func TestBayesianLinear_KLClosedForm(t *testing.T) {
	b := newTestBayesian(t, 1, 1, 3)

	// Pin the posterior to known values: mu=0.5, sigma=softplus(rho).
	rho := -1.0
	b.Parameters()[0].Data().Set(0, 0, 0.5) // weight_mu
	b.Parameters()[1].Data().Set(0, 0, rho) // weight_rho
	b.Parameters()[2].Data().Set(0, 0, 0.0) // bias_mu
	b.Parameters()[3].Data().Set(0, 0, rho) // bias_rho

	sigma := math.Log(1 + math.Exp(rho))
	klW := math.Log(1/sigma) + (sigma*sigma+0.25)/2 - 0.5
	klB := math.Log(1/sigma) + (sigma*sigma)/2 - 0.5

	assert.InDelta(t, klW+klB, b.KL(), 1e-10)
}

func TestBayesianLinear_ApplyKLGradFiniteDifference(t *testing.T) {
	b := newTestBayesian(t, 2, 3, 4)

	got := b.ApplyKL(1)
	assert.InDelta(t, b.KL(), got, 1e-12)

	const h = 1e-6
	for _, p := range b.Parameters() {
		r, c := p.Data().Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				orig := p.Data().At(i, j)
				p.Data().Set(i, j, orig+h)
				up := b.KL()
				p.Data().Set(i, j, orig-h)
				down := b.KL()
				p.Data().Set(i, j, orig)

				numeric := (up - down) / (2 * h)
				assert.InDelta(t, numeric, p.Grad().At(i, j), 1e-4,
					"%s[%d,%d]", p.Name(), i, j)
			}
		}
	}
}

func TestBayesianLinear_ApplyKLScaling(t *testing.T) {
	b := newTestBayesian(t, 2, 2, 5)
	b.ApplyKL(1)
	full := mat.DenseCopyOf(b.Parameters()[0].Grad())

	for _, p := range b.Parameters() {
		p.ZeroGrad()
	}
	b.ApplyKL(0.5)
	half := b.Parameters()[0].Grad()

	r, c := full.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, full.At(i, j)*0.5, half.At(i, j), 1e-12)
		}
	}
}

func TestBayesianLinear_ApplyMMD(t *testing.T) {
	b := newTestBayesian(t, 4, 4, 6)

	assert.Panics(t, func() { b.ApplyMMD(true, 1) })

	x := mat.NewDense(2, 4, []float64{1, 2, 3, 4, -1, 0, 1, 2})
	b.Forward(x)
	require.NotNil(t, b.SampledWeights())

	v := b.ApplyMMD(true, 1)
	assert.False(t, math.IsNaN(v))
	for _, p := range b.Parameters() {
		assert.NotNil(t, p.Grad(), "%s should receive MMD gradient", p.Name())
	}
}

// Descending the biased MMD should pull the posterior means toward the
// prior when they start far away.
func TestBayesianLinear_MMDShrinksTowardPrior(t *testing.T) {
	b := newTestBayesian(t, 4, 4, 7)
	mu := b.Parameters()[0]
	r, c := mu.Data().Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			mu.Data().Set(i, j, 5)
		}
	}

	x := mat.NewDense(1, 4, []float64{1, 1, 1, 1})
	meanMu := func() float64 {
		var s float64
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				s += mu.Data().At(i, j)
			}
		}
		return s / float64(r*c)
	}

	before := meanMu()
	for step := 0; step < 50; step++ {
		for _, p := range b.Parameters() {
			p.ZeroGrad()
		}
		b.Forward(x)
		b.ApplyMMD(true, 1)
		g := mu.Grad()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				mu.Data().Set(i, j, mu.Data().At(i, j)-0.5*g.At(i, j))
			}
		}
	}
	assert.Less(t, meanMu(), before)
}

func TestBayesianLinear_BackwardAccumulates(t *testing.T) {
	b := newTestBayesian(t, 2, 3, 8)
	x := mat.NewDense(5, 2, nil)
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 5; i++ {
		for j := 0; j < 2; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}

	out := b.Forward(x)
	r, c := out.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)

	ones := mat.NewDense(5, 3, nil)
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			ones.Set(i, j, 1)
		}
	}
	dx := b.Backward(ones)
	r, c = dx.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 2, c)

	for _, p := range b.Parameters() {
		require.NotNil(t, p.Grad(), p.Name())
	}

	// With w = mu + softplus(rho)*eps, dmu equals the plain weight grad
	// and drho is attenuated by eps*sigmoid(rho); with rho around -4.5
	// sigmoid(rho) is about 0.01, so the rho grads are much smaller.
	wMuNorm := mat.Norm(b.Parameters()[0].Grad(), 2)
	wRhoNorm := mat.Norm(b.Parameters()[1].Grad(), 2)
	assert.Greater(t, wMuNorm, wRhoNorm)
}
