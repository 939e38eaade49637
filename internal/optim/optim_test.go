package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/nn"
	"github.com/bayne-ml/bayne/internal/optim"
)

func scalarParam(v float64) *nn.Parameter {
	return nn.NewParameter("x", mat.NewDense(1, 1, []float64{v}))
}

func setGrad(p *nn.Parameter, g float64) {
	p.ZeroGrad()
	p.AddGradAt(0, 0, g)
}

func TestSGD_SimpleUpdate(t *testing.T) {
	p := scalarParam(2.0)
	opt := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1})

	setGrad(p, 1.0)
	opt.Step()

	// 2.0 - 0.1*1.0 = 1.9
	assert.InDelta(t, 1.9, p.Data().At(0, 0), 1e-12)
	assert.Equal(t, 0.1, opt.GetLR())
}

func TestSGD_Momentum(t *testing.T) {
	p := scalarParam(1.0)
	opt := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// step 1: v = 1, x = 1 - 0.1 = 0.9
	setGrad(p, 1.0)
	opt.Step()
	assert.InDelta(t, 0.9, p.Data().At(0, 0), 1e-12)

	// step 2: v = 0.9 + 1 = 1.9, x = 0.9 - 0.19 = 0.71
	setGrad(p, 1.0)
	opt.Step()
	assert.InDelta(t, 0.71, p.Data().At(0, 0), 1e-12)
}

func TestSGD_SkipsNilGrad(t *testing.T) {
	p := scalarParam(3.0)
	opt := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1})
	opt.Step()
	assert.Equal(t, 3.0, p.Data().At(0, 0))
}

func TestSGD_Defaults(t *testing.T) {
	opt := optim.NewSGD(nil, optim.SGDConfig{})
	assert.Equal(t, 0.01, opt.GetLR())
}

func TestAdam_FirstStep(t *testing.T) {
	p := scalarParam(1.0)
	opt := optim.NewAdam([]*nn.Parameter{p}, optim.AdamConfig{})
	assert.Equal(t, 0.001, opt.GetLR())

	setGrad(p, 0.5)
	opt.Step()

	// On the first step the bias-corrected moments reduce to the raw
	// gradient, so the update is lr * g/(|g| + eps) ~ lr.
	assert.InDelta(t, 1.0-0.001, p.Data().At(0, 0), 1e-6)
}

func TestRMSprop_FirstStep(t *testing.T) {
	p := scalarParam(1.0)
	opt := optim.NewRMSprop([]*nn.Parameter{p}, optim.RMSpropConfig{LR: 0.01})

	setGrad(p, 2.0)
	opt.Step()

	// sq = 0.01*g^2, step = g/sqrt(0.01*g^2) = 10, x = 1 - 0.01*10 = 0.9
	assert.InDelta(t, 0.9, p.Data().At(0, 0), 1e-6)
}

func TestRMSprop_Momentum(t *testing.T) {
	p := scalarParam(1.0)
	opt := optim.NewRMSprop([]*nn.Parameter{p}, optim.RMSpropConfig{LR: 0.01, Momentum: 0.9})

	setGrad(p, 2.0)
	opt.Step()
	first := p.Data().At(0, 0)
	assert.InDelta(t, 0.9, first, 1e-6)

	// The velocity buffer carries the previous normalized step forward.
	setGrad(p, 2.0)
	opt.Step()
	second := p.Data().At(0, 0)
	assert.Less(t, second, first-0.01*10*0.5)
}

func TestZeroGrad(t *testing.T) {
	p := scalarParam(1.0)
	opt := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1})

	setGrad(p, 1.0)
	require.NotNil(t, p.Grad())
	opt.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestNew_Factory(t *testing.T) {
	p := scalarParam(1.0)
	for _, name := range []string{"sgd", "adam", "rmsprop"} {
		opt, err := optim.New(name, []*nn.Parameter{p}, 0.05)
		require.NoError(t, err, name)
		assert.Equal(t, 0.05, opt.GetLR(), name)
	}

	_, err := optim.New("lbfgs", []*nn.Parameter{p}, 0.05)
	assert.Error(t, err)
}

// All three optimizers should drive a 1-d quadratic toward its minimum.
func TestOptimizers_MinimizeQuadratic(t *testing.T) {
	builders := map[string]func(p *nn.Parameter) optim.Optimizer{
		"sgd": func(p *nn.Parameter) optim.Optimizer {
			return optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1})
		},
		"adam": func(p *nn.Parameter) optim.Optimizer {
			return optim.NewAdam([]*nn.Parameter{p}, optim.AdamConfig{LR: 0.1})
		},
		"rmsprop": func(p *nn.Parameter) optim.Optimizer {
			return optim.NewRMSprop([]*nn.Parameter{p}, optim.RMSpropConfig{LR: 0.05})
		},
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			// minimize (x-3)^2 from x=0
			p := scalarParam(0)
			opt := build(p)
			for i := 0; i < 500; i++ {
				opt.ZeroGrad()
				x := p.Data().At(0, 0)
				p.AddGradAt(0, 0, 2*(x-3))
				opt.Step()
			}
			assert.InDelta(t, 3.0, p.Data().At(0, 0), 0.1,
				"%s ended at %v", name, p.Data().At(0, 0))
		})
	}
}

func TestAdam_StepBoundedByLR(t *testing.T) {
	// Adam's per-step displacement is bounded by roughly lr regardless of
	// gradient scale.
	p := scalarParam(0)
	opt := optim.NewAdam([]*nn.Parameter{p}, optim.AdamConfig{LR: 0.1})

	setGrad(p, 1e6)
	opt.Step()
	assert.Less(t, math.Abs(p.Data().At(0, 0)), 0.11)
}
