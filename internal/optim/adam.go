package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/nn"
)

// Adam implements the Adam optimizer (Kingma & Ba, 2014).
//
// Update rule:
//
//	m_t = beta1*m_{t-1} + (1-beta1)*grad
//	v_t = beta2*v_{t-1} + (1-beta2)*grad^2
//	param -= lr * (m_t/(1-beta1^t)) / (sqrt(v_t/(1-beta2^t)) + eps)
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int
	m      map[*nn.Parameter]*mat.Dense
	v      map[*nn.Parameter]*mat.Dense
}

// AdamConfig holds the Adam hyperparameters.
type AdamConfig struct {
	LR    float64    // learning rate (default 0.001)
	Betas [2]float64 // moment decay rates (default 0.9, 0.999)
	Eps   float64    // numerical stability term (default 1e-8)
}

// NewAdam creates an Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter]*mat.Dense),
		v:      make(map[*nn.Parameter]*mat.Dense),
	}
}

// Step applies one Adam update.
func (a *Adam) Step() {
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, p := range a.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}

		m, ok := a.m[p]
		if !ok {
			m = zerosLike(p)
			a.m[p] = m
			a.v[p] = zerosLike(p)
		}
		v := a.v[p]

		r, c := grad.Dims()
		data := p.Data()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				g := grad.At(i, j)
				mij := a.beta1*m.At(i, j) + (1-a.beta1)*g
				vij := a.beta2*v.At(i, j) + (1-a.beta2)*g*g
				m.Set(i, j, mij)
				v.Set(i, j, vij)

				mHat := mij / bc1
				vHat := vij / bc2
				data.Set(i, j, data.At(i, j)-a.lr*mHat/(math.Sqrt(vHat)+a.eps))
			}
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *Adam) ZeroGrad() { zeroGrads(a.params) }

// GetLR returns the learning rate.
func (a *Adam) GetLR() float64 { return a.lr }
