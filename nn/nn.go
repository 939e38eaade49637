// Package nn provides the public API for bayne's neural network modules.
//
// The package re-exports the regression model and its building blocks:
//
//	model, err := nn.NewRegression(exp, rng)
//	pred := model.Forward(nn.InputMatrix(xs))
//
// See the Regression type for the supported network variants.
package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/bayne-ml/bayne/internal/config"
	"github.com/bayne-ml/bayne/internal/nn"
)

// Module is the base interface for all network components.
type Module = nn.Module

// Parameter is a trainable matrix with an accumulated gradient.
type Parameter = nn.Parameter

// Sequential chains modules.
type Sequential = nn.Sequential

// Linear is a fully connected layer.
type Linear = nn.Linear

// BayesianLinear is a variational layer with a Gaussian weight posterior.
type BayesianLinear = nn.BayesianLinear

// Dropout is an inverted-dropout layer kept active for MC sampling.
type Dropout = nn.Dropout

// ReLU, Sigmoid and Tanh are the supported activation modules.
type (
	ReLU    = nn.ReLU
	Sigmoid = nn.Sigmoid
	Tanh    = nn.Tanh
)

// Regression is the topology-driven scalar regression network.
type Regression = nn.Regression

// Checkpoint is a JSON snapshot of a trained model.
type Checkpoint = nn.Checkpoint

// ParamState is the serialized form of one Parameter.
type ParamState = nn.ParamState

// NewParameter creates a trainable parameter.
func NewParameter(name string, data *mat.Dense) *Parameter {
	return nn.NewParameter(name, data)
}

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// NewLinear creates a fully connected layer.
func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	return nn.NewLinear(name, in, out, rng)
}

// NewBayesianLinear creates a variational layer.
func NewBayesianLinear(name string, in, out int, rhoInit, prior *config.DistSpec, rng *rand.Rand) (*BayesianLinear, error) {
	return nn.NewBayesianLinear(name, in, out, rhoInit, prior, rng)
}

// NewDropout creates a Dropout module with drop probability p.
func NewDropout(p float64, rng *rand.Rand) *Dropout {
	return nn.NewDropout(p, rng)
}

// NewActivation returns the activation module for a topology name.
func NewActivation(name string) (Module, error) {
	return nn.NewActivation(name)
}

// NewRegression builds the network for an experiment record.
func NewRegression(exp *config.Experiment, rng *rand.Rand) (*Regression, error) {
	return nn.NewRegression(exp, rng)
}

// GaussianNLL returns the summed negative log likelihood under
// N(pred, sigma^2) and its gradients.
func GaussianNLL(pred *mat.Dense, targets []float64, sigma float64) (float64, *mat.Dense, float64) {
	return nn.GaussianNLL(pred, targets, sigma)
}

// MSE returns the mean squared error and its prediction gradient.
func MSE(pred *mat.Dense, targets []float64) (float64, *mat.Dense) {
	return nn.MSE(pred, targets)
}

// RMSE returns the root mean squared error.
func RMSE(pred, targets []float64) float64 {
	return nn.RMSE(pred, targets)
}

// RBFMMD computes the squared MMD between scalar samples and its gradient
// with respect to the first sample set.
func RBFMMD(x, y []float64, biased bool) (float64, []float64) {
	return nn.RBFMMD(x, y, biased)
}

// InputMatrix packs scalar inputs into the [batch, 1] matrix layers expect.
func InputMatrix(xs []float64) *mat.Dense {
	return nn.InputMatrix(xs)
}

// Snapshot captures the current values of the parameters.
func Snapshot(params []*Parameter) map[string]ParamState {
	return nn.Snapshot(params)
}

// LoadCheckpoint reads a checkpoint written by Checkpoint.Save.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path)
}
