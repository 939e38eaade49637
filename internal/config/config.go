// Package config defines the experiment configuration schema for bayne.
//
// An experiment file is a JSON array of records, one per hyperparameter set.
// Each record describes a regression experiment: the network variant to
// train (point-estimate ANN, MC dropout, Bayes-by-Backprop or MMD
// variational), its topology, the optimizer settings, the synthetic dataset
// parameters and the RNG seeds to repeat the run with.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Network type tags accepted in the network_type field.
const (
	NetworkANN     = "ann"     // point-estimate feed-forward network
	NetworkDropout = "dropout" // MC-dropout approximate Bayesian inference
	NetworkBBB     = "bbb"     // Bayes-by-Backprop variational network
	NetworkMMD     = "mmd"     // MMD-regularized variational network
)

// Distribution spec types accepted in rho_init and prior.
const (
	DistUniform  = "uniform"
	DistConstant = "constant"
	DistGaussian = "gaussian"
)

// Experiment is one record of the experiment file.
//
// Identity and training fields apply to every network type. The nested
// specs are method specific: bbb and mmd require RhoInit and Prior,
// dropout requires NetworkParameters.Drop, mmd additionally uses
// NetworkParameters.Kernel and Biased.
type Experiment struct {
	ExpName     string `json:"exp_name"`
	Label       string `json:"label,omitempty"`
	NetworkType string `json:"network_type"`

	Epochs    int     `json:"epochs"`
	LR        float64 `json:"lr"`
	Optimizer string  `json:"optimizer"`
	BatchSize int     `json:"batch_size,omitempty"`
	UseCUDA   bool    `json:"use_cuda"`

	Save     bool   `json:"save"`
	Load     bool   `json:"load"`
	SavePath string `json:"save_path,omitempty"`

	Topology Topology `json:"topology"`

	Dataset          string     `json:"dataset"`
	Noise            float64    `json:"noise"`
	Variance         float64    `json:"variance"`
	Range            [2]float64 `json:"range"`
	RegressionPoints int        `json:"regression_points"`
	TrainSamples     int        `json:"train_samples"`
	TestSamples      int        `json:"test_samples"`

	Seeds []int64 `json:"experiments_seeds"`

	RhoInit           *DistSpec          `json:"rho_init,omitempty"`
	Prior             *DistSpec          `json:"prior,omitempty"`
	NetworkParameters NetworkParameters  `json:"network_parameters,omitempty"`
	LossWeights       map[string]float64 `json:"loss_weights,omitempty"`
}

// DistSpec describes a scalar distribution used to initialize posterior
// rho parameters or to define the weight prior.
//
// The type field selects which numeric parameters are read:
//   - "uniform":  a, b (lower and upper bound)
//   - "constant": c
//   - "gaussian": mu, sigma
type DistSpec struct {
	Type  string  `json:"type"`
	A     float64 `json:"a,omitempty"`
	B     float64 `json:"b,omitempty"`
	C     float64 `json:"c,omitempty"`
	Mu    float64 `json:"mu,omitempty"`
	Sigma float64 `json:"sigma,omitempty"`
}

// NetworkParameters carries method-specific knobs.
//
// Kernel and Biased configure the MMD estimator, Drop is the dropout
// probability for MC-dropout networks. Fields irrelevant to the record's
// network type are left at their zero value.
type NetworkParameters struct {
	Kernel string  `json:"kernel,omitempty"`
	Biased bool    `json:"biased,omitempty"`
	Drop   float64 `json:"drop,omitempty"`
}

// Load reads an experiment file and returns its records.
//
// The file must contain a JSON array of experiment objects. Load does not
// validate the records; call ValidateAll on the result.
func Load(path string) ([]Experiment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open experiment file: %w", err)
	}
	defer f.Close()

	var exps []Experiment
	dec := json.NewDecoder(f)
	if err := dec.Decode(&exps); err != nil {
		return nil, fmt.Errorf("decode experiment file %s: %w", path, err)
	}
	return exps, nil
}

// Runs returns the number of training runs the record expands to,
// one per seed.
func (e *Experiment) Runs() int {
	return len(e.Seeds)
}

// LossWeight returns the configured weight for a loss component,
// or def when the record does not set it.
func (e *Experiment) LossWeight(name string, def float64) float64 {
	if w, ok := e.LossWeights[name]; ok {
		return w
	}
	return def
}
