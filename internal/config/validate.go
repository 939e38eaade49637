package config

import (
	"fmt"
)

var knownOptimizers = map[string]bool{
	"sgd":     true,
	"adam":    true,
	"rmsprop": true,
}

var knownActivations = map[string]bool{
	"relu":    true,
	"sigmoid": true,
	"tanh":    true,
}

var knownKernels = map[string]bool{
	"rbf": true,
}

// ValidateAll validates every record of an experiment file.
//
// The first failing record stops validation; the error names the record
// index and experiment name.
func ValidateAll(exps []Experiment) error {
	if len(exps) == 0 {
		return fmt.Errorf("experiment file contains no records")
	}
	for i := range exps {
		if err := exps[i].Validate(); err != nil {
			return fmt.Errorf("experiment %d (%q): %w", i, exps[i].ExpName, err)
		}
	}
	return nil
}

// Validate checks the record against the schema conventions: the shared
// fields every record needs, plus the fields its network type requires.
func (e *Experiment) Validate() error {
	if e.ExpName == "" {
		return fmt.Errorf("exp_name must not be empty")
	}
	switch e.NetworkType {
	case NetworkANN, NetworkDropout, NetworkBBB, NetworkMMD:
	case "":
		return fmt.Errorf("network_type must not be empty")
	default:
		return fmt.Errorf("unknown network_type %q", e.NetworkType)
	}

	if e.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", e.Epochs)
	}
	if e.LR <= 0 {
		return fmt.Errorf("lr must be positive, got %g", e.LR)
	}
	if !knownOptimizers[e.Optimizer] {
		return fmt.Errorf("unknown optimizer %q", e.Optimizer)
	}
	if e.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", e.BatchSize)
	}

	if err := e.validateTopology(); err != nil {
		return err
	}
	if err := e.validateDataset(); err != nil {
		return err
	}

	if len(e.Seeds) == 0 {
		return fmt.Errorf("experiments_seeds must not be empty")
	}

	if (e.Save || e.Load) && e.SavePath == "" {
		return fmt.Errorf("save_path required when save or load is set")
	}

	switch e.NetworkType {
	case NetworkBBB, NetworkMMD:
		if e.RhoInit == nil {
			return fmt.Errorf("%s networks require rho_init", e.NetworkType)
		}
		if err := e.RhoInit.Validate(); err != nil {
			return fmt.Errorf("rho_init: %w", err)
		}
		if e.Prior == nil {
			return fmt.Errorf("%s networks require prior", e.NetworkType)
		}
		if err := e.Prior.Validate(); err != nil {
			return fmt.Errorf("prior: %w", err)
		}
		if e.NetworkType == NetworkMMD && !knownKernels[e.NetworkParameters.Kernel] {
			return fmt.Errorf("unknown mmd kernel %q", e.NetworkParameters.Kernel)
		}
	case NetworkDropout:
		d := e.NetworkParameters.Drop
		if d <= 0 || d >= 1 {
			return fmt.Errorf("dropout networks require network_parameters.drop in (0, 1), got %g", d)
		}
	}

	return nil
}

func (e *Experiment) validateTopology() error {
	if len(e.Topology) == 0 {
		return fmt.Errorf("topology must not be empty")
	}
	if !e.Topology[0].IsWidth() {
		return fmt.Errorf("topology must start with a layer width")
	}
	for i, l := range e.Topology {
		if l.IsWidth() {
			if l.Width <= 0 {
				return fmt.Errorf("topology[%d]: layer width must be positive, got %d", i, l.Width)
			}
			if i > 0 && e.Topology[i-1].IsWidth() {
				return fmt.Errorf("topology[%d]: widths and activations must alternate", i)
			}
			continue
		}
		if !knownActivations[l.Activation] {
			return fmt.Errorf("topology[%d]: unknown activation %q", i, l.Activation)
		}
		if i == 0 || !e.Topology[i-1].IsWidth() {
			return fmt.Errorf("topology[%d]: widths and activations must alternate", i)
		}
	}
	return nil
}

func (e *Experiment) validateDataset() error {
	if e.Range[0] >= e.Range[1] {
		return fmt.Errorf("range must be an increasing interval, got [%g, %g]", e.Range[0], e.Range[1])
	}
	if e.RegressionPoints <= 0 {
		return fmt.Errorf("regression_points must be positive, got %d", e.RegressionPoints)
	}
	if e.TrainSamples <= 0 {
		return fmt.Errorf("train_samples must be positive, got %d", e.TrainSamples)
	}
	if e.TestSamples <= 0 {
		return fmt.Errorf("test_samples must be positive, got %d", e.TestSamples)
	}
	if e.Noise < 0 {
		return fmt.Errorf("noise must not be negative, got %g", e.Noise)
	}
	if e.Variance < 0 {
		return fmt.Errorf("variance must not be negative, got %g", e.Variance)
	}
	return nil
}

// Validate checks the distribution spec's type and parameters.
func (d *DistSpec) Validate() error {
	switch d.Type {
	case DistUniform:
		if d.A >= d.B {
			return fmt.Errorf("uniform requires a < b, got a=%g b=%g", d.A, d.B)
		}
	case DistConstant:
		// any c is fine
	case DistGaussian:
		if d.Sigma <= 0 {
			return fmt.Errorf("gaussian requires sigma > 0, got %g", d.Sigma)
		}
	default:
		return fmt.Errorf("unknown distribution type %q", d.Type)
	}
	return nil
}
