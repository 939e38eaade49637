// Package config provides the public API for bayne experiment files.
//
// An experiment file is a JSON array of records; see Experiment for the
// schema. Typical use:
//
//	exps, err := config.Load("configs/regression.json")
//	if err != nil { ... }
//	if err := config.ValidateAll(exps); err != nil { ... }
package config

import (
	"github.com/bayne-ml/bayne/internal/config"
)

// Network type tags accepted in the network_type field.
const (
	NetworkANN     = config.NetworkANN
	NetworkDropout = config.NetworkDropout
	NetworkBBB     = config.NetworkBBB
	NetworkMMD     = config.NetworkMMD
)

// Distribution spec types accepted in rho_init and prior.
const (
	DistUniform  = config.DistUniform
	DistConstant = config.DistConstant
	DistGaussian = config.DistGaussian
)

// Experiment is one record of an experiment file.
type Experiment = config.Experiment

// Topology is the mixed width/activation layer description.
type Topology = config.Topology

// LayerSpec is one topology entry.
type LayerSpec = config.LayerSpec

// DistSpec describes a scalar distribution (uniform, constant, gaussian).
type DistSpec = config.DistSpec

// NetworkParameters carries method-specific knobs.
type NetworkParameters = config.NetworkParameters

// Load reads an experiment file and returns its records.
func Load(path string) ([]Experiment, error) {
	return config.Load(path)
}

// ValidateAll validates every record of an experiment file.
func ValidateAll(exps []Experiment) error {
	return config.ValidateAll(exps)
}
