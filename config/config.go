package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v8"
	"github.com/semafind/distmat/compare"
	"github.com/semafind/distmat/distmat"
	"gopkg.in/yaml.v3"
)

// ---------------------------

const DISTMAT_CONFIG = "DISTMAT_CONFIG"

var ErrInvalidConfig = errors.New("invalid config")

type ConfigMap struct {
	// Global debug flag
	Debug bool `yaml:"debug"`
	// Pretty log output
	PrettyLogOutput bool `yaml:"prettyLogOutput"`
	// Number of vectors in X and Y and their size
	N int `yaml:"n"`
	M int `yaml:"m"`
	D int `yaml:"d"`
	// Seed of the vector generator
	Seed uint64 `yaml:"seed"`
	// Print the full distance matrix
	Print bool `yaml:"print"`
	// Parallel evaluation parameters
	Parallel distmat.ParallelOptions `yaml:"parallel" envPrefix:"PARALLEL_"`
	// Method timing parameters
	RunCompare bool            `yaml:"runCompare"`
	Compare    compare.Options `yaml:"compare" envPrefix:"COMPARE_"`
}

func DefaultConfig() ConfigMap {
	return ConfigMap{
		PrettyLogOutput: true,
		N:               500,
		M:               400,
		D:               32,
		Seed:            42,
		Parallel:        distmat.ParallelOptions{Workers: 1},
		Compare:         compare.Options{Repeats: 3},
	}
}

// LoadConfig starts from the defaults, applies the YAML file named by the
// DISTMAT_CONFIG environment variable if it is set, and then any DISTMAT_
// prefixed environment variables, e.g. DISTMAT_N or DISTMAT_PARALLEL_WORKERS.
func LoadConfig() (ConfigMap, error) {
	configMap := DefaultConfig()
	// Load the file path from the environment variable
	if cFilePath, ok := os.LookupEnv(DISTMAT_CONFIG); ok && cFilePath != "" {
		cFile, err := os.Open(cFilePath)
		if err != nil {
			return configMap, fmt.Errorf("failed to open config file %s: %w", cFilePath, err)
		}
		defer cFile.Close()
		decoder := yaml.NewDecoder(cFile)
		decoder.KnownFields(true)
		// An empty file leaves the defaults in place
		if err := decoder.Decode(&configMap); err != nil && !errors.Is(err, io.EOF) {
			return configMap, fmt.Errorf("failed to parse config file %s: %w", cFilePath, err)
		}
	}
	// ---------------------------
	// Then parse environment variables
	opts := env.Options{Prefix: "DISTMAT_", UseFieldNameByDefault: true}
	if err := env.ParseWithOptions(&configMap, opts); err != nil {
		return configMap, fmt.Errorf("failed to parse environment: %w", err)
	}
	return configMap, nil
}

func (c ConfigMap) Validate() error {
	if c.N < 1 || c.M < 1 || c.D < 1 {
		return fmt.Errorf("sizes must be positive, got n=%d m=%d d=%d: %w", c.N, c.M, c.D, ErrInvalidConfig)
	}
	if c.Parallel.Workers < 0 || c.Parallel.BlockRows < 0 {
		return fmt.Errorf("parallel options must not be negative: %w", ErrInvalidConfig)
	}
	if c.Compare.Repeats < 1 {
		return fmt.Errorf("repeats must be positive, got %d: %w", c.Compare.Repeats, ErrInvalidConfig)
	}
	for _, m := range c.Compare.Methods {
		if _, err := distmat.ParseMethod(string(m)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
