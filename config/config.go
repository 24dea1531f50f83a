// Package config provides configuration loading and access for the receptor model
// and the experiments that drive it.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/odorsampling/odor"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Model       ModelConfig        `yaml:"model"`
	Space       SpaceConfig        `yaml:"space"`
	Epithelium  EpitheliumConfig   `yaml:"epithelium"`
	Sampling    SamplingConfig     `yaml:"sampling"`
	Analysis    AnalysisConfig     `yaml:"analysis"`
	Output      OutputConfig       `yaml:"output"`
	Storage     StorageConfig      `yaml:"storage"`
	Experiments []ExperimentConfig `yaml:"experiments"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ModelConfig holds the response model constants.
type ModelConfig struct {
	PeakAffinity      float64 `yaml:"peak_affinity"`      // log10 Kd at the receptor mean
	MinAffinity       float64 `yaml:"min_affinity"`       // log10 Kd far from the mean
	HillCoefficient   float64 `yaml:"hill_coefficient"`   // 1 = non-cooperative binding
	OdorConcentration float64 `yaml:"odor_concentration"` // Default ligand concentration
	FixedEfficacy     bool    `yaml:"fixed_efficacy"`     // Force efficacy = 1
}

// SpaceConfig holds the default odor space.
type SpaceConfig struct {
	Dimensions int          `yaml:"dimensions"`
	Bound      odor.Bound   `yaml:"bound"`  // Applied to every dimension unless Bounds is set
	Bounds     []odor.Bound `yaml:"bounds"` // Explicit per-dimension bounds
}

// EpitheliumConfig holds receptor population sampling parameters.
type EpitheliumConfig struct {
	NumReceptors int        `yaml:"num_receptors"`
	AffSD        [2]float64 `yaml:"aff_sd"`       // Uniform range for affinity SDs
	EffSD        [2]float64 `yaml:"eff_sd"`       // Uniform range for efficacy SDs
	CenterMeans  bool       `yaml:"center_means"` // Place every mean at the space center
}

// SamplingConfig holds ligand grid spacing.
type SamplingConfig struct {
	CurveStep float64 `yaml:"curve_step"` // 1-D location sweeps
	GridStep  float64 `yaml:"grid_step"`  // N-D histogram grids
}

// AnalysisConfig holds batch summarization settings.
type AnalysisConfig struct {
	Parallel bool `yaml:"parallel"`
	Workers  int  `yaml:"workers"` // 0 = GOMAXPROCS
}

// OutputConfig holds CSV output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"` // Empty = output disabled
}

// StorageConfig selects the run-result store.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // memory | sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

// ExperimentConfig declares a named sequence of procedure calls.
type ExperimentConfig struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Calls       []CallConfig `yaml:"calls"`
}

// CallConfig is one procedure invocation with named arguments.
type CallConfig struct {
	Function string         `yaml:"function"`
	Args     map[string]any `yaml:"args"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Model odor.Model
	Space odor.Space
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays YAML data onto cfg. Only fields present in data are overwritten,
// except lists, which are replaced whole.
func Merge(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// computeDerived validates the model and space and caches their typed forms.
func (c *Config) computeDerived() error {
	c.Derived.Model = odor.Model{
		PeakAffinity:    c.Model.PeakAffinity,
		MinAffinity:     c.Model.MinAffinity,
		HillCoefficient: c.Model.HillCoefficient,
		FixedEfficacy:   c.Model.FixedEfficacy,
		Competition:     odor.SumOfRatios,
	}
	if err := c.Derived.Model.Validate(); err != nil {
		return fmt.Errorf("model config: %w", err)
	}
	if !(c.Model.OdorConcentration > 0) {
		return fmt.Errorf("model config: %w: %g", odor.ErrNonPositiveConcentration, c.Model.OdorConcentration)
	}

	bounds := c.Space.Bounds
	if len(bounds) == 0 {
		space, err := odor.UniformSpace(c.Space.Dimensions, c.Space.Bound)
		if err != nil {
			return fmt.Errorf("space config: %w", err)
		}
		c.Derived.Space = space
	} else {
		space, err := odor.NewSpace(bounds)
		if err != nil {
			return fmt.Errorf("space config: %w", err)
		}
		c.Derived.Space = space
		c.Space.Dimensions = len(bounds)
	}

	if !(c.Sampling.CurveStep > 0) || !(c.Sampling.GridStep > 0) {
		return fmt.Errorf("sampling config: steps must be positive (curve %g, grid %g)", c.Sampling.CurveStep, c.Sampling.GridStep)
	}
	for _, r := range [][2]float64{c.Epithelium.AffSD, c.Epithelium.EffSD} {
		if !(r[0] > 0) || r[1] < r[0] {
			return fmt.Errorf("epithelium config: %w: sd range %v", odor.ErrNonPositiveSD, r)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Experiment returns the experiment with the given id.
func (c *Config) Experiment(id string) (ExperimentConfig, bool) {
	for _, e := range c.Experiments {
		if e.ID == id {
			return e, true
		}
	}
	return ExperimentConfig{}, false
}
