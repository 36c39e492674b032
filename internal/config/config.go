package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/spinlab/internal/experiment"
	"github.com/san-kum/spinlab/internal/lattice"
)

const (
	DefaultSize          = 16
	DefaultCoupling      = lattice.DefaultCoupling
	DefaultTMin          = 1.0
	DefaultTMax          = 3.5
	DefaultTSteps        = 11
	DefaultThermalSweeps = 1000
	DefaultBins          = 100
	DefaultSweepsPerBin  = 10
	DefaultTrainFrac     = 0.8
)

type Config struct {
	Model         string            `yaml:"model"`
	Size          int               `yaml:"size"`
	Coupling      float64           `yaml:"coupling"`
	Seed          int64             `yaml:"seed"`
	Schedule      TemperatureConfig `yaml:"temperatures"`
	ThermalSweeps int               `yaml:"thermal_sweeps"`
	Bins          int               `yaml:"bins"`
	SweepsPerBin  int               `yaml:"sweeps_per_bin"`
	TrainFrac     float64           `yaml:"train_frac"`
	DatasetDir    string            `yaml:"dataset_dir,omitempty"`

	seedSet bool
}

// TemperatureConfig is either an explicit list or an evenly spaced grid
// from Min to Max inclusive. A non-empty List wins.
type TemperatureConfig struct {
	Min   float64   `yaml:"min"`
	Max   float64   `yaml:"max"`
	Steps int       `yaml:"steps"`
	List  []float64 `yaml:"list,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    "ising",
		Size:     DefaultSize,
		Coupling: DefaultCoupling,
		Schedule: TemperatureConfig{
			Min:   DefaultTMin,
			Max:   DefaultTMax,
			Steps: DefaultTSteps,
		},
		ThermalSweeps: DefaultThermalSweeps,
		Bins:          DefaultBins,
		SweepsPerBin:  DefaultSweepsPerBin,
		TrainFrac:     DefaultTrainFrac,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var present struct {
		Seed *int64 `yaml:"seed"`
	}
	if err := yaml.Unmarshal(data, &present); err == nil {
		cfg.seedSet = present.Seed != nil
	}
	return cfg, nil
}

// HasSeed reports whether a seed was given, including an explicit zero in
// a loaded file.
func (c *Config) HasSeed() bool {
	return c.seedSet || c.Seed != 0
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Temperatures expands the temperature section.
func (c *Config) Temperatures() []float64 {
	t := c.Schedule
	if len(t.List) > 0 {
		out := make([]float64, len(t.List))
		copy(out, t.List)
		return out
	}
	if t.Steps <= 0 {
		return nil
	}
	if t.Steps == 1 {
		return []float64{t.Min}
	}
	out := make([]float64, t.Steps)
	step := (t.Max - t.Min) / float64(t.Steps-1)
	for i := range out {
		out[i] = t.Min + float64(i)*step
	}
	out[len(out)-1] = t.Max
	return out
}

func (c *Config) Validate() error {
	if _, err := lattice.ParseVariant(c.Model); err != nil {
		return err
	}
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", lattice.ErrConfiguration, c.Size)
	}
	if !(c.Coupling > 0) {
		return fmt.Errorf("%w: coupling must be positive, got %g", lattice.ErrConfiguration, c.Coupling)
	}
	temps := c.Temperatures()
	if len(temps) == 0 {
		return fmt.Errorf("%w: no temperatures configured", lattice.ErrConfiguration)
	}
	seen := make(map[float64]bool, len(temps))
	for _, t := range temps {
		if !(t > 0) {
			return fmt.Errorf("%w: temperature must be positive, got %g", lattice.ErrConfiguration, t)
		}
		if seen[t] {
			return fmt.Errorf("%w: temperature %g listed twice", lattice.ErrConfiguration, t)
		}
		seen[t] = true
	}
	if c.Bins <= 0 || c.SweepsPerBin <= 0 || c.ThermalSweeps < 0 {
		return fmt.Errorf("%w: bins and sweeps_per_bin must be positive, thermal_sweeps non-negative", lattice.ErrConfiguration)
	}
	if c.TrainFrac < 0 || c.TrainFrac > 1 {
		return fmt.Errorf("%w: train_frac must be in [0,1], got %g", lattice.ErrConfiguration, c.TrainFrac)
	}
	return nil
}

// Experiment converts the file configuration into an experiment config.
func (c *Config) Experiment() experiment.Config {
	return experiment.Config{
		Model:         c.Model,
		Size:          c.Size,
		Coupling:      c.Coupling,
		Seed:          c.Seed,
		Temperatures:  c.Temperatures(),
		ThermalSweeps: c.ThermalSweeps,
		Bins:          c.Bins,
		SweepsPerBin:  c.SweepsPerBin,
		TrainFrac:     c.TrainFrac,
		DatasetDir:    c.DatasetDir,
	}
}
