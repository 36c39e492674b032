// Package automation runs batches of experiments: scripted scenarios loaded
// from YAML and finite-size sweeps over lattice sizes.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/spinlab/internal/config"
	"github.com/san-kum/spinlab/internal/experiment"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/logger"
)

// Scenario defines a scripted sequence of experiments.
type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Steps       []*config.Config `yaml:"-"`
}

type rawScenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []yaml.Node `yaml:"steps"`
}

// LoadScenario loads a scenario from a YAML file. Every step starts from
// config.DefaultConfig, so a step only lists what it changes.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var raw rawScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", lattice.ErrConfiguration, raw.Name)
	}

	sc := &Scenario{Name: raw.Name, Description: raw.Description}
	for i := range raw.Steps {
		cfg := config.DefaultConfig()
		if err := raw.Steps[i].Decode(cfg); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		sc.Steps = append(sc.Steps, cfg)
	}
	return sc, nil
}

// StepResult pairs a scenario step with what it produced.
type StepResult struct {
	Config experiment.Config
	Result *experiment.Result
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the steps completed so far.
func RunScenario(ctx context.Context, sc *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))
	log := logger.L()

	for i, step := range sc.Steps {
		log.Info("scenario.step", "scenario", sc.Name, "step", i+1, "of", len(sc.Steps), "model", step.Model, "size", step.Size)

		cfg := step.Experiment()
		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Config: cfg, Result: result})
	}

	return results, nil
}

// SizeSweep repeats one temperature scan over several lattice sizes.
type SizeSweep struct {
	Base  experiment.Config
	Sizes []int
}

// SweepResult locates the susceptibility and specific-heat peaks of one
// size. The susceptibility peak drifts toward Tc as the size grows.
type SweepResult struct {
	Size               int
	Result             *experiment.Result
	PeakTemperature    float64
	PeakSusceptibility float64
	PeakSpecificHeat   float64
}

// RunSweep executes the scan for every size. The dataset writer is never
// used by a sweep.
func RunSweep(ctx context.Context, sweep *SizeSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if len(sweep.Sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes to sweep", lattice.ErrConfiguration)
	}

	results := make([]SweepResult, 0, len(sweep.Sizes))
	for i, size := range sweep.Sizes {
		cfg := sweep.Base
		cfg.Size = size
		cfg.DatasetDir = ""

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("size %d: %w", size, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("size %d: %w", size, err)
		}

		sr := SweepResult{Size: size, Result: res}
		for _, p := range res.Points {
			if p.Susceptibility > sr.PeakSusceptibility || sr.PeakTemperature == 0 {
				sr.PeakSusceptibility = p.Susceptibility
				sr.PeakTemperature = p.Temperature
			}
			if p.SpecificHeat > sr.PeakSpecificHeat {
				sr.PeakSpecificHeat = p.SpecificHeat
			}
		}
		results = append(results, sr)

		logger.L().Info("sweep.size", "index", i, "size", size, "peak_t", sr.PeakTemperature, "peak_chi", sr.PeakSusceptibility)
	}

	return results, nil
}
