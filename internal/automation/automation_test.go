package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/spinlab/internal/experiment"
	"github.com/san-kum/spinlab/internal/lattice"
)

const scenarioYAML = `
name: quick
description: two small scans
steps:
  - model: ising
    size: 4
    seed: 1
    temperatures:
      list: [1.5, 3.5]
    thermal_sweeps: 20
    bins: 4
    sweeps_per_bin: 2
  - model: gauge
    size: 3
    seed: 2
    temperatures:
      list: [1.0]
    thermal_sweeps: 10
    bins: 3
    sweeps_per_bin: 1
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sc.Name != "quick" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Model != "gauge" || sc.Steps[1].Size != 3 {
		t.Errorf("step 2 mismatch: %+v", sc.Steps[1])
	}
	// unspecified fields keep their defaults
	if sc.Steps[0].Coupling != 1 || sc.Steps[0].TrainFrac != 0.8 {
		t.Errorf("expected defaults, got coupling=%g train_frac=%g", sc.Steps[0].Coupling, sc.Steps[0].TrainFrac)
	}
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no steps", "name: empty\n"},
		{"bad model", "steps:\n  - model: potts\n"},
		{"bad size", "steps:\n  - size: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.data))
			if !errors.Is(err, lattice.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(sc.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(sc.Steps))
	}

	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if len(results[0].Result.Points) != 2 || len(results[1].Result.Points) != 1 {
		t.Errorf("unexpected point counts")
	}
	if results[1].Result.Model != "gauge" {
		t.Errorf("expected gauge step, got %s", results[1].Result.Model)
	}
}

func TestRunScenarioCanceled(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := RunScenario(ctx, sc, experiment.NewRegistry())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no completed steps, got %d", len(results))
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &SizeSweep{
		Base: experiment.Config{
			Model:         "ising",
			Coupling:      1,
			Seed:          3,
			Temperatures:  []float64{1.5, 2.3, 4.0},
			ThermalSweeps: 50,
			Bins:          10,
			SweepsPerBin:  2,
			TrainFrac:     0.8,
			DatasetDir:    filepath.Join(t.TempDir(), "ignored"),
		},
		Sizes: []int{4, 6},
	}

	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Result.Size != r.Size {
			t.Errorf("size mismatch: %d vs %d", r.Result.Size, r.Size)
		}
		found := false
		for _, temp := range sweep.Base.Temperatures {
			if temp == r.PeakTemperature {
				found = true
			}
		}
		if !found {
			t.Errorf("peak temperature %g not on the grid", r.PeakTemperature)
		}
		if r.PeakSusceptibility < 0 || r.PeakSpecificHeat < 0 {
			t.Errorf("negative peaks: %+v", r)
		}
	}
	if _, err := os.Stat(sweep.Base.DatasetDir); !os.IsNotExist(err) {
		t.Error("sweep should not write a dataset")
	}
}

func TestRunSweepNoSizes(t *testing.T) {
	_, err := RunSweep(context.Background(), &SizeSweep{}, experiment.NewRegistry())
	if !errors.Is(err, lattice.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}
