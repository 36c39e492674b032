package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/spinlab/internal/dataset"
	"github.com/san-kum/spinlab/internal/lattice"
)

func baseConfig() Config {
	return Config{
		Model:         "ising",
		Size:          4,
		Coupling:      1,
		Seed:          3,
		Temperatures:  []float64{1.0, 4.0},
		ThermalSweeps: 20,
		Bins:          10,
		SweepsPerBin:  2,
		TrainFrac:     0.8,
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	models := r.ListModels()
	if len(models) != 2 || models[0] != "gauge" || models[1] != "ising" {
		t.Errorf("expected [gauge ising], got %v", models)
	}

	m, err := r.GetModel("gauge", 3, 1)
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	if m.Variant() != lattice.Gauge || m.NumSpins() != 18 {
		t.Errorf("unexpected model %s with %d spins", m.Variant(), m.NumSpins())
	}

	if _, err := r.GetModel("potts", 3, 1); !errors.Is(err, lattice.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunWithoutSetup(t *testing.T) {
	if _, err := New(baseConfig()).Run(context.Background()); err == nil {
		t.Error("expected error running without setup")
	}
}

func TestSetupValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no temperatures", func(c *Config) { c.Temperatures = nil }},
		{"zero temperature", func(c *Config) { c.Temperatures = []float64{0} }},
		{"repeated temperature", func(c *Config) { c.Temperatures = []float64{1.0, 1.0} }},
		{"zero bins", func(c *Config) { c.Bins = 0 }},
		{"zero sweeps per bin", func(c *Config) { c.SweepsPerBin = 0 }},
		{"negative thermalization", func(c *Config) { c.ThermalSweeps = -5 }},
		{"train fraction above one", func(c *Config) { c.TrainFrac = 2 }},
		{"bad size", func(c *Config) { c.Size = 0 }},
		{"unknown model", func(c *Config) { c.Model = "xy" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			if err := New(cfg).Setup(NewRegistry()); !errors.Is(err, lattice.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestRunTemperatureScan(t *testing.T) {
	exp := New(baseConfig())
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(res.Points))
	}
	cold, hot := res.Points[0], res.Points[1]
	if cold.Phase != 0 || hot.Phase != 1 {
		t.Errorf("expected phases 0/1, got %d/%d", cold.Phase, hot.Phase)
	}
	if cold.Energy >= hot.Energy {
		t.Errorf("expected lower energy at low temperature: %f vs %f", cold.Energy, hot.Energy)
	}
	if cold.Acceptance >= hot.Acceptance {
		t.Errorf("expected lower acceptance at low temperature: %f vs %f", cold.Acceptance, hot.Acceptance)
	}
	if res.TrainSamples != 0 || res.TestSamples != 0 {
		t.Error("expected no dataset samples without a dataset dir")
	}
}

func TestRunReproducible(t *testing.T) {
	run := func() *Result {
		exp := New(baseConfig())
		if err := exp.Setup(NewRegistry()); err != nil {
			t.Fatalf("setup: %v", err)
		}
		res, err := exp.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}

	a, b := run(), run()
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Errorf("point %d differs: %+v vs %+v", i, a.Points[i], b.Points[i])
		}
	}
}

func TestRunWritesDataset(t *testing.T) {
	cfg := baseConfig()
	cfg.Model = "gauge"
	cfg.DatasetDir = t.TempDir()

	exp := New(cfg)
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// 8 of 10 bins per temperature go to train
	if res.TrainSamples != 16 || res.TestSamples != 4 {
		t.Errorf("expected 16/4 train/test samples, got %d/%d", res.TrainSamples, res.TestSamples)
	}

	train, err := dataset.Load(cfg.DatasetDir, dataset.Train)
	if err != nil {
		t.Fatalf("load train: %v", err)
	}
	if len(train.Configs) != 16 || len(train.Configs[0]) != 32 {
		t.Errorf("unexpected train shape %d x %d", len(train.Configs), len(train.Configs[0]))
	}
	zeros, ones := 0, 0
	for _, l := range train.Labels {
		if l == 0 {
			zeros++
		} else {
			ones++
		}
	}
	if zeros != 8 || ones != 8 {
		t.Errorf("expected 8 ordered and 8 disordered labels, got %d/%d", zeros, ones)
	}
}

func TestRunCanceled(t *testing.T) {
	exp := New(baseConfig())
	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exp.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
