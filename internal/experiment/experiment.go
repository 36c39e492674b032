package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/spinlab/internal/dataset"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/logger"
	"github.com/san-kum/spinlab/internal/metrics"
	"github.com/san-kum/spinlab/internal/sim"
)

type Config struct {
	Model         string
	Size          int
	Coupling      float64
	Seed          int64
	Temperatures  []float64
	ThermalSweeps int
	Bins          int
	SweepsPerBin  int
	TrainFrac     float64
	// DatasetDir enables the train/test writer when non-empty.
	DatasetDir string
}

// Point holds the observables measured at one temperature.
type Point struct {
	Temperature    float64 `json:"temperature"`
	Phase          int     `json:"phase"`
	Energy         float64 `json:"energy"`
	Magnetization  float64 `json:"magnetization"`
	SpecificHeat   float64 `json:"specific_heat"`
	Susceptibility float64 `json:"susceptibility"`
	Acceptance     float64 `json:"acceptance"`
}

type Result struct {
	Model               string
	Size                int
	Coupling            float64
	CriticalTemperature float64
	Points              []Point
	TrainSamples        int
	TestSamples         int
	Elapsed             time.Duration
}

type Experiment struct {
	cfg   Config
	model *lattice.Model
	log   *slog.Logger
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg, log: logger.L()}
}

// WithLogger replaces the package logger for this experiment.
func (e *Experiment) WithLogger(l *slog.Logger) *Experiment {
	if l != nil {
		e.log = l
	}
	return e
}

// Setup builds the lattice model from the registry.
func (e *Experiment) Setup(r *Registry, opts ...lattice.Option) error {
	if err := e.validate(); err != nil {
		return err
	}
	m, err := r.GetModel(e.cfg.Model, e.cfg.Size, e.cfg.Coupling, opts...)
	if err != nil {
		return err
	}
	e.model = m
	return nil
}

// Model returns the lattice built by Setup.
func (e *Experiment) Model() *lattice.Model {
	return e.model
}

// Run scans the configured temperatures. Every point starts from a fresh
// hot configuration seeded with Seed+index, is thermalized, and then
// sampled Bins times, one sample per SweepsPerBin sweeps.
func (e *Experiment) Run(ctx context.Context) (res *Result, err error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	var writer *dataset.Writer
	if e.cfg.DatasetDir != "" {
		writer, err = dataset.NewWriter(e.cfg.DatasetDir, e.cfg.Bins, e.cfg.TrainFrac, e.cfg.Seed)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := writer.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close dataset: %w", cerr))
			}
		}()
	}

	res = &Result{
		Model:               e.cfg.Model,
		Size:                e.model.Size(),
		Coupling:            e.model.Coupling(),
		CriticalTemperature: e.model.CriticalTemperature(),
		Points:              make([]Point, 0, len(e.cfg.Temperatures)),
	}

	simCfg := sim.Config{
		ThermalSweeps:   e.cfg.ThermalSweeps,
		Samples:         e.cfg.Bins,
		SweepsPerSample: e.cfg.SweepsPerBin,
	}

	start := time.Now()
	e.log.Info("experiment.start",
		"model", e.cfg.Model,
		"size", e.cfg.Size,
		"coupling", e.cfg.Coupling,
		"points", len(e.cfg.Temperatures),
		"tc", res.CriticalTemperature,
	)

	for idx, temp := range e.cfg.Temperatures {
		e.model.Initialize(e.cfg.Seed + int64(idx))

		s := sim.New(e.model)
		for _, m := range metrics.Defaults() {
			s.AddMetric(m)
		}
		if writer != nil {
			s.AddObserver(writer)
		}

		out, err := s.Run(ctx, temp, simCfg)
		if err != nil {
			return res, fmt.Errorf("temperature %.4f: %w", temp, err)
		}

		p := Point{
			Temperature:    temp,
			Phase:          e.model.Phase(temp),
			Energy:         out.Metrics["energy"],
			Magnetization:  out.Metrics["magnetization"],
			SpecificHeat:   out.Metrics["specific_heat"],
			Susceptibility: out.Metrics["susceptibility"],
			Acceptance:     out.Acceptance,
		}
		res.Points = append(res.Points, p)

		e.log.Debug("experiment.point",
			"index", idx,
			"temperature", temp,
			"energy", p.Energy,
			"magnetization", p.Magnetization,
			"acceptance", p.Acceptance,
		)
	}

	if writer != nil {
		res.TrainSamples, res.TestSamples = writer.Counts()
	}
	res.Elapsed = time.Since(start)

	e.log.Info("experiment.done", "model", e.cfg.Model, "elapsed", res.Elapsed, "train", res.TrainSamples, "test", res.TestSamples)
	return res, nil
}

func (e *Experiment) validate() error {
	c := e.cfg
	if len(c.Temperatures) == 0 {
		return fmt.Errorf("%w: no temperatures", lattice.ErrConfiguration)
	}
	seen := make(map[float64]bool, len(c.Temperatures))
	for _, t := range c.Temperatures {
		if !(t > 0) {
			return fmt.Errorf("%w: temperature must be positive, got %g", lattice.ErrConfiguration, t)
		}
		if seen[t] {
			return fmt.Errorf("%w: temperature %g listed twice", lattice.ErrConfiguration, t)
		}
		seen[t] = true
	}
	if c.Bins <= 0 {
		return fmt.Errorf("%w: bins must be positive, got %d", lattice.ErrConfiguration, c.Bins)
	}
	if c.SweepsPerBin <= 0 {
		return fmt.Errorf("%w: sweeps per bin must be positive, got %d", lattice.ErrConfiguration, c.SweepsPerBin)
	}
	if c.ThermalSweeps < 0 {
		return fmt.Errorf("%w: thermal sweeps must be non-negative, got %d", lattice.ErrConfiguration, c.ThermalSweeps)
	}
	if c.TrainFrac < 0 || c.TrainFrac > 1 {
		return fmt.Errorf("%w: train fraction must be in [0,1], got %g", lattice.ErrConfiguration, c.TrainFrac)
	}
	return nil
}
