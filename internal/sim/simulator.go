package sim

import (
	"context"
	"fmt"
)

type Simulator struct {
	lat       Lattice
	metrics   []Metric
	observers []Observer
}

func New(lat Lattice) *Simulator {
	return &Simulator{
		lat:       lat,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run thermalizes the lattice at temperature and then takes cfg.Samples
// measurements, each after cfg.SweepsPerSample sweeps.
func (s *Simulator) Run(ctx context.Context, temperature float64, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Temperature:    temperature,
		Energies:       make([]float64, 0, cfg.Samples),
		Magnetizations: make([]int, 0, cfg.Samples),
		Metrics:        make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := s.lat.Stats()

	for i := 0; i < cfg.ThermalSweeps; i++ {
		if err := s.sweep(ctx, temperature, result); err != nil {
			return result, err
		}
	}

	for idx := 0; idx < cfg.Samples; idx++ {
		for k := 0; k < cfg.SweepsPerSample; k++ {
			if err := s.sweep(ctx, temperature, result); err != nil {
				return result, err
			}
		}

		sample, err := s.measure(idx, temperature)
		if err != nil {
			return result, &SampleError{Sample: idx, Temperature: temperature, Wrapped: err}
		}

		result.Energies = append(result.Energies, sample.Energy)
		result.Magnetizations = append(result.Magnetizations, sample.Magnetization)

		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			if err := obs.OnSample(sample, s.lat); err != nil {
				return result, &SampleError{Sample: idx, Temperature: temperature, Wrapped: err}
			}
		}
	}

	end := s.lat.Stats()
	if proposed := end.Proposed - start.Proposed; proposed > 0 {
		result.Acceptance = float64(end.Accepted-start.Accepted) / float64(proposed)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) sweep(ctx context.Context, temperature float64, result *Result) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := s.lat.Sweep(temperature); err != nil {
		return err
	}
	result.SweepsTaken++
	return nil
}

func (s *Simulator) measure(idx int, temperature float64) (Sample, error) {
	e, err := s.lat.Energy()
	if err != nil {
		return Sample{}, err
	}
	mag, err := s.lat.Magnetization()
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Index:         idx,
		Temperature:   temperature,
		Energy:        e,
		Magnetization: mag,
		NumSpins:      s.lat.NumSpins(),
	}, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.ThermalSweeps < 0 {
		return fmt.Errorf("thermal sweeps must be non-negative, got %d", cfg.ThermalSweeps)
	}
	if cfg.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", cfg.Samples)
	}
	if cfg.SweepsPerSample <= 0 {
		return fmt.Errorf("sweeps per sample must be positive, got %d", cfg.SweepsPerSample)
	}
	return nil
}
