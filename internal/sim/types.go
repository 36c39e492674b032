package sim

import (
	"fmt"

	"github.com/san-kum/spinlab/internal/lattice"
)

// Lattice is the part of a spin model the simulator drives.
type Lattice interface {
	Sweep(temperature float64) error
	Energy() (float64, error)
	Magnetization() (int, error)
	NumSpins() int
	Stats() lattice.Stats
	Spins() []int8
	CriticalTemperature() float64
}

// Sample is one measurement taken after a block of sweeps.
type Sample struct {
	Index         int
	Temperature   float64
	Energy        float64
	Magnetization int
	NumSpins      int
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer sees every sample together with the live lattice. It must not
// mutate the lattice.
type Observer interface {
	OnSample(s Sample, l Lattice) error
}

type Config struct {
	ThermalSweeps   int `yaml:"thermal_sweeps"`
	Samples         int `yaml:"samples"`
	SweepsPerSample int `yaml:"sweeps_per_sample"`
}

func DefaultConfig() Config {
	return Config{
		ThermalSweeps:   1000,
		Samples:         100,
		SweepsPerSample: 10,
	}
}

type Result struct {
	Temperature    float64
	Energies       []float64
	Magnetizations []int
	Metrics        map[string]float64
	Acceptance     float64
	SweepsTaken    int
}

// SampleError wraps a failure with the sample it happened at.
type SampleError struct {
	Sample      int
	Temperature float64
	Wrapped     error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (T=%.4f): %v", e.Sample, e.Temperature, e.Wrapped)
}

func (e *SampleError) Unwrap() error {
	return e.Wrapped
}
