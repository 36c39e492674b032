package metrics

import (
	"math"

	"github.com/san-kum/spinlab/internal/sim"
)

// moments accumulates first and second moments of a sampled quantity.
type moments struct {
	samples int
	sum     float64
	sumSq   float64
}

func (m *moments) add(x float64) {
	m.samples++
	m.sum += x
	m.sumSq += x * x
}

func (m *moments) mean() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

// variance is the population variance <x^2> - <x>^2, clamped at zero.
func (m *moments) variance() float64 {
	if m.samples == 0 {
		return 0
	}
	mu := m.mean()
	return math.Max(0, m.sumSq/float64(m.samples)-mu*mu)
}

func (m *moments) reset() { *m = moments{} }

// Energy is the mean energy per spin.
type Energy struct {
	m      moments
	nspins int
}

func NewEnergy() *Energy { return &Energy{} }

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(s sim.Sample) {
	e.nspins = s.NumSpins
	e.m.add(s.Energy)
}

func (e *Energy) Value() float64 {
	if e.nspins == 0 {
		return 0
	}
	return e.m.mean() / float64(e.nspins)
}

func (e *Energy) Reset() { e.m.reset() }

// Magnetization is the mean absolute magnetization per spin. The absolute
// value is taken per sample since finite lattices tunnel between signs.
type Magnetization struct {
	m      moments
	nspins int
}

func NewMagnetization() *Magnetization { return &Magnetization{} }

func (g *Magnetization) Name() string { return "magnetization" }

func (g *Magnetization) Observe(s sim.Sample) {
	g.nspins = s.NumSpins
	g.m.add(math.Abs(float64(s.Magnetization)))
}

func (g *Magnetization) Value() float64 {
	if g.nspins == 0 {
		return 0
	}
	return g.m.mean() / float64(g.nspins)
}

func (g *Magnetization) Reset() { g.m.reset() }

// SpecificHeat is (<E^2> - <E>^2) / (N T^2).
type SpecificHeat struct {
	m           moments
	nspins      int
	temperature float64
}

func NewSpecificHeat() *SpecificHeat { return &SpecificHeat{} }

func (c *SpecificHeat) Name() string { return "specific_heat" }

func (c *SpecificHeat) Observe(s sim.Sample) {
	c.nspins = s.NumSpins
	c.temperature = s.Temperature
	c.m.add(s.Energy)
}

func (c *SpecificHeat) Value() float64 {
	if c.nspins == 0 || c.temperature <= 0 {
		return 0
	}
	return c.m.variance() / (float64(c.nspins) * c.temperature * c.temperature)
}

func (c *SpecificHeat) Reset() { c.m.reset() }

// Susceptibility is (<M^2> - <|M|>^2) / (N T).
type Susceptibility struct {
	m           moments
	nspins      int
	temperature float64
}

func NewSusceptibility() *Susceptibility { return &Susceptibility{} }

func (x *Susceptibility) Name() string { return "susceptibility" }

func (x *Susceptibility) Observe(s sim.Sample) {
	x.nspins = s.NumSpins
	x.temperature = s.Temperature
	x.m.add(math.Abs(float64(s.Magnetization)))
}

func (x *Susceptibility) Value() float64 {
	if x.nspins == 0 || x.temperature <= 0 {
		return 0
	}
	return x.m.variance() / (float64(x.nspins) * x.temperature)
}

func (x *Susceptibility) Reset() { x.m.reset() }

// Defaults returns a fresh set of the standard thermodynamic metrics.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewEnergy(),
		NewMagnetization(),
		NewSpecificHeat(),
		NewSusceptibility(),
	}
}
