package lattice

import (
	"fmt"
	"math"
)

// DefaultCoupling is the interaction strength used when none is given.
const DefaultCoupling = 1.0

// Model is a spin configuration on a periodic size x size lattice.
type Model struct {
	size     int
	sites    int
	nspins   int
	coupling float64
	variant  Variant
	critT    float64

	nbr *NeighborTable
	ham hamiltonian

	spins       []int8
	initialized bool

	newSource SourceFactory
	rng       Source

	proposed uint64
	accepted uint64
}

// Stats counts Metropolis trials since the last (re)initialization.
type Stats struct {
	Proposed uint64
	Accepted uint64
}

// AcceptanceRate is Accepted/Proposed, or 0 before any trial.
func (s Stats) AcceptanceRate() float64 {
	if s.Proposed == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Proposed)
}

// New builds a model and its neighbour table. The spin configuration is
// empty until Initialize or SetSpins is called.
func New(size int, coupling float64, variant Variant, opts ...Option) (*Model, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: lattice size must be positive, got %d", ErrConfiguration, size)
	}
	if !variant.valid() {
		return nil, fmt.Errorf("%w: unknown variant %s", ErrConfiguration, variant)
	}
	// Tc = 2/(J ln(1+sqrt2)) is undefined for J = 0
	if !(coupling > 0) || math.IsInf(coupling, 0) {
		return nil, fmt.Errorf("%w: coupling must be positive and finite, got %g", ErrConfiguration, coupling)
	}

	sites := size * size
	m := &Model{
		size:      size,
		sites:     sites,
		nspins:    sites * variant.spinsPerSite(),
		coupling:  coupling,
		variant:   variant,
		critT:     CriticalTemperature(coupling),
		nbr:       NewNeighborTable(size),
		ham:       hamiltonianFor(variant),
		newSource: defaultSource,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CriticalTemperature is the exact Onsager temperature of the infinite 2D
// Ising model, used as the phase threshold for both variants.
func CriticalTemperature(coupling float64) float64 {
	return 2.0 / (coupling * math.Log(1.0+math.Sqrt2))
}

// Initialize reseeds the model's stream and draws every spin uniformly
// from {+1, -1}, emulating an uncorrelated high-temperature state.
func (m *Model) Initialize(seed int64) {
	m.rng = m.newSource(seed)
	if m.spins == nil {
		m.spins = make([]int8, m.nspins)
	}
	for i := range m.spins {
		m.spins[i] = int8(2*m.rng.Intn(2) - 1)
	}
	m.initialized = true
	m.proposed, m.accepted = 0, 0
}

// SetSpins loads a fixed configuration and marks the model initialized.
// The random stream is left untouched; a model that was never initialized
// needs Reseed before Sweep.
func (m *Model) SetSpins(spins []int8) error {
	if len(spins) != m.nspins {
		return fmt.Errorf("%w: expected %d spins, got %d", ErrConfiguration, m.nspins, len(spins))
	}
	for i, s := range spins {
		if s != 1 && s != -1 {
			return fmt.Errorf("%w: spin %d is %d, want +1 or -1", ErrConfiguration, i, s)
		}
	}
	if m.spins == nil {
		m.spins = make([]int8, m.nspins)
	}
	copy(m.spins, spins)
	m.initialized = true
	m.proposed, m.accepted = 0, 0
	return nil
}

// Reseed replaces the random stream without touching the spins.
func (m *Model) Reseed(seed int64) {
	m.rng = m.newSource(seed)
}

// Energy is the total energy of the current configuration.
func (m *Model) Energy() (float64, error) {
	if !m.initialized {
		return 0, ErrState
	}
	return m.ham.energy(m), nil
}

// Magnetization is the sum of all spins, in [-NumSpins, NumSpins].
func (m *Model) Magnetization() (int, error) {
	if !m.initialized {
		return 0, ErrState
	}
	var sum int
	for _, s := range m.spins {
		sum += int(s)
	}
	return sum, nil
}

// Sweep performs one Monte Carlo step: NumSpins single-spin-flip trials on
// spins chosen uniformly with replacement. A flip with dE <= 0 is accepted
// without drawing; otherwise one draw is compared against exp(-dE/T).
func (m *Model) Sweep(temperature float64) error {
	if !(temperature > 0) || math.IsInf(temperature, 0) {
		return fmt.Errorf("%w: temperature must be positive and finite, got %g", ErrConfiguration, temperature)
	}
	if !m.initialized {
		return ErrState
	}
	if m.rng == nil {
		return fmt.Errorf("%w: no random stream, call Initialize or Reseed", ErrState)
	}

	beta := 1.0 / temperature
	for trial := 0; trial < m.nspins; trial++ {
		i := m.rng.Intn(m.nspins)
		dE := m.ham.deltaE(m, i)
		m.proposed++
		if dE <= 0 || m.rng.Float64() < math.Exp(-dE*beta) {
			m.spins[i] = -m.spins[i]
			m.accepted++
		}
	}
	return nil
}

// DeltaE is the energy change flipping spin i would cause.
func (m *Model) DeltaE(i int) (float64, error) {
	if !m.initialized {
		return 0, ErrState
	}
	if i < 0 || i >= m.nspins {
		return 0, fmt.Errorf("%w: spin index %d out of range [0,%d)", ErrConfiguration, i, m.nspins)
	}
	return m.ham.deltaE(m, i), nil
}

// Phase labels a temperature: 1 (disordered) above Tc, else 0 (ordered).
func (m *Model) Phase(temperature float64) int {
	if temperature > m.critT {
		return 1
	}
	return 0
}

// Spins returns a copy of the configuration.
func (m *Model) Spins() []int8 {
	out := make([]int8, len(m.spins))
	copy(out, m.spins)
	return out
}

// Spin returns the value of spin i. It panics if i is out of range.
func (m *Model) Spin(i int) int8 { return m.spins[i] }

func (m *Model) Size() int                    { return m.size }
func (m *Model) Sites() int                   { return m.sites }
func (m *Model) NumSpins() int                { return m.nspins }
func (m *Model) Coupling() float64            { return m.coupling }
func (m *Model) Variant() Variant             { return m.variant }
func (m *Model) CriticalTemperature() float64 { return m.critT }
func (m *Model) Neighbors() *NeighborTable    { return m.nbr }
func (m *Model) Initialized() bool            { return m.initialized }
func (m *Model) Stats() Stats                 { return Stats{Proposed: m.proposed, Accepted: m.accepted} }
