package lattice

import (
	"fmt"
	"strings"
)

// Variant selects the spin model living on the lattice.
type Variant int

const (
	Ising Variant = iota + 1
	Gauge
)

func (v Variant) String() string {
	switch v {
	case Ising:
		return "ising"
	case Gauge:
		return "gauge"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant maps a variant name to its Variant.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ising":
		return Ising, nil
	case "gauge":
		return Gauge, nil
	}
	return 0, fmt.Errorf("%w: unknown variant %q", ErrConfiguration, name)
}

// Variants lists every supported variant.
func Variants() []Variant {
	return []Variant{Ising, Gauge}
}

func (v Variant) valid() bool {
	return v == Ising || v == Gauge
}

// spinsPerSite is 1 for site spins and 2 for link spins (right and down).
func (v Variant) spinsPerSite() int {
	if v == Gauge {
		return 2
	}
	return 1
}
