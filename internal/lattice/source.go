package lattice

import "math/rand"

// Source is the random stream a Model draws from. *rand.Rand satisfies it.
type Source interface {
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

// SourceFactory builds a fresh stream from a seed. It is called by
// Initialize, so reseeding never touches state shared with other models.
type SourceFactory func(seed int64) Source

func defaultSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Option configures a Model at construction.
type Option func(*Model)

// WithSource replaces the default math/rand stream.
func WithSource(f SourceFactory) Option {
	return func(m *Model) {
		if f != nil {
			m.newSource = f
		}
	}
}
