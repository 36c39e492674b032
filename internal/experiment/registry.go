package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/spinlab/internal/lattice"
)

// ModelFactory builds an uninitialized model of one variant.
type ModelFactory func(size int, coupling float64, opts ...lattice.Option) (*lattice.Model, error)

type Registry struct {
	models map[string]ModelFactory
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]ModelFactory)}

	for _, v := range lattice.Variants() {
		r.models[v.String()] = func(size int, coupling float64, opts ...lattice.Option) (*lattice.Model, error) {
			return lattice.New(size, coupling, v, opts...)
		}
	}

	return r
}

func (r *Registry) GetModel(name string, size int, coupling float64, opts ...lattice.Option) (*lattice.Model, error) {
	fn, ok := r.models[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q (available: %v)", lattice.ErrConfiguration, name, r.ListModels())
	}
	return fn(size, coupling, opts...)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
