// Package lattice provides two-dimensional spin models on a periodic
// square lattice, evolved with single-spin-flip Metropolis Monte Carlo.
//
// Two variants share the same machinery:
//
//   - [Ising]: one spin per site, nearest-neighbour bonds
//   - [Gauge]: Z2 lattice gauge theory, one spin per link, plaquette terms
//
// A [Model] is built once with [New], populated with [Model.Initialize]
// (or [Model.SetSpins] for fixed fixtures) and then advanced with
// [Model.Sweep]. Observables are recomputed on demand:
//
//	m, _ := lattice.New(16, lattice.DefaultCoupling, lattice.Ising)
//	m.Initialize(42)
//	for i := 0; i < 1000; i++ {
//	    _ = m.Sweep(2.0)
//	}
//	e, _ := m.Energy()
//
// # Thread Safety
//
// Model instances are NOT thread-safe. Each model owns its spin buffer and
// its random stream; run independent models for independent chains.
package lattice
