package lattice

// hamiltonian is the per-variant energy strategy, chosen once in New.
type hamiltonian interface {
	energy(m *Model) float64
	// deltaE is the energy change of flipping spin i, from local terms only.
	deltaE(m *Model, i int) float64
}

func hamiltonianFor(v Variant) hamiltonian {
	if v == Gauge {
		return plaquetteHamiltonian{}
	}
	return bondHamiltonian{}
}

// bondHamiltonian is the Ising energy -J sum s_i s_j over nearest neighbours.
type bondHamiltonian struct{}

func (bondHamiltonian) energy(m *Model) float64 {
	var sum int
	for i := 0; i < m.sites; i++ {
		nb := m.nbr.Of(i)
		s := int(m.spins[i])
		// right and down only, so every bond is counted once
		sum += s*int(m.spins[nb[Right]]) + s*int(m.spins[nb[Down]])
	}
	return -m.coupling * float64(sum)
}

func (bondHamiltonian) deltaE(m *Model, i int) float64 {
	if m.size == 1 {
		return 0
	}
	var sum int
	for _, j := range m.nbr.Of(i) {
		sum += int(m.spins[j])
	}
	return 2 * m.coupling * float64(int(m.spins[i])*sum)
}

// plaquetteHamiltonian is the Z2 gauge energy -J sum over plaquettes of the
// product of the four bounding links. Site p owns links 2p (right) and
// 2p+1 (down).
type plaquetteHamiltonian struct{}

func (plaquetteHamiltonian) energy(m *Model) float64 {
	var sum int
	for p := 0; p < m.sites; p++ {
		sum += m.plaquette(p)
	}
	return -m.coupling * float64(sum)
}

func (plaquetteHamiltonian) deltaE(m *Model, l int) float64 {
	if m.size == 1 {
		return 0
	}
	first := l / 2
	var second int
	if l%2 == 0 {
		// right link of first is the bottom edge of the plaquette above
		second = m.nbr.Neighbor(first, Up)
	} else {
		// down link of first is the right edge of the plaquette to the left
		second = m.nbr.Neighbor(first, Left)
	}
	return 2 * m.coupling * float64(m.plaquette(first)+m.plaquette(second))
}

// plaquette is the product of the links bounding the face anchored at p.
func (m *Model) plaquette(p int) int {
	nb := m.nbr.Of(p)
	return int(m.spins[2*p]) *
		int(m.spins[2*p+1]) *
		int(m.spins[2*nb[Down]]) *
		int(m.spins[2*nb[Right]+1])
}
