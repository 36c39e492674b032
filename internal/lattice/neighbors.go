package lattice

// Direction indexes the four nearest neighbours of a site.
type Direction int

const (
	Right Direction = iota
	Down
	Left
	Up
)

// NeighborTable holds the four periodic neighbours of every site,
// row-major (row = i / size, col = i % size). Read-only after construction.
type NeighborTable struct {
	size  int
	sites int
	nbr   [][4]int
}

// NewNeighborTable precomputes neighbours for a size x size torus.
// size must be positive; New validates it before calling.
func NewNeighborTable(size int) *NeighborTable {
	n := size * size
	t := &NeighborTable{size: size, sites: n, nbr: make([][4]int, n)}

	for i := 0; i < n; i++ {
		col := i % size

		right := i + 1
		if col == size-1 {
			right = i + 1 - size
		}

		down := i + size
		if i >= n-size {
			down = i + size - n
		}

		left := i - 1
		if col == 0 {
			left = i - 1 + size
		}

		up := i - size
		if i < size {
			up = i - size + n
		}

		t.nbr[i] = [4]int{right, down, left, up}
	}

	return t
}

// Neighbor returns the site adjacent to i in direction d.
func (t *NeighborTable) Neighbor(i int, d Direction) int {
	return t.nbr[i][d]
}

// Of returns all four neighbours of i in {Right, Down, Left, Up} order.
func (t *NeighborTable) Of(i int) [4]int {
	return t.nbr[i]
}

func (t *NeighborTable) Size() int  { return t.size }
func (t *NeighborTable) Sites() int { return t.sites }
