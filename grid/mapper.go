package grid

import (
	"fmt"
)

/*
LeafMapper numbers the leaf cells densely from 0 to Size()-1 in LeafCells() order. The numbering
is only valid for the grid generation it was computed on; after an Adapt that changed the grid,
Update must be called before the mapper is used again.
*/
type LeafMapper struct {
	g          *Grid
	index      []int // By handle, -1 for cells that are not leaves
	size       int
	generation int
}

func NewLeafMapper(g *Grid) (m *LeafMapper) {
	m = &LeafMapper{g: g}
	m.Update()
	return
}

func (m *LeafMapper) Update() {
	var (
		leaves = m.g.LeafCells()
	)
	if cap(m.index) < m.g.Capacity() {
		m.index = make([]int, m.g.Capacity())
	}
	m.index = m.index[:m.g.Capacity()]
	for i := range m.index {
		m.index[i] = -1
	}
	for i, h := range leaves {
		m.index[h] = i
	}
	m.size = len(leaves)
	m.generation = m.g.Generation()
}

func (m *LeafMapper) checkFresh() {
	if m.generation != m.g.Generation() {
		panic("leaf mapper used after the grid changed, call Update first")
	}
}

func (m *LeafMapper) Index(h Handle) (i int) {
	m.checkFresh()
	if h < 0 || int(h) >= len(m.index) || m.index[h] < 0 {
		panic(fmt.Errorf("cell %d is not a leaf cell", h))
	}
	return m.index[h]
}

// Contains reports whether h is a leaf cell numbered by the mapper.
func (m *LeafMapper) Contains(h Handle) bool {
	m.checkFresh()
	return h >= 0 && int(h) < len(m.index) && m.index[h] >= 0
}

func (m *LeafMapper) Size() int {
	m.checkFresh()
	return m.size
}
