package Transport

// Initialize samples the initial value at the leaf cell centers.
func Initialize(m Mesh, mapper Mapper, p Problem) (c []float64) {
	c = make([]float64, mapper.Size())
	for _, h := range m.LeafCells() {
		c[mapper.Index(h)] = p.InitialValue(m.Center(h))
	}
	return
}
