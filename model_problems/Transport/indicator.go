package Transport

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MinGlobalDelta is the field range below which the field counts as uniform and nothing is marked
const MinGlobalDelta = 1.e-12

// Marker decides which leaves to refine or coarsen from the jumps of the field across faces.
type Marker struct {
	RefineTol, CoarsenTol float64
	LMin, LMax            int
}

func NewMarker(refineTol, coarsenTol float64, lmin, lmax int) *Marker {
	return &Marker{
		RefineTol:  refineTol,
		CoarsenTol: coarsenTol,
		LMin:       lmin,
		LMax:       lmax,
	}
}

// Indicate returns the largest jump |c_j - c_i| across the faces of each leaf, and the range of c.
// Boundary faces contribute nothing.
func (mk *Marker) Indicate(m Mesh, mapper Mapper, c []float64) (indicator []float64, globalMin, globalMax float64) {
	checkField(mapper, c)
	indicator = make([]float64, len(c))
	if len(c) == 0 {
		return
	}
	globalMin, globalMax = floats.Min(c), floats.Max(c)
	for _, h := range m.LeafCells() {
		i := mapper.Index(h)
		level := m.Level(h)
		for _, is := range m.Intersections(h) {
			if !is.Neighbor {
				continue
			}
			j := mapper.Index(is.Outside)
			nbLevel := m.Level(is.Outside)
			// Each face once, with the same rule as the flux
			if level > nbLevel || (level == nbLevel && i < j) {
				delta := math.Abs(c[j] - c[i])
				indicator[i] = math.Max(indicator[i], delta)
				indicator[j] = math.Max(indicator[j], delta)
			}
		}
	}
	return
}

/*
Mark flags leaves whose indicator exceeds RefineTol times the field range for refinement, along
with their same level or finer neighbors, and leaves below CoarsenTol times the range for
coarsening. Refinement is bounded by LMax unless the leaf is irregular, coarsening by LMin.
It returns the number of leaves carrying a mark.
*/
func (mk *Marker) Mark(m AdaptiveMesh, mapper Mapper, c []float64) (marked int) {
	indicator, globalMin, globalMax := mk.Indicate(m, mapper, c)
	globalDelta := globalMax - globalMin
	if globalDelta < MinGlobalDelta {
		return
	}
	var (
		refineAbove  = mk.RefineTol * globalDelta
		coarsenBelow = mk.CoarsenTol * globalDelta
		leaves       = m.LeafCells()
	)
	for _, h := range leaves {
		ind := indicator[mapper.Index(h)]
		level := m.Level(h)
		if ind > refineAbove && (level < mk.LMax || !m.IsRegular(h)) {
			m.Mark(1, h)
			for _, is := range m.Intersections(h) {
				if !is.Neighbor || m.Level(is.Outside) < level {
					continue
				}
				if m.Level(is.Outside) < mk.LMax || !m.IsRegular(is.Outside) {
					m.Mark(1, is.Outside)
				}
			}
		}
		if ind < coarsenBelow && level > mk.LMin {
			m.Mark(-1, h)
		}
	}
	for _, h := range leaves {
		if m.GetMark(h) != 0 {
			marked++
		}
	}
	return
}
