package grid

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/types"
)

/*
An Intersection is the part of a leaf cell's face shared with exactly one other leaf cell, or
with the domain boundary. Where the neighbor across a face is refined further, the face is
split into one intersection per adjacent leaf and the geometry is that of the finer face, so
both sides of a shared face always see the same measure and center.
*/
type Intersection struct {
	Inside, Outside Handle // Outside is NoCell on the boundary
	Neighbor        bool
	Boundary        bool
	Face            int        // Local face number, 2*axis for the low side and 2*axis+1 for the high side
	Side            types.Side // Domain side, only meaningful on the boundary
	Normal          r3.Vec     // Unit outer normal
	Measure         float64    // Face area (length in 2D, 1 in 1D)
	Center          r3.Vec
}

// IntegrationOuterNormal is the outer normal scaled by the face measure.
func (is Intersection) IntegrationOuterNormal() r3.Vec {
	return r3.Scale(is.Measure, is.Normal)
}

func (g *Grid) faceMeasure(level, axis int) (m float64) {
	hs := g.cellSize(level)
	m = 1
	for a := 0; a < g.Dim; a++ {
		if a != axis {
			m *= comp(hs, a)
		}
	}
	return
}

func (g *Grid) faceCenter(h Handle, axis, dir int) (x r3.Vec) {
	x = g.Center(h)
	hs := g.cellSize(g.cells[h].level)
	setComp(&x, axis, comp(x, axis)+0.5*float64(dir)*comp(hs, axis))
	return
}

// Intersections lists every intersection of the leaf cell h with its neighbors and the boundary,
// face by face.
func (g *Grid) Intersections(h Handle) (iss []Intersection) {
	c := g.cell(h)
	iss = make([]Intersection, 0, 2*g.Dim)
	for a := 0; a < g.Dim; a++ {
		for s := 0; s < 2; s++ {
			var (
				dir    = 2*s - 1
				face   = 2*a + s
				normal = r3.Scale(float64(dir), Axis(a))
				own    = Intersection{
					Inside:  h,
					Outside: NoCell,
					Face:    face,
					Side:    types.Side(face),
					Normal:  normal,
					Measure: g.faceMeasure(c.level, a),
					Center:  g.faceCenter(h, a, dir),
				}
				nb = c.coord
			)
			nb[a] += dir
			if nb[a] < 0 || nb[a] >= g.cellsAlong(c.level, a) {
				own.Boundary = true
				iss = append(iss, own)
				continue
			}
			if nh, ok := g.lookup[types.NewCellKey(c.level, nb)]; ok {
				// Same level neighbor, or a refined region to collect leaves from
				g.collectFaceLeaves(nh, a, dir, func(leaf Handle) {
					is := own
					is.Outside = leaf
					is.Neighbor = true
					if g.cells[leaf].level != c.level {
						is.Measure = g.faceMeasure(g.cells[leaf].level, a)
						is.Center = g.faceCenter(leaf, a, -dir)
					}
					iss = append(iss, is)
				})
				continue
			}
			own.Outside = g.coarserNeighbor(c.level, nb)
			own.Neighbor = true
			iss = append(iss, own)
		}
	}
	return
}

// collectFaceLeaves visits the leaves below nh touching the face of nh that looks back along -dir.
func (g *Grid) collectFaceLeaves(nh Handle, axis, dir int, visit func(leaf Handle)) {
	c := &g.cells[nh]
	if len(c.children) == 0 {
		visit(nh)
		return
	}
	// Children adjacent to the shared face have the low bit along axis when dir > 0
	want := 0
	if dir < 0 {
		want = 1
	}
	for b, ch := range c.children {
		if (b>>axis)&1 == want {
			g.collectFaceLeaves(ch, axis, dir, visit)
		}
	}
}

// coarserNeighbor finds the leaf covering the address (level, coord) when no cell exists there.
func (g *Grid) coarserNeighbor(level int, coord [3]int) Handle {
	key := types.NewCellKey(level, coord)
	for lev := level - 1; lev >= 0; lev-- {
		key = key.Parent()
		if nh, ok := g.lookup[key]; ok {
			if len(g.cells[nh].children) != 0 {
				panic("grid hierarchy is inconsistent: covering cell is not a leaf")
			}
			return nh
		}
	}
	panic("grid hierarchy is inconsistent: no covering cell found")
}
