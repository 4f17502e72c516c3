package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/types"
)

/*
A Grid is a hierarchy of axis aligned box cells covering a box domain in 1, 2 or 3 dimensions.
The coarsest (level 0) cells form a Base[0] x Base[1] x Base[2] array of macro cells. Refining a
cell splits it into 2^Dim equal volume children, so a cell's address is its level plus integer
coordinates at that level.

Cells live in an arena and are referenced by a Handle, which stays valid for as long as the cell
exists. Handles of removed cells are recycled by later refinements.
*/
type Handle int

const NoCell Handle = -1

type cell struct {
	key      types.CellKey
	level    int
	coord    [3]int
	parent   Handle
	children []Handle
	mark     int8
	isNew    bool
	alive    bool
}

type adaptState uint8

const (
	stable adaptState = iota
	preAdapted
	adapted
)

type Grid struct {
	Dim            int
	Origin, Extent r3.Vec
	Base           [3]int
	cells          []cell
	free           []Handle
	lookup         map[types.CellKey]Handle
	macro          []Handle
	maxLevel       int
	generation     int
	state          adaptState
	// Traversal caches, rebuilt when the topology changes
	dirty  bool
	leaves []Handle
	levels [][]Handle
}

func NewGrid(dim int, origin, extent r3.Vec, base [3]int) (g *Grid, err error) {
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("grid dimension must be 1, 2 or 3, have %d", dim)
		return
	}
	for a := 0; a < 3; a++ {
		if a >= dim {
			base[a] = 1
			continue
		}
		if base[a] < 1 {
			err = fmt.Errorf("base cell count along axis %d must be positive, have %d", a, base[a])
			return
		}
		if comp(extent, a) <= 0 {
			err = fmt.Errorf("domain extent along axis %d must be positive, have %g", a, comp(extent, a))
			return
		}
	}
	g = &Grid{
		Dim:    dim,
		Origin: origin,
		Extent: extent,
		Base:   base,
		lookup: make(map[types.CellKey]Handle),
		dirty:  true,
	}
	for k := 0; k < base[2]; k++ {
		for j := 0; j < base[1]; j++ {
			for i := 0; i < base[0]; i++ {
				h := g.newCell(0, [3]int{i, j, k}, NoCell)
				g.macro = append(g.macro, h)
			}
		}
	}
	return
}

// NewUnitCube covers [0,1]^dim with n^dim macro cells.
func NewUnitCube(dim, n int) (g *Grid, err error) {
	var (
		extent r3.Vec
		base   [3]int
	)
	for a := 0; a < dim && a < 3; a++ {
		setComp(&extent, a, 1)
		base[a] = n
	}
	return NewGrid(dim, r3.Vec{}, extent, base)
}

func (g *Grid) newCell(level int, coord [3]int, parent Handle) (h Handle) {
	c := cell{
		key:    types.NewCellKey(level, coord),
		level:  level,
		coord:  coord,
		parent: parent,
		alive:  true,
	}
	if l := len(g.free); l != 0 {
		h = g.free[l-1]
		g.free = g.free[:l-1]
		g.cells[h] = c
	} else {
		h = Handle(len(g.cells))
		g.cells = append(g.cells, c)
	}
	g.lookup[c.key] = h
	if level > g.maxLevel {
		g.maxLevel = level
	}
	return
}

func (g *Grid) removeCell(h Handle) {
	c := &g.cells[h]
	delete(g.lookup, c.key)
	*c = cell{parent: NoCell}
	g.free = append(g.free, h)
}

func (g *Grid) refineCell(h Handle) {
	var (
		nc     = 1 << g.Dim
		level  = g.cells[h].level + 1
		coord  = g.cells[h].coord
		childs = make([]Handle, nc)
	)
	for b := 0; b < nc; b++ {
		var cc [3]int
		for a := 0; a < 3; a++ {
			cc[a] = 2*coord[a] + (b>>a)&1
			if a >= g.Dim {
				cc[a] = 0
			}
		}
		childs[b] = g.newCell(level, cc, h)
	}
	// The arena may have grown, take the address after allocation
	g.cells[h].children = childs
	g.cells[h].mark = 0
}

func (g *Grid) cell(h Handle) *cell {
	if h < 0 || int(h) >= len(g.cells) || !g.cells[h].alive {
		panic(fmt.Errorf("invalid cell handle %d", h))
	}
	return &g.cells[h]
}

// GlobalRefine refines every leaf cell, levels times. Cells created here are not flagged new.
func (g *Grid) GlobalRefine(levels int) {
	if g.state != stable {
		panic("GlobalRefine called during an adaptation cycle")
	}
	for n := 0; n < levels; n++ {
		for _, h := range g.LeafCells() {
			g.refineCell(h)
		}
		g.topologyChanged()
	}
}

func (g *Grid) topologyChanged() {
	g.generation++
	g.dirty = true
	g.maxLevel = 0
	for h := range g.cells {
		if g.cells[h].alive && g.cells[h].level > g.maxLevel {
			g.maxLevel = g.cells[h].level
		}
	}
}

func (g *Grid) rebuild() {
	if !g.dirty {
		return
	}
	g.leaves = make([]Handle, 0, len(g.leaves))
	g.levels = make([][]Handle, g.maxLevel+1)
	var visit func(h Handle)
	visit = func(h Handle) {
		c := &g.cells[h]
		g.levels[c.level] = append(g.levels[c.level], h)
		if len(c.children) == 0 {
			g.leaves = append(g.leaves, h)
			return
		}
		for _, ch := range c.children {
			visit(ch)
		}
	}
	for _, h := range g.macro {
		visit(h)
	}
	g.dirty = false
}

// LeafCells returns the current leaf cells in depth first order. The slice is owned by the grid
// and is valid until the next topology change.
func (g *Grid) LeafCells() []Handle {
	g.rebuild()
	return g.leaves
}

// LevelCells returns all cells on a level, leaf or not.
func (g *Grid) LevelCells(level int) []Handle {
	g.rebuild()
	if level < 0 || level > g.maxLevel {
		return nil
	}
	return g.levels[level]
}

func (g *Grid) MaxLevel() int { return g.maxLevel }

// Size is the number of leaf cells.
func (g *Grid) Size() int { return len(g.LeafCells()) }

// Capacity bounds every live handle: 0 <= h < Capacity().
func (g *Grid) Capacity() int { return len(g.cells) }

// Generation changes whenever the set of cells changes.
func (g *Grid) Generation() int { return g.generation }

func (g *Grid) Level(h Handle) int { return g.cell(h).level }

func (g *Grid) Coord(h Handle) [3]int { return g.cell(h).coord }

func (g *Grid) IsLeaf(h Handle) bool { return len(g.cell(h).children) == 0 }

// IsNew reports cells created by the last Adapt, until PostAdapt.
func (g *Grid) IsNew(h Handle) bool { return g.cell(h).isNew }

func (g *Grid) Father(h Handle) Handle { return g.cell(h).parent }

func (g *Grid) Children(h Handle) []Handle { return g.cell(h).children }

func (g *Grid) Contains(h Handle) bool {
	return h >= 0 && int(h) < len(g.cells) && g.cells[h].alive
}

// IsRegular is true for a leaf whose face neighbors are all within one level of it.
func (g *Grid) IsRegular(h Handle) bool {
	if !g.IsLeaf(h) {
		return false
	}
	level := g.cell(h).level
	for _, is := range g.Intersections(h) {
		if !is.Neighbor {
			continue
		}
		if d := g.cells[is.Outside].level - level; d > 1 || d < -1 {
			return false
		}
	}
	return true
}

func (g *Grid) cellSize(level int) (hs r3.Vec) {
	scale := math.Ldexp(1, -level)
	for a := 0; a < g.Dim; a++ {
		setComp(&hs, a, comp(g.Extent, a)/float64(g.Base[a])*scale)
	}
	return
}

func (g *Grid) cellsAlong(level, a int) int { return g.Base[a] << level }

func (g *Grid) Volume(h Handle) (vol float64) {
	hs := g.cellSize(g.cell(h).level)
	vol = 1
	for a := 0; a < g.Dim; a++ {
		vol *= comp(hs, a)
	}
	return
}

func (g *Grid) Center(h Handle) (x r3.Vec) {
	c := g.cell(h)
	hs := g.cellSize(c.level)
	x = g.Origin
	for a := 0; a < g.Dim; a++ {
		setComp(&x, a, comp(g.Origin, a)+(float64(c.coord[a])+0.5)*comp(hs, a))
	}
	return
}

// Corners lists the 2^Dim cell vertices in lexicographic order, axis 0 varying fastest.
func (g *Grid) Corners(h Handle) (pts []r3.Vec) {
	c := g.cell(h)
	hs := g.cellSize(c.level)
	pts = make([]r3.Vec, 1<<g.Dim)
	for b := range pts {
		x := g.Origin
		for a := 0; a < g.Dim; a++ {
			setComp(&x, a, comp(g.Origin, a)+float64(c.coord[a]+(b>>a)&1)*comp(hs, a))
		}
		pts[b] = x
	}
	return
}

// Bounds returns the lower and upper corner of the cell.
func (g *Grid) Bounds(h Handle) (lo, hi r3.Vec) {
	pts := g.Corners(h)
	return pts[0], pts[len(pts)-1]
}

func comp(v r3.Vec, a int) float64 {
	switch a {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setComp(v *r3.Vec, a int, val float64) {
	switch a {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
}

// Axis returns the unit vector along axis a.
func Axis(a int) (e r3.Vec) {
	setComp(&e, a, 1)
	return
}
