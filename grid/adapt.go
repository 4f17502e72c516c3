package grid

import (
	"github.com/notargets/fvadapt/types"
)

/*
Adaptation follows a fixed protocol:

	Mark(+1|-1, cell) ... PreAdapt() -> Adapt() -> PostAdapt()

Cells are created and destroyed only inside Adapt. Between Adapt and PostAdapt the cells created
by Adapt report IsNew() == true, which is when data is moved onto them.
*/

// Mark flags a leaf for refinement (ref > 0), coarsening (ref < 0) or neither (ref == 0).
// A refinement mark is never replaced by a coarsening mark. It returns false when the mark
// cannot be applied.
func (g *Grid) Mark(ref int, h Handle) bool {
	if g.state != stable {
		panic("cells can only be marked before PreAdapt")
	}
	if !g.Contains(h) || !g.IsLeaf(h) {
		return false
	}
	c := &g.cells[h]
	switch {
	case ref > 0:
		for a := 0; a < g.Dim; a++ {
			if !types.CellKeyFits(g.Base[a], c.level+1) {
				return false
			}
		}
		c.mark = 1
	case ref < 0:
		if c.level == 0 || c.mark > 0 {
			return false
		}
		c.mark = -1
	default:
		c.mark = 0
	}
	return true
}

func (g *Grid) GetMark(h Handle) int { return int(g.cell(h).mark) }

// PreAdapt starts an adaptation cycle and reports whether any cell may vanish in it.
func (g *Grid) PreAdapt() (mightCoarsen bool) {
	if g.state != stable {
		panic("PreAdapt called twice without PostAdapt")
	}
	g.state = preAdapted
	for _, h := range g.LeafCells() {
		if g.cells[h].mark < 0 {
			mightCoarsen = true
			break
		}
	}
	return
}

/*
Adapt applies the marks and returns true if any cell was created or removed. Coarsening happens
first, refinement second:
  - A family of children is removed only if every child is a leaf marked for coarsening and the
    parent would not end up more than one level coarser than a neighbor.
  - Refinement is closed over coarser neighbors, so no face separates cells whose levels differ by
    more than one.
*/
func (g *Grid) Adapt() (changed bool) {
	if g.state != preAdapted {
		panic("Adapt called without PreAdapt")
	}
	g.state = adapted

	refine := g.refinementClosure()

	var parents []Handle
	seen := make(map[Handle]bool)
	for _, h := range g.LeafCells() {
		p := g.cells[h].parent
		if p == NoCell || seen[p] || g.cells[h].mark >= 0 {
			continue
		}
		seen[p] = true
		if g.canCoarsen(p) {
			parents = append(parents, p)
		}
	}
	for _, p := range parents {
		for _, ch := range g.cells[p].children {
			g.removeCell(ch)
		}
		g.cells[p].children = nil
		g.cells[p].mark = 0
	}

	var refined int
	for _, h := range refine {
		if !g.cells[h].alive || len(g.cells[h].children) != 0 {
			continue
		}
		g.refineCell(h)
		for _, ch := range g.cells[h].children {
			g.cells[ch].isNew = true
		}
		refined++
	}

	if changed = refined > 0 || len(parents) > 0; changed {
		g.topologyChanged()
	}
	return
}

// PostAdapt ends the cycle, clearing marks and new flags.
func (g *Grid) PostAdapt() {
	if g.state != adapted {
		panic("PostAdapt called without Adapt")
	}
	for h := range g.cells {
		g.cells[h].isNew = false
		g.cells[h].mark = 0
	}
	g.state = stable
}

func (g *Grid) refinementClosure() (refine []Handle) {
	var work []Handle
	for _, h := range g.LeafCells() {
		if g.cells[h].mark > 0 {
			work = append(work, h)
		}
	}
	for len(work) != 0 {
		h := work[len(work)-1]
		work = work[:len(work)-1]
		refine = append(refine, h)
		c := g.cells[h]
		for a := 0; a < g.Dim; a++ {
			for _, dir := range [2]int{-1, 1} {
				nb := c.coord
				nb[a] += dir
				if nb[a] < 0 || nb[a] >= g.cellsAlong(c.level, a) {
					continue
				}
				if _, ok := g.lookup[types.NewCellKey(c.level, nb)]; ok {
					continue
				}
				nh := g.coarserNeighbor(c.level, nb)
				if g.cells[nh].mark <= 0 {
					g.cells[nh].mark = 1
					work = append(work, nh)
				}
			}
		}
	}
	return
}

func (g *Grid) canCoarsen(p Handle) bool {
	pc := g.cells[p]
	for _, ch := range pc.children {
		if len(g.cells[ch].children) != 0 || g.cells[ch].mark >= 0 {
			return false
		}
	}
	// After coarsening, p faces neighbors of its own level; their children must stay leaves
	for a := 0; a < g.Dim; a++ {
		for _, dir := range [2]int{-1, 1} {
			nb := pc.coord
			nb[a] += dir
			if nb[a] < 0 || nb[a] >= g.cellsAlong(pc.level, a) {
				continue
			}
			nh, ok := g.lookup[types.NewCellKey(pc.level, nb)]
			if !ok {
				continue
			}
			for _, ch := range g.cells[nh].children {
				if len(g.cells[ch].children) != 0 || g.cells[ch].mark > 0 {
					return false
				}
			}
		}
	}
	return true
}
