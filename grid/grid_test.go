package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func findLeaf(t *testing.T, g *Grid, x r3.Vec) Handle {
	for _, h := range g.LeafCells() {
		lo, hi := g.Bounds(h)
		inside := true
		for a := 0; a < g.Dim; a++ {
			if comp(x, a) < comp(lo, a) || comp(x, a) > comp(hi, a) {
				inside = false
			}
		}
		if inside {
			return h
		}
	}
	t.Fatalf("no leaf contains %v", x)
	return NoCell
}

func checkBalanced(t *testing.T, g *Grid) {
	for _, h := range g.LeafCells() {
		assert.True(t, g.IsRegular(h), "leaf %d at level %d is not regular", h, g.Level(h))
	}
}

func TestGridConstruction(t *testing.T) {
	{ // Dimension and base validation
		_, err := NewUnitCube(4, 1)
		assert.Error(t, err)
		_, err = NewGrid(2, r3.Vec{}, r3.Vec{X: 1, Y: 1}, [3]int{2, 0, 0})
		assert.Error(t, err)
		_, err = NewGrid(2, r3.Vec{}, r3.Vec{X: 1}, [3]int{1, 1, 0})
		assert.Error(t, err)
	}
	for dim := 1; dim <= 3; dim++ {
		g, err := NewUnitCube(dim, 2)
		require.NoError(t, err)
		assert.Equal(t, 1<<dim, g.Size())
		g.GlobalRefine(2)
		assert.Equal(t, (1<<dim)*(1<<(2*dim)), g.Size())
		assert.Equal(t, 2, g.MaxLevel())
		var vol float64
		for _, h := range g.LeafCells() {
			vol += g.Volume(h)
			assert.True(t, g.IsLeaf(h))
			assert.False(t, g.IsNew(h))
		}
		assert.InDelta(t, 1., vol, 1.e-12)
		assert.Equal(t, 1<<dim, len(g.LevelCells(0)))
		assert.Nil(t, g.LevelCells(3))
	}
	{ // Geometry of a single 2D cell
		g, err := NewGrid(2, r3.Vec{X: -1, Y: 2}, r3.Vec{X: 4, Y: 2}, [3]int{2, 1, 0})
		require.NoError(t, err)
		h := g.LeafCells()[1]
		assert.Equal(t, [3]int{1, 0, 0}, g.Coord(h))
		assert.InDelta(t, 4., g.Volume(h), 1.e-14)
		assert.Equal(t, r3.Vec{X: 2, Y: 3}, g.Center(h))
		pts := g.Corners(h)
		assert.Equal(t, []r3.Vec{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 1, Y: 4}, {X: 3, Y: 4}}, pts)
		assert.Equal(t, NoCell, g.Father(h))
	}
}

func TestIntersections(t *testing.T) {
	{ // Conforming 1D grid: two boundary faces in total, unit measure
		g, _ := NewUnitCube(1, 4)
		var nBoundary int
		for _, h := range g.LeafCells() {
			iss := g.Intersections(h)
			assert.Equal(t, 2, len(iss))
			for _, is := range iss {
				assert.Equal(t, 1., is.Measure)
				if is.Boundary {
					nBoundary++
				}
			}
		}
		assert.Equal(t, 2, nBoundary)
	}
	{ // Non conforming 2D grid: a coarse cell sees two fine neighbors across one face
		g, _ := NewUnitCube(2, 1)
		g.GlobalRefine(1)
		fine := findLeaf(t, g, r3.Vec{X: 0.25, Y: 0.25})
		require.True(t, g.Mark(1, fine))
		g.PreAdapt()
		assert.True(t, g.Adapt())
		for _, h := range g.LeafCells() {
			if g.Level(h) == 2 {
				assert.True(t, g.IsNew(h))
			}
		}
		g.PostAdapt()
		assert.Equal(t, 7, g.Size())
		coarse := findLeaf(t, g, r3.Vec{X: 0.75, Y: 0.25})
		var centers []r3.Vec
		for _, is := range g.Intersections(coarse) {
			if is.Face == 0 {
				assert.True(t, is.Neighbor)
				assert.Equal(t, 2, g.Level(is.Outside))
				assert.InDelta(t, 0.25, is.Measure, 1.e-14)
				assert.Equal(t, r3.Vec{X: -1}, is.Normal)
				centers = append(centers, is.Center)
			}
		}
		assert.Equal(t, []r3.Vec{{X: 0.5, Y: 0.125}, {X: 0.5, Y: 0.375}}, centers)
		checkBalanced(t, g)
	}
	{ // Every neighbor intersection has a mirror image on the other side
		g, _ := NewUnitCube(2, 2)
		g.GlobalRefine(1)
		g.Mark(1, findLeaf(t, g, r3.Vec{X: 0.1, Y: 0.6}))
		g.Mark(1, findLeaf(t, g, r3.Vec{X: 0.6, Y: 0.1}))
		g.PreAdapt()
		g.Adapt()
		g.PostAdapt()
		var boundaryMeasure float64
		for _, h := range g.LeafCells() {
			for _, is := range g.Intersections(h) {
				if is.Boundary {
					boundaryMeasure += is.Measure
					continue
				}
				var found bool
				for _, back := range g.Intersections(is.Outside) {
					if back.Outside == h {
						found = true
						assert.InDelta(t, is.Measure, back.Measure, 1.e-14)
						assert.InDelta(t, 0., r3.Norm(r3.Sub(is.Center, back.Center)), 1.e-14)
						assert.InDelta(t, 0., r3.Norm(r3.Add(is.Normal, back.Normal)), 1.e-14)
					}
				}
				assert.True(t, found)
			}
		}
		assert.InDelta(t, 4., boundaryMeasure, 1.e-12)
	}
}

func TestAdaptProtocol(t *testing.T) {
	{ // Protocol violations fail loudly
		g, _ := NewUnitCube(1, 2)
		assert.Panics(t, func() { g.Adapt() })
		assert.Panics(t, func() { g.PostAdapt() })
		g.PreAdapt()
		assert.Panics(t, func() { g.PreAdapt() })
		assert.Panics(t, func() { g.Mark(1, g.LeafCells()[0]) })
		assert.False(t, g.Adapt())
		g.PostAdapt()
	}
	{ // Coarsening needs every child marked, and never goes below level 0
		g, _ := NewUnitCube(1, 1)
		assert.False(t, g.Mark(-1, g.LeafCells()[0]))
		g.GlobalRefine(2)
		level1 := append([]Handle{}, g.LevelCells(1)...)
		leaves := g.LeafCells()
		for _, h := range leaves[:3] {
			assert.True(t, g.Mark(-1, h))
		}
		assert.True(t, g.PreAdapt())
		assert.True(t, g.Adapt()) // First family coarsens, second keeps an unmarked child
		g.PostAdapt()
		assert.Equal(t, 3, g.Size())
		assert.True(t, g.IsLeaf(level1[0]))
		assert.False(t, g.IsLeaf(level1[1]))
	}
	{ // Refinement wins over coarsening
		g, _ := NewUnitCube(1, 1)
		g.GlobalRefine(1)
		h := g.LeafCells()[0]
		assert.True(t, g.Mark(1, h))
		assert.False(t, g.Mark(-1, h))
		assert.Equal(t, 1, g.GetMark(h))
		assert.True(t, g.Mark(0, h))
		assert.Equal(t, 0, g.GetMark(h))
	}
	{ // Closure refines a coarser neighbor to keep a 2:1 balance
		g, _ := NewUnitCube(1, 1)
		g.GlobalRefine(2)
		g.Mark(1, findLeaf(t, g, r3.Vec{X: 0.1}))
		g.PreAdapt()
		g.Adapt()
		g.PostAdapt()
		g.Mark(1, findLeaf(t, g, r3.Vec{X: 0.2}))
		g.PreAdapt()
		g.Adapt()
		g.PostAdapt()
		assert.Equal(t, 4, g.MaxLevel())
		assert.Equal(t, 3, g.Level(findLeaf(t, g, r3.Vec{X: 0.3})))
		checkBalanced(t, g)
	}
	{ // Coarsening that would break the balance is refused
		g, _ := NewUnitCube(1, 1)
		g.GlobalRefine(2)
		g.Mark(1, findLeaf(t, g, r3.Vec{X: 0.3}))
		g.PreAdapt()
		g.Adapt()
		g.PostAdapt()
		g.Mark(-1, findLeaf(t, g, r3.Vec{X: 0.6}))
		g.Mark(-1, findLeaf(t, g, r3.Vec{X: 0.9}))
		g.PreAdapt()
		assert.False(t, g.Adapt())
		g.PostAdapt()
		assert.Equal(t, 5, g.Size())
		checkBalanced(t, g)
	}
}

func TestLeafMapper(t *testing.T) {
	g, _ := NewUnitCube(2, 1)
	g.GlobalRefine(1)
	m := NewLeafMapper(g)
	assert.Equal(t, 4, m.Size())
	for i, h := range g.LeafCells() {
		assert.Equal(t, i, m.Index(h))
		assert.True(t, m.Contains(h))
	}
	root := g.LevelCells(0)[0]
	assert.False(t, m.Contains(root))
	assert.Panics(t, func() { m.Index(root) })

	g.Mark(1, g.LeafCells()[0])
	g.PreAdapt()
	g.Adapt()
	assert.Panics(t, func() { m.Size() })
	assert.Panics(t, func() { m.Index(g.LeafCells()[0]) })
	m.Update()
	g.PostAdapt()
	assert.Equal(t, 7, m.Size())
	seen := make(map[int]bool)
	for _, h := range g.LeafCells() {
		seen[m.Index(h)] = true
	}
	assert.Equal(t, 7, len(seen))
}

func TestPersistentContainer(t *testing.T) {
	g, _ := NewUnitCube(2, 1)
	g.GlobalRefine(1)
	pc := NewPersistentContainer[float64](g)
	assert.NotPanics(t, func() { pc.At(Handle(g.Capacity() - 1)) })
	for _, h := range g.LeafCells() {
		*pc.At(h) = g.Center(h).X + g.Center(h).Y
	}
	keep := g.LeafCells()[3]
	g.Mark(1, g.LeafCells()[0])
	g.PreAdapt()
	g.Adapt()
	pc.Resize()
	assert.NotPanics(t, func() { pc.At(Handle(g.Capacity() - 1)) })
	// Values stay attached to cells that survived
	assert.InDelta(t, 1.5, *pc.At(keep), 1.e-14)
	for _, h := range g.LeafCells() {
		if g.IsNew(h) {
			assert.Equal(t, 0., *pc.At(h))
		}
	}
	g.PostAdapt()
	pc.Clear()
	assert.Equal(t, 0., *pc.At(keep))
	assert.False(t, math.IsNaN(*pc.At(keep)))
}
