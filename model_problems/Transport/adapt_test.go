package Transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/grid"
)

func TestIndicatorAndMarker(t *testing.T) {
	{ // Indicator is the largest jump across faces, boundary faces contribute nothing
		g, _ := grid.NewUnitCube(1, 4)
		mapper := grid.NewLeafMapper(g)
		mk := NewMarker(0.05, 0.001, 0, 4)
		ind, gmin, gmax := mk.Indicate(g, mapper, []float64{0, 0, 1, 3})
		assert.Equal(t, []float64{0, 1, 2, 2}, ind)
		assert.Equal(t, 0., gmin)
		assert.Equal(t, 3., gmax)
	}
	{ // A uniform field marks nothing
		g, _ := grid.NewUnitCube(2, 1)
		g.GlobalRefine(3)
		mapper := grid.NewLeafMapper(g)
		c := make([]float64, mapper.Size())
		for i := range c {
			c[i] = 0.3
		}
		assert.Equal(t, 0, NewMarker(0.05, 0.001, 0, 5).Mark(g, mapper, c))
		for _, h := range g.LeafCells() {
			assert.Equal(t, 0, g.GetMark(h))
		}
	}
	{ // A refined cell drags its same level neighbors along
		g, _ := grid.NewUnitCube(2, 1)
		g.GlobalRefine(2)
		mapper := grid.NewLeafMapper(g)
		c := make([]float64, mapper.Size())
		var spike grid.Handle
		for _, h := range g.LeafCells() {
			if g.Coord(h) == [3]int{1, 1, 0} {
				spike = h
				c[mapper.Index(h)] = 1
			}
		}
		marked := NewMarker(0.05, 0.001, 2, 4).Mark(g, mapper, c)
		assert.Greater(t, marked, 0)
		assert.Equal(t, 1, g.GetMark(spike))
		for _, is := range g.Intersections(spike) {
			if is.Neighbor {
				assert.Equal(t, 1, g.GetMark(is.Outside))
			}
		}
		// Nothing is coarsened below the minimum level
		for _, h := range g.LeafCells() {
			assert.GreaterOrEqual(t, g.GetMark(h), 0)
		}
	}
	{ // A refined cell drags its finer neighbors along while they are below the maximum level
		// Leaves A B C D E at levels 2 2 3 3 2, the only jump is between A and B
		newGrid := func() (g *grid.Grid, mapper *grid.LeafMapper, leaves []grid.Handle) {
			g, _ = grid.NewUnitCube(1, 1)
			g.GlobalRefine(2)
			for _, h := range g.LeafCells() {
				if g.Center(h).X == 0.625 {
					g.Mark(1, h)
				}
			}
			g.PreAdapt()
			g.Adapt()
			g.PostAdapt()
			mapper = grid.NewLeafMapper(g)
			leaves = append(leaves, g.LeafCells()...)
			require.Equal(t, 5, len(leaves))
			require.Equal(t, 3, g.Level(leaves[2]))
			return
		}
		g, mapper, leaves := newGrid()
		c := []float64{1, 0, 0, 0, 0}
		ind, _, _ := NewMarker(0.05, 0.001, 3, 4).Indicate(g, mapper, c)
		assert.Equal(t, 0., ind[mapper.Index(leaves[2])]) // C has no jump of its own
		assert.Equal(t, 3, NewMarker(0.05, 0.001, 3, 4).Mark(g, mapper, c))
		for i, want := range []int{1, 1, 1, 0, 0} {
			assert.Equal(t, want, g.GetMark(leaves[i]), "leaf %d", i)
		}

		g, mapper, leaves = newGrid()
		assert.Equal(t, 2, NewMarker(0.05, 0.001, 3, 3).Mark(g, mapper, c))
		assert.Equal(t, 0, g.GetMark(leaves[2])) // Already at the maximum level
	}
	{ // Refinement stops at the maximum level, smooth fine cells coarsen
		g, _ := grid.NewUnitCube(1, 1)
		g.GlobalRefine(3)
		mapper := grid.NewLeafMapper(g)
		c := []float64{0, 0, 0, 0, 1, 1, 1, 1}
		mk := NewMarker(0.05, 0.001, 1, 3)
		assert.Greater(t, mk.Mark(g, mapper, c), 0)
		for i, h := range g.LeafCells() {
			switch i {
			case 3, 4:
				assert.Equal(t, 0, g.GetMark(h))
			default:
				assert.Equal(t, -1, g.GetMark(h))
			}
		}
	}
}

func TestAdaptor(t *testing.T) {
	{ // Nothing to refine and nothing above the minimum level: no adaptation at all
		g, _ := grid.NewUnitCube(1, 1)
		g.GlobalRefine(6)
		mapper := grid.NewLeafMapper(g)
		c := make([]float64, mapper.Size())
		for i := range c {
			c[i] = float64(i) / float64(len(c))
		}
		gen := g.Generation()
		ad := NewAdaptor(NewMarker(0.05, 0.001, 6, 8), nil)
		cNew, changed := ad.Adapt(g, mapper, c)
		assert.False(t, changed)
		assert.Equal(t, c, cNew)
		assert.Equal(t, gen, g.Generation())
		assert.Equal(t, 64, mapper.Size())
		assert.Equal(t, Stable, ad.Phase())
	}
	{ // Four children {1,2,3,4} coarsen to their average
		g, _ := grid.NewUnitCube(2, 1)
		g.GlobalRefine(1)
		mapper := grid.NewLeafMapper(g)
		c := []float64{1, 2, 3, 4}
		for _, h := range g.LeafCells() {
			require.True(t, g.Mark(-1, h))
		}
		ad := NewAdaptor(NewMarker(0.05, 0.001, 0, 1), nil)
		cNew, changed := ad.Transfer(g, mapper, c)
		assert.True(t, changed)
		assert.Equal(t, []float64{2.5}, cNew)
		assert.Equal(t, 1, mapper.Size())
	}
	{ // Refine everything, then coarsen everything: the field comes back
		g, _ := grid.NewUnitCube(2, 1)
		g.GlobalRefine(2)
		mapper := grid.NewLeafMapper(g)
		c0 := make([]float64, mapper.Size())
		for _, h := range g.LeafCells() {
			x := g.Center(h)
			c0[mapper.Index(h)] = x.X + 10*x.Y
		}
		ad := NewAdaptor(NewMarker(0.05, 0.001, 0, 3), nil)
		for _, h := range g.LeafCells() {
			g.Mark(1, h)
		}
		c1, changed := ad.Transfer(g, mapper, c0)
		require.True(t, changed)
		require.Equal(t, 64, len(c1))
		for _, h := range g.LeafCells() {
			// Every child holds its parent's value
			x := g.Center(g.Father(h))
			assert.InDelta(t, x.X+10*x.Y, c1[mapper.Index(h)], 1.e-14)
		}
		for _, h := range g.LeafCells() {
			g.Mark(-1, h)
		}
		c2, changed := ad.Transfer(g, mapper, c1)
		require.True(t, changed)
		require.Equal(t, 16, len(c2))
		for _, h := range g.LeafCells() {
			x := g.Center(h)
			assert.InDelta(t, x.X+10*x.Y, c2[mapper.Index(h)], 1.e-13)
		}
	}
	{ // Mass survives mixed refinement and coarsening
		g, mapper := newLocallyRefined(2, 3, r3.Vec{X: 0.6, Y: 0.6}, 0.3)
		p := NewBall(2)
		c := Initialize(g, mapper, p)
		mass0 := totalMass(g, mapper, c)
		ad := NewAdaptor(NewMarker(0.05, 0.001, 2, 5), nil)
		for n := 0; n < 3; n++ {
			var changed bool
			c, changed = ad.Adapt(g, mapper, c)
			if n < 2 { // The edge of the ball climbs one level per cycle
				assert.True(t, changed)
			}
			assert.Equal(t, mapper.Size(), len(c))
			assert.InDelta(t, mass0, totalMass(g, mapper, c), 1.e-14)
			for _, h := range g.LeafCells() {
				assert.True(t, g.IsRegular(h))
				assert.LessOrEqual(t, g.Level(h), 5)
			}
		}
		assert.Equal(t, 5, g.MaxLevel())
	}
	{ // A marked cell next to a refined region: the new children read their parent's value
		g, mapper := newLocallyRefined(1, 2, r3.Vec{X: 0.1}, 0.1)
		c := make([]float64, mapper.Size())
		for _, h := range g.LeafCells() {
			c[mapper.Index(h)] = g.Center(h).X
		}
		target := g.LeafCells()[len(g.LeafCells())-1]
		xTarget := g.Center(target).X
		g.Mark(1, target)
		ad := NewAdaptor(NewMarker(0.05, 0.001, 0, 4), nil)
		cNew, changed := ad.Transfer(g, mapper, c)
		require.True(t, changed)
		for _, h := range g.Children(target) {
			assert.Equal(t, xTarget, cNew[mapper.Index(h)])
		}
	}
}
