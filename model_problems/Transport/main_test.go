package Transport

import (
	"testing"

	"go.uber.org/goleak"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/grid"
	"github.com/notargets/fvadapt/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// constantFlow has a fixed velocity and inflow value
type constantFlow struct {
	u      r3.Vec
	inflow float64
}

func (p constantFlow) Velocity(x r3.Vec, t float64) r3.Vec       { return p.u }
func (p constantFlow) BoundaryValue(x r3.Vec, t float64) float64 { return p.inflow }
func (p constantFlow) InitialValue(x r3.Vec) float64             { return 0 }

func allWalls() (bc BoundaryConditions) {
	for s := range bc {
		bc[s] = types.BC_Wall
	}
	return
}

// newLocallyRefined returns a unit cube at level base with the leaves within radius of center
// refined once more, so it carries hanging faces.
func newLocallyRefined(dim, base int, center r3.Vec, radius float64) (g *grid.Grid, mapper *grid.LeafMapper) {
	g, _ = grid.NewUnitCube(dim, 1)
	g.GlobalRefine(base)
	for _, h := range g.LeafCells() {
		if r3.Norm(r3.Sub(g.Center(h), center)) < radius {
			g.Mark(1, h)
		}
	}
	g.PreAdapt()
	g.Adapt()
	g.PostAdapt()
	mapper = grid.NewLeafMapper(g)
	return
}

func totalMass(g *grid.Grid, mapper *grid.LeafMapper, c []float64) (mass float64) {
	for _, h := range g.LeafCells() {
		mass += c[mapper.Index(h)] * g.Volume(h)
	}
	return
}
