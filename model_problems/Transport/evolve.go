package Transport

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/grid"
	"github.com/notargets/fvadapt/types"
)

const (
	DefaultSafety = 0.99
	// NoRestriction is the time step when no cell has outflow
	NoRestriction = 1.e100
)

// Evolver advances the field by one explicit step, mutating c in place.
type Evolver interface {
	Evolve(m Mesh, mapper Mapper, c []float64, t float64) (dt float64)
	EvolveLimited(m Mesh, mapper Mapper, c []float64, t, dtMax float64) (dt float64)
}

// BoundaryConditions holds the flag of each domain side, BC_None reads as BC_Dirichlet.
type BoundaryConditions [6]types.BCFLAG

func NewBoundaryConditions(bcs map[types.Side]types.BCFLAG) (bc BoundaryConditions) {
	for side, flag := range bcs {
		bc[side] = flag
	}
	return
}

func (bc BoundaryConditions) Flag(s types.Side) types.BCFLAG {
	if bc[s] == types.BC_None {
		return types.BC_Dirichlet
	}
	return bc[s]
}

/*
FluxOperator is the first order upwind finite volume scheme for

	dc/dt + div(u c) = 0

Every interior face is visited once, from the finer cell or, between equal levels, from the cell
with the smaller index. The flux through it is taken from the upwind cell and added with opposite
signs to both sides, so the update conserves mass exactly.
*/
type FluxOperator struct {
	Problem Problem
	BCs     BoundaryConditions
	Safety  float64
}

func NewFluxOperator(p Problem, bcs BoundaryConditions) *FluxOperator {
	return &FluxOperator{
		Problem: p,
		BCs:     bcs,
		Safety:  DefaultSafety,
	}
}

func (op *FluxOperator) Evolve(m Mesh, mapper Mapper, c []float64, t float64) (dt float64) {
	return op.EvolveLimited(m, mapper, c, t, NoRestriction)
}

// EvolveLimited is Evolve with the time step clamped to dtMax.
func (op *FluxOperator) EvolveLimited(m Mesh, mapper Mapper, c []float64, t, dtMax float64) (dt float64) {
	checkField(mapper, c)
	update := make([]float64, len(c))
	dtMin := op.accumulate(m, mapper, c, t, m.LeafCells(), func(j int, val float64) {
		update[j] += val
	})
	dt = op.timeStep(dtMin, dtMax)
	for i := range c {
		c[i] += dt * update[i]
	}
	return
}

func (op *FluxOperator) timeStep(dtMin, dtMax float64) (dt float64) {
	dt = op.Safety * dtMin
	if dt > dtMax {
		dt = dtMax
	}
	return
}

/*
accumulate computes the flux contributions of the faces owned by leaves, sending each one to
deposit along with the dense index of the cell receiving it. It returns the smallest 1/sumfactor
over leaves, or NoRestriction.
*/
func (op *FluxOperator) accumulate(m Mesh, mapper Mapper, c []float64, t float64, leaves []grid.Handle,
	deposit func(j int, val float64)) (dtMin float64) {
	dtMin = NoRestriction
	for _, h := range leaves {
		var (
			i         = mapper.Index(h)
			vol       = m.Volume(h)
			level     = m.Level(h)
			sumfactor float64
		)
		for _, is := range m.Intersections(h) {
			if is.Boundary && op.BCs.Flag(is.Side) == types.BC_Wall {
				continue
			}
			var (
				ns     = is.IntegrationOuterNormal()
				u      = op.Problem.Velocity(is.Center, t)
				flux   = r3.Dot(u, ns)
				factor = flux / vol
			)
			if factor >= 0 {
				sumfactor += factor
			}
			if is.Neighbor {
				j := mapper.Index(is.Outside)
				nbLevel := m.Level(is.Outside)
				if level > nbLevel || (level == nbLevel && i < j) {
					nbfactor := flux / m.Volume(is.Outside)
					donor := c[i]
					if factor < 0 {
						donor = c[j]
					}
					deposit(i, -donor*factor)
					deposit(j, donor*nbfactor)
				}
				continue
			}
			if factor < 0 { // Inflow
				deposit(i, -op.Problem.BoundaryValue(is.Center, t)*factor)
			} else {
				deposit(i, -c[i]*factor)
			}
		}
		if sumfactor > 0 {
			dtMin = math.Min(dtMin, 1./sumfactor)
		}
	}
	return
}

func checkField(mapper Mapper, c []float64) {
	if len(c) != mapper.Size() {
		panic(fmt.Errorf("field length %d does not match the leaf count %d", len(c), mapper.Size()))
	}
}
