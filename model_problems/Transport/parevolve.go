package Transport

import (
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/fvadapt/grid"
	"github.com/notargets/fvadapt/utils"
)

// FluxMsg carries a flux contribution to a cell owned by another partition.
type FluxMsg struct {
	Index int
	Value float64
}

/*
ParallelFluxOperator runs the upwind scheme over ParallelDegree partitions of the dense index
range, one goroutine each. A step has two phases separated by a barrier:
 1. Each partition accumulates the fluxes of its own faces, keeps the contributions to its own
    cells and posts the rest to the owning partition.
 2. After the global minimum of the time step is known, each partition receives its messages and
    updates its own cells.
*/
type ParallelFluxOperator struct {
	*FluxOperator
	ParallelDegree int
}

func NewParallelFluxOperator(op *FluxOperator, parallelDegree int) *ParallelFluxOperator {
	if parallelDegree < 1 {
		parallelDegree = 1
	}
	return &ParallelFluxOperator{
		FluxOperator:   op,
		ParallelDegree: parallelDegree,
	}
}

func (op *ParallelFluxOperator) Evolve(m Mesh, mapper Mapper, c []float64, t float64) (dt float64) {
	return op.EvolveLimited(m, mapper, c, t, NoRestriction)
}

func (op *ParallelFluxOperator) EvolveLimited(m Mesh, mapper Mapper, c []float64, t, dtMax float64) (dt float64) {
	checkField(mapper, c)
	var (
		NP      = op.ParallelDegree
		pm      = utils.NewPartitionMap(NP, len(c))
		mb      = utils.NewMailBox[FluxMsg](NP)
		byIndex = make([]grid.Handle, len(c))
		updates = make([][]float64, NP)
		dtMins  = make([]float64, NP)
		wg      = sync.WaitGroup{}
	)
	// Leaf traversal settles the mesh caches before the goroutines share it read only
	for _, h := range m.LeafCells() {
		byIndex[mapper.Index(h)] = h
	}
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			kMin, kMax := pm.GetBucketRange(np)
			upd := make([]float64, pm.GetBucketDimension(np))
			dtMins[np] = op.accumulate(m, mapper, c, t, byIndex[kMin:kMax], func(j int, val float64) {
				k, _, bn := pm.GetLocalK(j)
				if bn == np {
					upd[k] += val
					return
				}
				mb.PostMessage(np, bn, FluxMsg{Index: j, Value: val})
			})
			updates[np] = upd
			mb.DeliverMyMessages(np)
			wg.Done()
		}(np)
	}
	wg.Wait()
	dt = op.timeStep(floats.Min(dtMins), dtMax)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			upd := updates[np]
			mb.ReceiveMyMessages(np)
			for _, msg := range mb.MyMessages(np) {
				k, _, _ := pm.GetLocalK(msg.Index)
				upd[k] += msg.Value
			}
			mb.ClearMyMessages(np)
			for k, val := range upd {
				c[pm.GetGlobalK(k, np)] += dt * val
			}
			wg.Done()
		}(np)
	}
	wg.Wait()
	return
}
