package integration

import (
	"math"

	"go.uber.org/zap"

	"github.com/notargets/fvadapt/grid"
)

// FatherEstimate selects the operands of the father cell error used in error extrapolation.
type FatherEstimate uint8

const (
	// FatherOperands compares the low and high order integrals over the father cell
	FatherOperands FatherEstimate = iota
	// ChildOperands reuses the leaf's own low and high order integrals as the father error,
	// which makes the extrapolated error equal to the leaf error
	ChildOperands
)

func (fe FatherEstimate) String() string {
	return [...]string{"Father", "Child"}[fe]
}

type Options struct {
	Tol                 float64
	MaxIterations       int
	LowOrder, HighOrder int
	Father              FatherEstimate
	Logger              *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Tol:           1.e-8,
		MaxIterations: 100,
		LowOrder:      1,
		HighOrder:     3,
		Father:        FatherOperands,
	}
}

type Iteration struct {
	Elements int
	Value    float64
	Error    float64 // Change from the previous iteration
}

type Result struct {
	Value      float64
	Converged  bool
	Iterations []Iteration
}

/*
Adaptive integrates f over the grid, refining until two successive values agree to within a
relative tolerance. The first pass refines globally so every leaf has a father. After that the
error of a leaf is |low - high| between the two rule orders, and a leaf is refined when its
error exceeds

	kappa = min(max extrapolated error, max error / 2)

with the extrapolated error err^2 / fatherErr predicting the error after one more refinement.
*/
func Adaptive(g *grid.Grid, f Functor, opts Options) (res Result) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	oldValue := 1.e100
	for k := 0; k < opts.MaxIterations; k++ {
		value := Integrate(g, f, opts.HighOrder)
		it := Iteration{
			Elements: g.Size(),
			Value:    value,
			Error:    math.Abs(value - oldValue),
		}
		oldValue = value
		res.Iterations = append(res.Iterations, it)
		res.Value = value
		logger.Debug("integration", zap.Int("k", k), zap.Int("elements", it.Elements),
			zap.Float64("integral", it.Value), zap.Float64("error", it.Error))
		if it.Error <= opts.Tol*value {
			res.Converged = true
			return
		}
		if k == 0 {
			g.GlobalRefine(1)
			continue
		}
		if !refine(g, f, opts) {
			logger.Warn("integration grid can not be refined further", zap.Int("k", k))
			return
		}
	}
	return
}

func refine(g *grid.Grid, f Functor, opts Options) (changed bool) {
	var (
		leaves          = g.LeafCells()
		errs            = make([]float64, len(leaves))
		maxError        = -1.e100
		maxExtrapolated = -1.e100
	)
	for n, h := range leaves {
		low := IntegrateEntity(g, h, f, opts.LowOrder)
		high := IntegrateEntity(g, h, f, opts.HighOrder)
		errs[n] = math.Abs(low - high)
		maxError = math.Max(maxError, errs[n])
		fatherError := errs[n]
		if father := g.Father(h); father != grid.NoCell && opts.Father == FatherOperands {
			fatherError = math.Abs(IntegrateEntity(g, father, f, opts.LowOrder) -
				IntegrateEntity(g, father, f, opts.HighOrder))
		}
		maxExtrapolated = math.Max(maxExtrapolated, errs[n]*errs[n]/(fatherError+1.e-30))
	}
	kappa := math.Min(maxExtrapolated, 0.5*maxError)
	for n, h := range leaves {
		if errs[n] > kappa {
			g.Mark(1, h)
		}
	}
	g.PreAdapt()
	changed = g.Adapt()
	g.PostAdapt()
	return
}
