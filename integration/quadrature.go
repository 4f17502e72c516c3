package integration

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/grid"
)

// Functor is a scalar function of position.
type Functor func(x r3.Vec) float64

/*
Rule is a tensor product Gauss-Legendre rule on the unit reference cell [0,1]^Dim. With
ceil((Order+1)/2) points along each axis it integrates polynomials of degree Order exactly.
*/
type Rule struct {
	Dim, Order int
	Points     []r3.Vec
	Weights    []float64
}

type ruleKey struct{ dim, order int }

var rules sync.Map // ruleKey -> *Rule

func GetRule(dim, order int) *Rule {
	if dim < 1 || dim > 3 || order < 0 {
		panic(fmt.Errorf("no quadrature rule for dimension %d, order %d", dim, order))
	}
	key := ruleKey{dim, order}
	if r, ok := rules.Load(key); ok {
		return r.(*Rule)
	}
	r, _ := rules.LoadOrStore(key, newRule(dim, order))
	return r.(*Rule)
}

func newRule(dim, order int) (r *Rule) {
	var (
		n  = (order + 2) / 2 // ceil((order+1)/2)
		x  = make([]float64, n)
		w  = make([]float64, n)
		np = 1
	)
	quad.Legendre{}.FixedLocations(x, w, 0, 1)
	for a := 0; a < dim; a++ {
		np *= n
	}
	r = &Rule{
		Dim:     dim,
		Order:   order,
		Points:  make([]r3.Vec, np),
		Weights: make([]float64, np),
	}
	for p := 0; p < np; p++ {
		var (
			pt  r3.Vec
			wt  = 1.
			idx = p
		)
		for a := 0; a < dim; a++ {
			i := idx % n
			idx /= n
			wt *= w[i]
			switch a {
			case 0:
				pt.X = x[i]
			case 1:
				pt.Y = x[i]
			case 2:
				pt.Z = x[i]
			}
		}
		r.Points[p], r.Weights[p] = pt, wt
	}
	return
}

// IntegrateEntity integrates f over the cell h, leaf or not, with a rule exact to the given order.
func IntegrateEntity(g *grid.Grid, h grid.Handle, f Functor, order int) (value float64) {
	var (
		rule   = GetRule(g.Dim, order)
		lo, hi = g.Bounds(h)
		scale  = r3.Sub(hi, lo)
	)
	for p, pt := range rule.Points {
		x := r3.Add(lo, r3.Vec{X: pt.X * scale.X, Y: pt.Y * scale.Y, Z: pt.Z * scale.Z})
		value += rule.Weights[p] * f(x)
	}
	return value * g.Volume(h)
}

// Integrate sums IntegrateEntity over the leaf cells.
func Integrate(g *grid.Grid, f Functor, order int) (value float64) {
	for _, h := range g.LeafCells() {
		value += IntegrateEntity(g, h, f, order)
	}
	return
}
