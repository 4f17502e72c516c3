package integration

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

func midpoint(dim int) (m r3.Vec) {
	m = r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	if dim < 3 {
		m.Z = 0
	}
	if dim < 2 {
		m.Y = 0
	}
	return
}

// NewExp is the smooth bump exp(-3.234 |x-m|^2) centered in the unit cube.
func NewExp(dim int) Functor {
	m := midpoint(dim)
	return func(x r3.Vec) float64 {
		y := r3.Sub(x, m)
		return math.Exp(-3.234 * r3.Dot(y, y))
	}
}

// NewNeedle is 1/(1e-4 + |x-m|^2), peaked on the boundary where the last coordinate is 1.
func NewNeedle(dim int) Functor {
	m := midpoint(dim)
	switch dim {
	case 1:
		m.X = 1
	case 2:
		m.Y = 1
	default:
		m.Z = 1
	}
	return func(x r3.Vec) float64 {
		y := r3.Sub(x, m)
		return 1. / (1.e-4 + r3.Dot(y, y))
	}
}

func NewFunctor(name string, dim int) (f Functor, err error) {
	switch strings.ToLower(name) {
	case "exp":
		f = NewExp(dim)
	case "needle":
		f = NewNeedle(dim)
	default:
		err = fmt.Errorf("unknown functor %q", name)
	}
	return
}
