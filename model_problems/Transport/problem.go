package Transport

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/InputParameters"
)

// Problem defines the transported field: the velocity, the inflow boundary value and c0.
// Implementations must be safe for concurrent use.
type Problem interface {
	Velocity(x r3.Vec, t float64) r3.Vec
	BoundaryValue(x r3.Vec, t float64) float64
	InitialValue(x r3.Vec) float64
}

// Ball is a sphere of concentration 1 moving with constant velocity.
type Ball struct {
	Center r3.Vec
	Radius float64
	Speed  r3.Vec
	Inflow float64
}

func NewBall(dim int) *Ball {
	b := &Ball{
		Center: r3.Vec{X: 0.25, Y: 0.25, Z: 0.25},
		Radius: 0.125,
		Speed:  r3.Vec{X: 1, Y: 0.5, Z: 0.5},
	}
	b.Center = truncate(b.Center, dim)
	b.Speed = truncate(b.Speed, dim)
	return b
}

func (b *Ball) Velocity(x r3.Vec, t float64) r3.Vec { return b.Speed }

func (b *Ball) BoundaryValue(x r3.Vec, t float64) float64 { return b.Inflow }

func (b *Ball) InitialValue(x r3.Vec) float64 {
	if r3.Norm(r3.Sub(x, b.Center)) < b.Radius {
		return 1
	}
	return 0
}

// Vortex rotates the ball within the unit square. The flow is divergence free with no normal
// component on the domain boundary, so the total mass is conserved.
type Vortex struct {
	Ball
}

func NewVortex(dim int) *Vortex {
	v := &Vortex{Ball: *NewBall(dim)}
	v.Speed = r3.Vec{}
	return v
}

func (v *Vortex) Velocity(x r3.Vec, t float64) r3.Vec {
	sx, cx := math.Sincos(math.Pi * x.X)
	sy, cy := math.Sincos(math.Pi * x.Y)
	return r3.Vec{X: sx * cy, Y: -cx * sy}
}

// NewProblem builds the problem named in the input parameters.
func NewProblem(ip *InputParameters.TransportParameters) (p Problem, err error) {
	var ball *Ball
	switch strings.ToLower(ip.Problem) {
	case "ball":
		ball = NewBall(ip.Dimension)
		p = ball
	case "vortex":
		v := NewVortex(ip.Dimension)
		ball, p = &v.Ball, v
	default:
		err = fmt.Errorf("unknown problem %q", ip.Problem)
		return
	}
	if len(ip.Center) != 0 {
		ball.Center = truncate(toVec(ip.Center), ip.Dimension)
	}
	if len(ip.Velocity) != 0 {
		ball.Speed = truncate(toVec(ip.Velocity), ip.Dimension)
	}
	if ip.Radius > 0 {
		ball.Radius = ip.Radius
	}
	ball.Inflow = ip.InflowValue
	return
}

func toVec(v []float64) (x r3.Vec) {
	for i, val := range v {
		switch i {
		case 0:
			x.X = val
		case 1:
			x.Y = val
		case 2:
			x.Z = val
		}
	}
	return
}

// truncate zeroes the components beyond dim, a 1D cell center has Y = Z = 0
func truncate(x r3.Vec, dim int) r3.Vec {
	if dim < 3 {
		x.Z = 0
	}
	if dim < 2 {
		x.Y = 0
	}
	return x
}
