package Transport

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvadapt/grid"
)

// Mesh is what the flux operator and the indicator need from the grid.
type Mesh interface {
	LeafCells() []grid.Handle
	Level(h grid.Handle) int
	Volume(h grid.Handle) float64
	Center(h grid.Handle) r3.Vec
	IsRegular(h grid.Handle) bool
	Intersections(h grid.Handle) []grid.Intersection
}

// AdaptiveMesh adds the hierarchy and the mark/adapt protocol used by the adaptation transfer.
type AdaptiveMesh interface {
	Mesh
	MaxLevel() int
	LevelCells(level int) []grid.Handle
	Father(h grid.Handle) grid.Handle
	IsLeaf(h grid.Handle) bool
	IsNew(h grid.Handle) bool
	Capacity() int
	Mark(ref int, h grid.Handle) bool
	GetMark(h grid.Handle) int
	PreAdapt() bool
	Adapt() bool
	PostAdapt()
}

// Mapper maps leaf cells to a dense index in [0, Size()).
type Mapper interface {
	Index(h grid.Handle) int
	Size() int
	Update()
}

var (
	_ AdaptiveMesh = (*grid.Grid)(nil)
	_ Mapper       = (*grid.LeafMapper)(nil)
)
