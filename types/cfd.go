package types

import (
	"fmt"
	"strings"
)

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Dirichlet
	BC_Wall
)

var BCNameMap = map[string]BCFLAG{
	"dirichlet": BC_Dirichlet,
	"inflow":    BC_Dirichlet,
	"in":        BC_Dirichlet,
	"outflow":   BC_Dirichlet,
	"out":       BC_Dirichlet,
	"wall":      BC_Wall,
	"slip":      BC_Wall,
}

func (bf BCFLAG) String() string {
	switch bf {
	case BC_Dirichlet:
		return "Dirichlet"
	case BC_Wall:
		return "Wall"
	default:
		return "None"
	}
}

// NewBCFLAG parses a boundary name like "Wall" or "inflow", case insensitive.
func NewBCFLAG(name string) (bf BCFLAG, err error) {
	var ok bool
	if bf, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown boundary condition type: %q", name)
	}
	return
}

/*
Domain sides of the unit box, numbered like the faces of a cell: side 2*axis is the low end of
the axis, side 2*axis+1 the high end.
*/
type Side uint8

const (
	Left Side = iota
	Right
	Bottom
	Top
	Front
	Back
)

var SideNameMap = map[string]Side{
	"left":   Left,
	"right":  Right,
	"bottom": Bottom,
	"top":    Top,
	"front":  Front,
	"back":   Back,
}

func (s Side) String() string {
	return [...]string{"Left", "Right", "Bottom", "Top", "Front", "Back"}[s]
}

func (s Side) Axis() int { return int(s) / 2 }

func NewSide(name string) (s Side, err error) {
	var ok bool
	if s, ok = SideNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown domain side: %q", name)
	}
	return
}
