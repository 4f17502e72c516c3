package types

import (
	"fmt"
)

const (
	cellKeyCoordBits = 19
	cellKeyLevelBits = 6
	CellKeyMaxCoord  = 1<<cellKeyCoordBits - 1
	CellKeyMaxLevel  = 1<<cellKeyLevelBits - 1
)

/*
CellKey is a hashable packing of a hierarchical grid cell address: the refinement level and the
integer cell coordinates at that level.

	bits  0..18  coordinate 0
	bits 19..37  coordinate 1
	bits 38..56  coordinate 2
	bits 57..62  level
*/
type CellKey uint64

// CellKeyFits reports whether base cells along an axis, refined down to level, still have
// coordinates that pack into a CellKey.
func CellKeyFits(base, level int) bool {
	if base < 1 || level < 0 || level > CellKeyMaxLevel {
		return false
	}
	return base <= (CellKeyMaxCoord+1)>>level
}

func NewCellKey(level int, coord [3]int) (packed CellKey) {
	if level < 0 || level > CellKeyMaxLevel {
		panic(fmt.Errorf("unable to pack level %d into a cell key", level))
	}
	for _, x := range coord {
		if x < 0 || x > CellKeyMaxCoord {
			panic(fmt.Errorf("unable to pack coordinates %v into a cell key", coord))
		}
	}
	packed = CellKey(level) << (3 * cellKeyCoordBits)
	for n, x := range coord {
		packed |= CellKey(x) << (n * cellKeyCoordBits)
	}
	return
}

func (ck CellKey) GetLevel() (level int) {
	level = int(ck >> (3 * cellKeyCoordBits))
	return
}

func (ck CellKey) GetCoord() (coord [3]int) {
	for n := 0; n < 3; n++ {
		coord[n] = int(ck>>(n*cellKeyCoordBits)) & CellKeyMaxCoord
	}
	return
}

// Parent is the key of the cell one level coarser that contains this one.
func (ck CellKey) Parent() (pk CellKey) {
	var (
		level = ck.GetLevel()
		coord = ck.GetCoord()
	)
	if level == 0 {
		panic("macro cells have no parent key")
	}
	for n := range coord {
		coord[n] >>= 1
	}
	pk = NewCellKey(level-1, coord)
	return
}
