package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Test packed key for cell addressing
		ck := NewCellKey(0, [3]int{0, 0, 0})
		assert.Equal(t, CellKey(0), ck)

		ck = NewCellKey(3, [3]int{5, 7, 1})
		assert.Equal(t, 3, ck.GetLevel())
		assert.Equal(t, [3]int{5, 7, 1}, ck.GetCoord())

		// Test maximum indices
		ck = NewCellKey(CellKeyMaxLevel, [3]int{CellKeyMaxCoord, CellKeyMaxCoord, CellKeyMaxCoord})
		assert.Equal(t, CellKeyMaxLevel, ck.GetLevel())
		assert.Equal(t, [3]int{CellKeyMaxCoord, CellKeyMaxCoord, CellKeyMaxCoord}, ck.GetCoord())

		// Distinct levels never collide
		assert.NotEqual(t, NewCellKey(1, [3]int{1, 0, 0}), NewCellKey(2, [3]int{1, 0, 0}))

		pk := NewCellKey(3, [3]int{5, 7, 1}).Parent()
		assert.Equal(t, NewCellKey(2, [3]int{2, 3, 0}), pk)

		assert.Panics(t, func() { NewCellKey(0, [3]int{-1, 0, 0}) })
		assert.Panics(t, func() { NewCellKey(0, [3]int{0, 0, 0}).Parent() })

		// Address range of a refined base grid
		assert.True(t, CellKeyFits(1, 19))
		assert.False(t, CellKeyFits(1, 20))
		assert.True(t, CellKeyFits(4, 17))
		assert.False(t, CellKeyFits(5, 17))
		assert.False(t, CellKeyFits(1, CellKeyMaxLevel+1))
		assert.False(t, CellKeyFits(0, 0))
	}
	{
		tokens := []string{"WALL", "Dirichlet", "inflow", "Slip", " out "}
		flags := []BCFLAG{BC_Wall, BC_Dirichlet, BC_Dirichlet, BC_Wall, BC_Dirichlet}
		for i, token := range tokens {
			bf, err := NewBCFLAG(token)
			assert.NoError(t, err)
			assert.Equal(t, flags[i], bf)
		}
		_, err := NewBCFLAG("Periodic")
		assert.Error(t, err)
		assert.Equal(t, "Wall", BC_Wall.String())
	}
	{
		s, err := NewSide("Top")
		assert.NoError(t, err)
		assert.Equal(t, Top, s)
		assert.Equal(t, 1, s.Axis())
		assert.Equal(t, "Back", Back.String())
		_, err = NewSide("upstairs")
		assert.Error(t, err)
	}
}
