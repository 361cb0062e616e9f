package game

import (
	"testing"

	"github.com/lox/ratrace/internal/randutil"
)

func TestDiceRollBounds(t *testing.T) {
	dice := NewDice(randutil.New(1))

	for i := 0; i < 1000; i++ {
		roll := dice.Roll()
		if roll.Die1 < 1 || roll.Die1 > 6 || roll.Die2 < 1 || roll.Die2 > 6 {
			t.Fatalf("roll %d out of bounds: %+v", i, roll)
		}
		if roll.Total != roll.Die1+roll.Die2 {
			t.Fatalf("total %d != %d+%d", roll.Total, roll.Die1, roll.Die2)
		}
	}
}

func TestDiceDeterministicWithSeed(t *testing.T) {
	a := NewDice(randutil.New(42))
	b := NewDice(randutil.New(42))

	for i := 0; i < 50; i++ {
		ra, rb := a.Roll(), b.Roll()
		if ra != rb {
			t.Fatalf("roll %d diverged: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestDiceCoversAllFaces(t *testing.T) {
	dice := NewDice(randutil.New(7))
	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		seen[dice.Roll().Die1] = true
	}
	for face := 1; face <= 6; face++ {
		if !seen[face] {
			t.Errorf("face %d never rolled in 600 tries", face)
		}
	}
}
