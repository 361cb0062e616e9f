package game

import rand "math/rand/v2"

// RollResult is a resolved two-die roll. The server is authoritative:
// client-supplied totals are advisory and always recomputed here.
type RollResult struct {
	Die1  int `json:"die1"`
	Die2  int `json:"die2"`
	Total int `json:"total"`
}

// Dice produces rolls from an injected random source. It holds no hidden
// state, so tests can fix outcomes by supplying a seeded source.
type Dice struct {
	rng *rand.Rand
}

// NewDice creates a dice resolver backed by rng.
func NewDice(rng *rand.Rand) *Dice {
	return &Dice{rng: rng}
}

// Roll returns two uniform dice in 1..6 and their total.
func (d *Dice) Roll() RollResult {
	die1 := d.rng.IntN(6) + 1
	die2 := d.rng.IntN(6) + 1
	return RollResult{Die1: die1, Die2: die2, Total: die1 + die2}
}
