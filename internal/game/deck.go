package game

import rand "math/rand/v2"

// Deck is a shuffled, finite, cyclical card sequence. Drawing past the
// end reshuffles the whole deck in place and continues from the top, so
// a deck can never be exhausted.
type Deck[T any] struct {
	cards  []T
	cursor int
	rng    *rand.Rand
}

// NewDeck copies cards, shuffles them with rng and returns a deck ready
// to draw from.
func NewDeck[T any](cards []T, rng *rand.Rand) *Deck[T] {
	d := &Deck[T]{cards: append([]T(nil), cards...), rng: rng}
	d.shuffle()
	return d
}

// Draw returns the next card. ok is false only for an empty deck.
func (d *Deck[T]) Draw() (card T, ok bool) {
	if len(d.cards) == 0 {
		return card, false
	}
	if d.cursor >= len(d.cards) {
		d.shuffle()
		d.cursor = 0
	}
	card = d.cards[d.cursor]
	d.cursor++
	return card, true
}

// Remaining returns how many cards are left before the next reshuffle.
func (d *Deck[T]) Remaining() int {
	return len(d.cards) - d.cursor
}

// Size returns the total card count in the deck.
func (d *Deck[T]) Size() int {
	return len(d.cards)
}

func (d *Deck[T]) shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}
