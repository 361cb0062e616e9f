package game

import (
	"testing"

	"github.com/lox/ratrace/internal/randutil"
)

func TestDeckDrawsEveryCardBeforeRepeating(t *testing.T) {
	cards := []string{"a", "b", "c", "d", "e"}
	deck := NewDeck(cards, randutil.New(3))

	seen := make(map[string]int)
	for i := 0; i < len(cards); i++ {
		card, ok := deck.Draw()
		if !ok {
			t.Fatalf("draw %d failed", i)
		}
		seen[card]++
	}
	for _, card := range cards {
		if seen[card] != 1 {
			t.Errorf("card %q drawn %d times in first pass, want 1", card, seen[card])
		}
	}
}

func TestDeckReshufflesOnExhaustion(t *testing.T) {
	deck := NewDeck([]int{1, 2, 3}, randutil.New(9))

	for i := 0; i < 3; i++ {
		deck.Draw()
	}
	if deck.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", deck.Remaining())
	}

	card, ok := deck.Draw()
	if !ok {
		t.Fatal("draw after exhaustion failed")
	}
	if card < 1 || card > 3 {
		t.Errorf("reshuffled draw = %d", card)
	}
	if deck.Remaining() != 2 {
		t.Errorf("remaining after reshuffle draw = %d, want 2", deck.Remaining())
	}
	if deck.Size() != 3 {
		t.Errorf("size = %d, want 3", deck.Size())
	}
}

func TestDeckEmpty(t *testing.T) {
	deck := NewDeck([]int(nil), randutil.New(1))
	if _, ok := deck.Draw(); ok {
		t.Error("empty deck produced a card")
	}
}

func TestDeckDoesNotAliasSource(t *testing.T) {
	cards := []int{10, 20, 30, 40}
	deck := NewDeck(cards, randutil.New(5))

	cards[0] = 999
	for i := 0; i < deck.Size(); i++ {
		card, _ := deck.Draw()
		if card == 999 {
			t.Fatal("deck shares backing array with caller slice")
		}
	}
}
