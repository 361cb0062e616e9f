// Package roomid generates short human-readable room codes. Codes use
// Crockford's base32 alphabet so players can read them out loud without
// ambiguous characters.
package roomid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of a generated room code.
const Length = 6

// RandSource allows deterministic codes in tests.
type RandSource interface {
	IntN(n int) int
}

// Generator produces room codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil randSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new room code using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new room code.
func (g *Generator) Generate() string {
	code := make([]byte, Length)
	if g.randSource != nil {
		for i := range code {
			code[i] = alphabet[g.randSource.IntN(len(alphabet))]
		}
		return string(code)
	}

	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}
	for i, b := range buf {
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code)
}

// Validate checks a room code's shape.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("room code must be %d characters, got %d", Length, len(id))
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
