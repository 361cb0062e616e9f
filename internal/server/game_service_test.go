package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/registry"
)

func TestErrorCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{registry.ErrNotFound, "room_not_found"},
		{registry.ErrCapacity, "capacity"},
		{game.ErrNotYourTurn, "not_your_turn"},
		{game.ErrInsufficientFunds, "insufficient_funds"},
		{game.ErrOverCreditLimit, "over_credit_limit"},
		{game.ErrNoRollYet, "no_roll_yet"},
		{game.ErrCharityRequired, "charity_required"},
		{game.ErrGameFinished, "game_finished"},
		{errors.New("mystery"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, errorCode(tt.err), "for %v", tt.err)
	}
}

func TestErrorCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), game.ErrInvalidAmount)
	assert.Equal(t, "invalid_amount", errorCode(wrapped))
}
