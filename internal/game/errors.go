package game

import "errors"

// Typed rejection errors. Every one of these is recovered at the Room
// boundary and returned to the originating client as a structured
// rejection; none of them may corrupt room state.
var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrInvalidPhase      = errors.New("action not legal in current phase")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverCreditLimit   = errors.New("requested credit exceeds the credit ceiling")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNotAllReady       = errors.New("not all players are ready")
	ErrNotAuthorized     = errors.New("only the room host may do that")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyJoined     = errors.New("player already seated in this room")
	ErrUnknownPlayer     = errors.New("player is not seated in this room")
	ErrNoDealPresented   = errors.New("no deal is presented to the player")
	ErrNoRollYet         = errors.New("roll the dice first")
	ErrCharityRequired   = errors.New("split movement requires charity")
	ErrUnknownProfession = errors.New("unknown profession")
	ErrUnknownDream      = errors.New("unknown dream")
	ErrGameFinished      = errors.New("game is finished")
)

// ErrorCode maps a typed game error to a stable wire code for the
// gateway. Unknown errors collapse to "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrOverCreditLimit):
		return "over_credit_limit"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrNotAllReady):
		return "not_all_ready"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, ErrNoDealPresented):
		return "no_deal_presented"
	case errors.Is(err, ErrNoRollYet):
		return "no_roll_yet"
	case errors.Is(err, ErrCharityRequired):
		return "charity_required"
	case errors.Is(err, ErrUnknownProfession):
		return "unknown_profession"
	case errors.Is(err, ErrUnknownDream):
		return "unknown_dream"
	case errors.Is(err, ErrGameFinished):
		return "game_finished"
	default:
		return "internal"
	}
}
