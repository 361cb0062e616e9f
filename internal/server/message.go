package server

import (
	"encoding/json"
	"time"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/registry"
)

// Message is the base WebSocket message envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	Username string `json:"username"`
}

type CreateRoomData struct {
	Name           string `json:"name"`
	ProfessionType string `json:"professionType,omitempty"` // advisory, reserved for catalog filtering
	MaxPlayers     int    `json:"maxPlayers"`
	GameDuration   int    `json:"gameDuration,omitempty"` // minutes, 0 = unlimited
}

type JoinRoomData struct {
	RoomID string `json:"roomId"`
}

type LeaveRoomData struct {
	RoomID string `json:"roomId"`
}

type PlayerReadyData struct {
	RoomID       string `json:"roomId"`
	ProfessionID string `json:"professionId"`
	DreamID      string `json:"dreamId"`
}

type StartSetupData struct {
	RoomID string `json:"roomId"`
}

type RollDiceData struct {
	RoomID string `json:"roomId"`
	Split  bool   `json:"split,omitempty"` // charity option: move by one die, roll again
	// ClientTotal is advisory only. The server recomputes every roll
	// and ignores this value beyond logging.
	ClientTotal int `json:"clientComputedTotal,omitempty"`
}

type EndTurnData struct {
	RoomID string `json:"roomId"`
}

type TransferMoneyData struct {
	RoomID     string `json:"roomId"`
	ToPlayerID string `json:"toPlayerId"`
	Amount     int    `json:"amount"`
}

type BuyDealData struct {
	RoomID    string `json:"roomId"`
	UseCredit bool   `json:"useCredit"`
}

type SkipDealData struct {
	RoomID string `json:"roomId"`
}

type BuyCharityData struct {
	RoomID string `json:"roomId"`
}

type TimerControlData struct {
	RoomID string `json:"roomId"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomCreatedData struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RoomJoinedData struct {
	RoomID string            `json:"roomId"`
	State  game.RoomSnapshot `json:"state"`
}

type RoomLeftData struct {
	RoomID string `json:"roomId"`
}

type RoomListData struct {
	Rooms []registry.RoomSummary `json:"rooms"`
}

type TurnTimerData struct {
	RoomID    string `json:"roomId"`
	Remaining int    `json:"remaining"`
	IsActive  bool   `json:"isActive"`
	Paused    bool   `json:"paused"`
}
