package tui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/server"
)

type sentMessage struct {
	msgType server.MessageType
	data    any
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) Send(msgType server.MessageType, data any) error {
	f.sent = append(f.sent, sentMessage{msgType: msgType, data: data})
	return nil
}

func newTestModel() (*Model, *fakeSender) {
	sender := &fakeSender{}
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	model := NewModel(sender, "alice", logger)
	model.roomID = "abc123"
	model.playerID = "p1"
	return model, sender
}

func lastLog(m *Model) string {
	if len(m.gameLog) == 0 {
		return ""
	}
	return m.gameLog[len(m.gameLog)-1]
}

func TestCommandsProduceProtocolMessages(t *testing.T) {
	tests := []struct {
		input   string
		msgType server.MessageType
		check   func(t *testing.T, data any)
	}{
		{"rooms", server.MessageTypeListRooms, nil},
		{"roll", server.MessageTypeRollDice, func(t *testing.T, data any) {
			assert.False(t, data.(server.RollDiceData).Split)
		}},
		{"roll split", server.MessageTypeRollDice, func(t *testing.T, data any) {
			assert.True(t, data.(server.RollDiceData).Split)
		}},
		{"buy", server.MessageTypeBuyDeal, func(t *testing.T, data any) {
			assert.False(t, data.(server.BuyDealData).UseCredit)
		}},
		{"buy credit", server.MessageTypeBuyDeal, func(t *testing.T, data any) {
			assert.True(t, data.(server.BuyDealData).UseCredit)
		}},
		{"skip", server.MessageTypeSkipDeal, nil},
		{"charity", server.MessageTypeBuyCharity, nil},
		{"end", server.MessageTypeEndTurn, nil},
		{"pause", server.MessageTypePauseTimer, nil},
		{"resume", server.MessageTypeResumeTimer, nil},
		{"start", server.MessageTypeStartSetup, nil},
		{"leave", server.MessageTypeLeaveRoom, nil},
		{"ready engineer island", server.MessageTypePlayerReady, func(t *testing.T, data any) {
			ready := data.(server.PlayerReadyData)
			assert.Equal(t, "engineer", ready.ProfessionID)
			assert.Equal(t, "island", ready.DreamID)
		}},
		{"join ABC123", server.MessageTypeJoinRoom, func(t *testing.T, data any) {
			assert.Equal(t, "abc123", data.(server.JoinRoomData).RoomID)
		}},
		{"transfer bob 500", server.MessageTypeTransferMoney, func(t *testing.T, data any) {
			transfer := data.(server.TransferMoneyData)
			assert.Equal(t, 500, transfer.Amount)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			model, sender := newTestModel()
			model.processCommand(tt.input)
			require.Len(t, sender.sent, 1, "command %q sent nothing", tt.input)
			assert.Equal(t, tt.msgType, sender.sent[0].msgType)
			if tt.check != nil {
				tt.check(t, sender.sent[0].data)
			}
		})
	}
}

func TestInvalidCommandsSendNothing(t *testing.T) {
	for _, input := range []string{
		"frobnicate",
		"join",
		"ready engineer",
		"transfer bob",
		"transfer bob lots",
	} {
		model, sender := newTestModel()
		model.processCommand(input)
		assert.Empty(t, sender.sent, "command %q should not reach the server", input)
		assert.NotEmpty(t, model.gameLog, "command %q should log feedback", input)
	}
}

func TestTransferResolvesUsernames(t *testing.T) {
	model, sender := newTestModel()
	model.state = &game.RoomSnapshot{
		Players: []game.PlayerSnapshot{
			{ID: "p1", Username: "alice"},
			{ID: "p2", Username: "Bob"},
		},
	}

	model.processCommand("transfer bob 250")
	require.Len(t, sender.sent, 1)
	transfer := sender.sent[0].data.(server.TransferMoneyData)
	assert.Equal(t, "p2", transfer.ToPlayerID)
}

func TestRoomStateAnnouncesTurn(t *testing.T) {
	model, _ := newTestModel()

	msg, err := server.NewMessage(server.MessageTypeRoomState, game.RoomSnapshot{
		RoomID:              "abc123",
		Phase:               "in_progress",
		CurrentTurnPlayerID: "p1",
		Players: []game.PlayerSnapshot{
			{ID: "p1", Username: "alice", IsMyTurn: true},
			{ID: "p2", Username: "bob"},
		},
	})
	require.NoError(t, err)
	model.handleServerMessage(msg)

	logText := strings.Join(model.gameLog, " ")
	assert.Contains(t, logText, "Your turn")
}

func TestGameFinishedSummaryLogged(t *testing.T) {
	model, _ := newTestModel()

	msg, err := server.NewMessage(server.MessageTypeGameFinished, game.GameSummary{
		RoomID:     "abc123",
		WinnerID:   "p2",
		WinnerName: "bob",
		Results: []game.PlayerResult{
			{PlayerID: "p1", Username: "alice", FinalScore: 10000, FinalNetWorth: 9000},
			{PlayerID: "p2", Username: "bob", FinalScore: 90000, FinalNetWorth: 70000, Won: true},
		},
	})
	require.NoError(t, err)
	model.handleServerMessage(msg)

	logText := strings.Join(model.gameLog, " ")
	assert.Contains(t, logText, "bob")
	assert.Contains(t, logText, "90000")
}

func TestErrorMessageLogged(t *testing.T) {
	model, _ := newTestModel()

	msg, err := server.NewMessage(server.MessageTypeError, server.ErrorData{
		Code:    "not_your_turn",
		Message: "not your turn",
	})
	require.NoError(t, err)
	model.handleServerMessage(msg)

	assert.Contains(t, lastLog(model), "not_your_turn")
}
