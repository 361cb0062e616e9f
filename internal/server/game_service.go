package server

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/ratings"
	"github.com/lox/ratrace/internal/refdata"
	"github.com/lox/ratrace/internal/registry"
)

// GameService routes inbound client actions to the right room and fans
// committed state changes back out. It implements game.Notifier.
type GameService struct {
	server   *Server
	registry *registry.Registry
	reporter *ratings.Reporter
	logger   *log.Logger
	defaults game.RoomConfig
}

// NewGameService wires the gateway to a fresh room registry. The
// service is the registry's notifier, so rooms broadcast through the
// gateway as soon as they exist.
func NewGameService(server *Server, catalog *refdata.Catalog, clock quartz.Clock, reporter *ratings.Reporter, defaults game.RoomConfig, opts registry.Options, logger *log.Logger) *GameService {
	svc := &GameService{
		server:   server,
		reporter: reporter,
		logger:   logger.WithPrefix("service"),
		defaults: defaults,
	}
	svc.registry = registry.New(catalog, clock, svc, logger, opts)
	server.SetGameService(svc)
	return svc
}

// Registry exposes the room registry for lifecycle tasks like the
// reaper.
func (s *GameService) Registry() *registry.Registry {
	return s.registry
}

// errorCode maps registry and game errors to stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return "room_not_found"
	case errors.Is(err, registry.ErrCapacity):
		return "capacity"
	default:
		return game.ErrorCode(err)
	}
}

func (s *GameService) sendGameError(c *Connection, err error) {
	c.sendError(errorCode(err), err.Error())
}

// requireAuth returns the player ID, or replies with an error when the
// connection has not authenticated.
func (s *GameService) requireAuth(c *Connection) (string, bool) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return "", false
	}
	return playerID, true
}

func (s *GameService) room(c *Connection, roomID string) (*game.Room, bool) {
	room, err := s.registry.Get(roomID)
	if err != nil {
		s.sendGameError(c, err)
		return nil, false
	}
	return room, true
}

// HandleAuth assigns the connection a player identity. Account
// storage/passwords live outside this service; any non-empty username
// is accepted and given a fresh session ID.
func (s *GameService) HandleAuth(c *Connection, data AuthData) {
	if data.Username == "" {
		c.sendError("invalid_auth", "Username required")
		return
	}

	playerID := uuid.NewString()
	c.SetPlayer(playerID, data.Username)
	s.logger.Info("player authenticated", "player", data.Username, "id", playerID)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: playerID,
	})
	_ = c.SendMessage(response)
}

// HandleCreateRoom allocates a room and seats the creator as host.
func (s *GameService) HandleCreateRoom(c *Connection, data CreateRoomData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}

	cfg := s.defaults
	cfg.Name = data.Name
	if data.MaxPlayers > 0 {
		cfg.MaxPlayers = data.MaxPlayers
	}
	cfg.GameDurationMinutes = data.GameDuration

	room, err := s.registry.Create(cfg)
	if err != nil {
		response, _ := NewMessage(MessageTypeRoomCreated, RoomCreatedData{
			Success: false,
			Error:   errorCode(err),
		})
		_ = c.SendMessage(response)
		return
	}

	// The creator takes the first seat and becomes host.
	if err := room.Join(playerID, c.GetUsername()); err != nil {
		s.sendGameError(c, err)
		return
	}
	c.SetRoom(room.ID)

	response, _ := NewMessage(MessageTypeRoomCreated, RoomCreatedData{
		Success: true,
		RoomID:  room.ID,
	})
	_ = c.SendMessage(response)
}

// HandleJoinRoom seats the player and sends a full state snapshot for
// resync.
func (s *GameService) HandleJoinRoom(c *Connection, data JoinRoomData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}

	if err := room.Join(playerID, c.GetUsername()); err != nil {
		s.sendGameError(c, err)
		return
	}
	c.SetRoom(room.ID)

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomID: room.ID,
		State:  room.Snapshot(),
	})
	_ = c.SendMessage(response)
}

// HandleLeaveRoom vacates the player's seat where the phase allows it.
func (s *GameService) HandleLeaveRoom(c *Connection, data LeaveRoomData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}

	if err := room.Leave(playerID); err != nil {
		s.sendGameError(c, err)
		return
	}
	c.SetRoom("")

	response, _ := NewMessage(MessageTypeRoomLeft, RoomLeftData{RoomID: data.RoomID})
	_ = c.SendMessage(response)
}

// HandleListRooms replies with lobby summaries.
func (s *GameService) HandleListRooms(c *Connection) {
	response, _ := NewMessage(MessageTypeRoomList, RoomListData{
		Rooms: s.registry.List(),
	})
	_ = c.SendMessage(response)
}

// HandleStartSetup moves an open room into setup early. Host only.
func (s *GameService) HandleStartSetup(c *Connection, data StartSetupData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.StartSetup(playerID); err != nil {
		s.sendGameError(c, err)
	}
}

// HandlePlayerReady records profession and dream choices.
func (s *GameService) HandlePlayerReady(c *Connection, data PlayerReadyData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.Ready(playerID, data.ProfessionID, data.DreamID); err != nil {
		s.sendGameError(c, err)
	}
}

// HandleRollDice triggers the authoritative server-side roll. The
// client-computed total is advisory and only logged.
func (s *GameService) HandleRollDice(c *Connection, data RollDiceData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}

	roll, err := room.Roll(playerID, data.Split)
	if err != nil {
		s.sendGameError(c, err)
		return
	}
	if data.ClientTotal != 0 && data.ClientTotal != roll.Total {
		s.logger.Debug("client total differed from server roll",
			"player", playerID, "client", data.ClientTotal, "server", roll.Total)
	}
}

// HandleEndTurn forces the turn-complete transition.
func (s *GameService) HandleEndTurn(c *Connection, data EndTurnData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.EndTurn(playerID); err != nil {
		s.sendGameError(c, err)
	}
}

// HandleTransferMoney applies a player-to-player transfer.
func (s *GameService) HandleTransferMoney(c *Connection, data TransferMoneyData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.Transfer(playerID, data.ToPlayerID, data.Amount); err != nil {
		s.sendGameError(c, err)
	}
}

// HandleBuyDeal purchases the presented deal card.
func (s *GameService) HandleBuyDeal(c *Connection, data BuyDealData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.BuyDeal(playerID, data.UseCredit); err != nil {
		s.sendGameError(c, err)
	}
}

// HandleSkipDeal declines the presented deal card.
func (s *GameService) HandleSkipDeal(c *Connection, data SkipDealData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.SkipDeal(playerID); err != nil {
		s.sendGameError(c, err)
	}
}

// HandleBuyCharity takes the charity upgrade.
func (s *GameService) HandleBuyCharity(c *Connection, data BuyCharityData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.BuyCharity(playerID); err != nil {
		s.sendGameError(c, err)
	}
}

// HandlePauseTimer freezes the room's turn countdown. Host only.
func (s *GameService) HandlePauseTimer(c *Connection, data TimerControlData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.PauseTimer(playerID); err != nil {
		s.sendGameError(c, err)
	}
}

// HandleResumeTimer resumes a paused countdown. Host only.
func (s *GameService) HandleResumeTimer(c *Connection, data TimerControlData) {
	playerID, ok := s.requireAuth(c)
	if !ok {
		return
	}
	room, ok := s.room(c, data.RoomID)
	if !ok {
		return
	}
	if err := room.ResumeTimer(playerID); err != nil {
		s.sendGameError(c, err)
	}
}

// PlayerDisconnected vacates a pre-game seat after a dropped
// connection. Mid-game the seat stays and the turn timer plays the
// absent player out.
func (s *GameService) PlayerDisconnected(roomID, playerID string) {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return
	}
	_ = room.Leave(playerID)
}

// --- game.Notifier ---

// RoomStateChanged broadcasts the post-mutation snapshot to the room.
func (s *GameService) RoomStateChanged(snapshot game.RoomSnapshot) {
	msg, err := NewMessage(MessageTypeRoomState, snapshot)
	if err != nil {
		s.logger.Error("failed to encode room state", "error", err)
		return
	}
	s.server.BroadcastToRoom(snapshot.RoomID, msg)
}

// TimerChanged broadcasts a countdown update.
func (s *GameService) TimerChanged(roomID string, state game.TimerState) {
	msg, err := NewMessage(MessageTypeTurnTimer, TurnTimerData{
		RoomID:    roomID,
		Remaining: state.Remaining,
		IsActive:  state.Running,
		Paused:    state.Paused,
	})
	if err != nil {
		return
	}
	s.server.BroadcastToRoom(roomID, msg)
}

// GameFinished broadcasts the final summary and hands it to the
// ratings reporter. Reporting is fire-and-forget; a ratings outage
// never stalls the room.
func (s *GameService) GameFinished(summary game.GameSummary) {
	msg, err := NewMessage(MessageTypeGameFinished, summary)
	if err == nil {
		s.server.BroadcastToRoom(summary.RoomID, msg)
	}
	if s.reporter != nil {
		s.reporter.Report(summary)
	}
}
