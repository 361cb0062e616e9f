package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one client WebSocket. Inbound messages are handled
// on the read pump goroutine in arrival order, which is what gives each
// room its per-client ordering guarantee.
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	playerID    string
	username    string
	roomID      string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("attempted send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with an authenticated player.
func (c *Connection) SetPlayer(playerID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.username = username
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// GetUsername returns the associated display name
func (c *Connection) GetUsername() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom returns the associated room ID
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes one inbound message. Decoding failures get an
// immediate error reply; everything else routes through the service.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleAuth(c, data)

	case MessageTypeCreateRoom:
		var data CreateRoomData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleCreateRoom(c, data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleJoinRoom(c, data)

	case MessageTypeLeaveRoom:
		var data LeaveRoomData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleLeaveRoom(c, data)

	case MessageTypeListRooms:
		c.gameService.HandleListRooms(c)

	case MessageTypeStartSetup:
		var data StartSetupData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleStartSetup(c, data)

	case MessageTypePlayerReady:
		var data PlayerReadyData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandlePlayerReady(c, data)

	case MessageTypeRollDice:
		var data RollDiceData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleRollDice(c, data)

	case MessageTypeEndTurn:
		var data EndTurnData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleEndTurn(c, data)

	case MessageTypeTransferMoney:
		var data TransferMoneyData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleTransferMoney(c, data)

	case MessageTypeBuyDeal:
		var data BuyDealData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleBuyDeal(c, data)

	case MessageTypeSkipDeal:
		var data SkipDealData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleSkipDeal(c, data)

	case MessageTypeBuyCharity:
		var data BuyCharityData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleBuyCharity(c, data)

	case MessageTypePauseTimer:
		var data TimerControlData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandlePauseTimer(c, data)

	case MessageTypeResumeTimer:
		var data TimerControlData
		if !c.decode(msg, &data) {
			return
		}
		c.gameService.HandleResumeTimer(c, data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) decode(msg *Message, out any) bool {
	if c.gameService == nil {
		c.sendError("service_unavailable", "Game service not available")
		return false
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		c.sendError("invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}
