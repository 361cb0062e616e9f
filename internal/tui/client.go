package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/ratrace/internal/server"
)

// Config holds client connection settings.
type Config struct {
	Server   string
	Username string
}

// wsConn is the outbound half of the client connection. Writes are
// serialized; the Bubble Tea update loop and the dialer both send.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) Send(msgType server.MessageType, data any) error {
	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(msg)
}

func decodeData(msg *server.Message, out any) error {
	return json.Unmarshal(msg.Data, out)
}

// Run connects to the server and runs the terminal client until the
// user quits or the connection drops.
func Run(cfg Config) error {
	if cfg.Username == "" {
		cfg.Username = os.Getenv("USER")
	}
	if cfg.Username == "" {
		cfg.Username = "Player"
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})

	ws, _, err := websocket.DefaultDialer.Dial(cfg.Server, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Server, err)
	}
	defer func() { _ = ws.Close() }()

	conn := &wsConn{conn: ws}
	model := NewModel(conn, cfg.Username, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Reader goroutine feeds server messages into the update loop.
	go func() {
		for {
			var msg server.Message
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					program.Send(connClosedMsg{err: err})
				} else {
					program.Send(connClosedMsg{})
				}
				return
			}
			program.Send(serverMsg{msg: &msg})
		}
	}()

	if err := conn.Send(server.MessageTypeAuth, server.AuthData{Username: cfg.Username}); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	_, err = program.Run()
	return err
}
