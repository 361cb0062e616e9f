package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/server"
)

// serverMsg carries one decoded server message into the update loop.
type serverMsg struct {
	msg *server.Message
}

// connClosedMsg is delivered when the websocket reader exits.
type connClosedMsg struct {
	err error
}

// sender abstracts the outbound half of the connection so tests can
// capture what the model would have sent.
type sender interface {
	Send(msgType server.MessageType, data any) error
}

// Model is the Bubble Tea model for the terminal client.
type Model struct {
	conn     sender
	logger   *log.Logger
	username string

	logViewport  viewport.Model
	commandInput textinput.Model

	gameLog     []string
	focusedPane int // 0 = log, 1 = input
	quitting    bool

	playerID string
	roomID   string
	state    *game.RoomSnapshot
	timer    server.TurnTimerData

	width       int
	height      int
	initialized bool
}

// NewModel creates the client model. The connection must already be
// authenticated or in the process of authenticating.
func NewModel(conn sender, username string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Type 'help' for commands"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		conn:         conn,
		logger:       logger.WithPrefix("tui"),
		username:     username,
		logViewport:  vp,
		commandInput: ti,
		focusedPane:  1,
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case connClosedMsg:
		if msg.err != nil {
			m.addLog(ErrorStyle.Render("Connection lost: " + msg.err.Error()))
		}
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case serverMsg:
		m.handleServerMessage(msg.msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.commandInput.Focus()
			} else {
				m.focusedPane = 0
				m.commandInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				command := strings.TrimSpace(m.commandInput.Value())
				m.commandInput.SetValue("")
				if cmd := m.processCommand(command); cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleServerMessage folds one server message into display state.
func (m *Model) handleServerMessage(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeAuthResponse:
		var data server.AuthResponseData
		if !m.decode(msg, &data) {
			return
		}
		if !data.Success {
			m.addLog(ErrorStyle.Render("Authentication failed: " + data.Error))
			return
		}
		m.playerID = data.PlayerID
		m.addLog(SuccessStyle.Render("Connected as " + m.username))

	case server.MessageTypeError:
		var data server.ErrorData
		if !m.decode(msg, &data) {
			return
		}
		m.addLog(ErrorStyle.Render(fmt.Sprintf("Error [%s]: %s", data.Code, data.Message)))

	case server.MessageTypeRoomCreated:
		var data server.RoomCreatedData
		if !m.decode(msg, &data) {
			return
		}
		if !data.Success {
			m.addLog(ErrorStyle.Render("Room creation failed: " + data.Error))
			return
		}
		m.roomID = data.RoomID
		m.addLog(SuccessStyle.Render("Room created: " + data.RoomID))

	case server.MessageTypeRoomJoined:
		var data server.RoomJoinedData
		if !m.decode(msg, &data) {
			return
		}
		m.roomID = data.RoomID
		m.state = &data.State
		m.addLog(SuccessStyle.Render("Joined room " + data.RoomID))

	case server.MessageTypeRoomLeft:
		m.roomID = ""
		m.state = nil
		m.addLog(InfoStyle.Render("Left room"))

	case server.MessageTypeRoomList:
		var data server.RoomListData
		if !m.decode(msg, &data) {
			return
		}
		if len(data.Rooms) == 0 {
			m.addLog(InfoStyle.Render("No open rooms"))
			return
		}
		for _, room := range data.Rooms {
			m.addLog(fmt.Sprintf("  %s  %-20s %d/%d  %s",
				room.ID, room.Name, room.Players, room.MaxPlayers, room.Phase))
		}

	case server.MessageTypeRoomState:
		var state game.RoomSnapshot
		if !m.decode(msg, &state) {
			return
		}
		m.applyState(state)

	case server.MessageTypeTurnTimer:
		var data server.TurnTimerData
		if !m.decode(msg, &data) {
			return
		}
		m.timer = data

	case server.MessageTypeGameFinished:
		var summary game.GameSummary
		if !m.decode(msg, &summary) {
			return
		}
		m.addLog(HeaderStyle.Render(" GAME OVER "))
		if summary.WinnerID != "" {
			m.addLog(TurnStyle.Render("Winner: " + summary.WinnerName))
		}
		for _, result := range summary.Results {
			m.addLog(fmt.Sprintf("  %-16s score %d  net worth $%d",
				result.Username, result.FinalScore, result.FinalNetWorth))
		}
	}
}

// applyState diffs the incoming snapshot against the last one and logs
// the interesting transitions.
func (m *Model) applyState(state game.RoomSnapshot) {
	prev := m.state
	m.state = &state

	if prev == nil || prev.Phase != state.Phase {
		m.addLog(InfoStyle.Render("Phase: " + state.Phase))
	}
	if state.CurrentTurnPlayerID != "" && (prev == nil || prev.CurrentTurnPlayerID != state.CurrentTurnPlayerID) {
		name := state.CurrentTurnPlayerID
		for _, p := range state.Players {
			if p.ID == state.CurrentTurnPlayerID {
				name = p.Username
			}
		}
		if state.CurrentTurnPlayerID == m.playerID {
			m.addLog(TurnStyle.Render("Your turn! Type 'roll' to move."))
		} else {
			m.addLog(InfoStyle.Render(name + "'s turn"))
		}
	}
	if state.LastRoll != nil && (prev == nil || prev.LastRoll == nil ||
		*prev.LastRoll != *state.LastRoll || prev.CurrentTurnPlayerID != state.CurrentTurnPlayerID) {
		m.addLog(fmt.Sprintf("Rolled %d + %d = %d",
			state.LastRoll.Die1, state.LastRoll.Die2, state.LastRoll.Total))
	}
	if state.PendingDeal != nil && (prev == nil || prev.PendingDeal == nil || prev.PendingDeal.ID != state.PendingDeal.ID) {
		deal := state.PendingDeal
		m.addLog(MoneyStyle.Render(fmt.Sprintf("Deal: %s  cost $%d  cashflow $%d/mo  ('buy', 'buy credit' or 'skip')",
			deal.Name, deal.Cost, deal.CashFlow)))
	}
	if state.PendingCharity && (prev == nil || !prev.PendingCharity) {
		m.addLog(WarningStyle.Render("Charity cell: type 'charity' to donate for split rolls"))
	}
	if state.LastMarket != nil && (prev == nil || prev.LastMarket == nil || prev.LastMarket.ID != state.LastMarket.ID) {
		m.addLog(InfoStyle.Render(fmt.Sprintf("Market: %s offers $%d", state.LastMarket.Name, state.LastMarket.Offer)))
	}
	if state.Faulted && (prev == nil || !prev.Faulted) {
		m.addLog(ErrorStyle.Render("Room faulted; game abandoned"))
	}
}

// processCommand turns typed input into protocol messages.
func (m *Model) processCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	command, args := strings.ToLower(parts[0]), parts[1:]

	switch command {
	case "help", "?":
		m.addLog(InfoStyle.Render(helpText))

	case "quit", "exit":
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)

	case "rooms", "list":
		m.send(server.MessageTypeListRooms, struct{}{})

	case "create":
		name := strings.Join(args, " ")
		if name == "" {
			name = m.username + "'s game"
		}
		m.send(server.MessageTypeCreateRoom, server.CreateRoomData{Name: name})

	case "join":
		if len(args) != 1 {
			m.addLog(ErrorStyle.Render("Usage: join <room-code>"))
			return nil
		}
		m.send(server.MessageTypeJoinRoom, server.JoinRoomData{RoomID: strings.ToLower(args[0])})

	case "leave":
		m.send(server.MessageTypeLeaveRoom, server.LeaveRoomData{RoomID: m.roomID})

	case "start":
		m.send(server.MessageTypeStartSetup, server.StartSetupData{RoomID: m.roomID})

	case "ready":
		if len(args) != 2 {
			m.addLog(ErrorStyle.Render("Usage: ready <profession-id> <dream-id>"))
			return nil
		}
		m.send(server.MessageTypePlayerReady, server.PlayerReadyData{
			RoomID:       m.roomID,
			ProfessionID: args[0],
			DreamID:      args[1],
		})

	case "roll":
		split := len(args) == 1 && args[0] == "split"
		m.send(server.MessageTypeRollDice, server.RollDiceData{RoomID: m.roomID, Split: split})

	case "buy":
		useCredit := len(args) == 1 && args[0] == "credit"
		m.send(server.MessageTypeBuyDeal, server.BuyDealData{RoomID: m.roomID, UseCredit: useCredit})

	case "skip":
		m.send(server.MessageTypeSkipDeal, server.SkipDealData{RoomID: m.roomID})

	case "charity":
		m.send(server.MessageTypeBuyCharity, server.BuyCharityData{RoomID: m.roomID})

	case "transfer", "send":
		if len(args) != 2 {
			m.addLog(ErrorStyle.Render("Usage: transfer <player> <amount>"))
			return nil
		}
		amount, err := strconv.Atoi(args[1])
		if err != nil {
			m.addLog(ErrorStyle.Render("Amount must be a number"))
			return nil
		}
		m.send(server.MessageTypeTransferMoney, server.TransferMoneyData{
			RoomID:     m.roomID,
			ToPlayerID: m.resolvePlayer(args[0]),
			Amount:     amount,
		})

	case "end", "done":
		m.send(server.MessageTypeEndTurn, server.EndTurnData{RoomID: m.roomID})

	case "pause":
		m.send(server.MessageTypePauseTimer, server.TimerControlData{RoomID: m.roomID})

	case "resume":
		m.send(server.MessageTypeResumeTimer, server.TimerControlData{RoomID: m.roomID})

	default:
		m.addLog(ErrorStyle.Render("Unknown command: " + command + " (try 'help')"))
	}
	return nil
}

const helpText = `Commands:
  rooms                      list open rooms
  create [name]              create a room and take a seat
  join <code>                join a room by code
  leave                      leave the current room (before the game starts)
  start                      begin setup early (host)
  ready <profession> <dream> pick a profession and dream
  roll [split]               roll the dice ('split' moves by one die, charity only)
  buy [credit]               buy the presented deal, optionally on credit
  skip                       decline the presented deal
  charity                    donate at a charity cell
  transfer <player> <amount> send money to another player
  end                        end your turn
  pause / resume             pause or resume the turn timer (host)
  quit                       exit`

// resolvePlayer maps a username to a player ID where possible. Unknown
// names pass through so the server can reject them.
func (m *Model) resolvePlayer(name string) string {
	if m.state == nil {
		return name
	}
	for _, p := range m.state.Players {
		if strings.EqualFold(p.Username, name) || p.ID == name {
			return p.ID
		}
	}
	return name
}

func (m *Model) send(msgType server.MessageType, data any) {
	if err := m.conn.Send(msgType, data); err != nil {
		m.addLog(ErrorStyle.Render("Send failed: " + err.Error()))
	}
}

func (m *Model) decode(msg *server.Message, out any) bool {
	if err := decodeData(msg, out); err != nil {
		m.logger.Error("failed to decode server message", "type", msg.Type, "error", err)
		return false
	}
	return true
}

func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	inputContent := m.renderInputPane()
	inputHeight := lipgloss.Height(inputContent)

	inputWidth := max(m.width-2, 1)
	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(inputWidth)
	if m.focusedPane == 1 {
		inputStyle = inputStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	inputPane := inputStyle.Render(inputContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	sidebarHeight := max(m.height-inputHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(sidebarHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	logHeight := max(m.height-inputHeight-4, 1)

	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if !m.initialized && logWidth > 1 && logHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(logHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, inputPane)
}

// renderSidebarPane shows the room roster and the viewer's finances.
func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	if m.state == nil {
		content.WriteString(InfoStyle.Render("Not in a room"))
		content.WriteString("\n\n")
		content.WriteString(InfoStyle.Render("'rooms' to browse,\n'create' to host"))
		return content.String()
	}

	content.WriteString(HeaderStyle.Render(" " + m.state.Name + " "))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(m.state.RoomID + "  " + m.state.Phase))
	content.WriteString("\n\n")

	for _, p := range m.state.Players {
		marker := "  "
		if p.IsMyTurn {
			marker = TurnStyle.Render("> ")
		}
		name := p.Username
		if p.ID == m.playerID {
			name += " (you)"
		}
		content.WriteString(fmt.Sprintf("%s%-14s $%d\n", marker, name, p.Balance))
	}

	if me := m.viewer(); me != nil && me.Profession != "" {
		content.WriteString("\n")
		content.WriteString(MoneyStyle.Render(fmt.Sprintf("Cashflow: $%d/mo", me.MonthlyCashflow)))
		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("Income    $%d\n", me.MonthlyIncome))
		content.WriteString(fmt.Sprintf("Expenses  $%d\n", me.MonthlyExpenses))
		content.WriteString(fmt.Sprintf("Net worth $%d\n", me.NetWorth))
		content.WriteString(fmt.Sprintf("Track     %s #%d\n", me.Track, me.Position))
		if me.Charity {
			content.WriteString(WarningStyle.Render("Charity active\n"))
		}
	}

	if m.timer.IsActive {
		content.WriteString("\n")
		label := fmt.Sprintf("Timer: %ds", m.timer.Remaining)
		if m.timer.Paused {
			label += " (paused)"
		}
		content.WriteString(WarningStyle.Render(label))
	}

	return content.String()
}

// renderInputPane renders the command input pane.
func (m *Model) renderInputPane() string {
	var content strings.Builder
	content.WriteString(m.commandInput.View())
	content.WriteString("\n")
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return content.String()
}

func (m *Model) viewer() *game.PlayerSnapshot {
	if m.state == nil {
		return nil
	}
	for i := range m.state.Players {
		if m.state.Players[i].ID == m.playerID {
			return &m.state.Players[i]
		}
	}
	return nil
}
