package game

import "github.com/lox/ratrace/internal/refdata"

// PlayerSnapshot is the wire view of one seat. IsMyTurn is derived from
// the room's current turn pointer, never stored on the player.
type PlayerSnapshot struct {
	ID              string      `json:"id"`
	Username        string      `json:"username"`
	Profession      string      `json:"profession,omitempty"`
	Dream           string      `json:"dream,omitempty"`
	Ready           bool        `json:"ready"`
	Balance         int         `json:"balance"`
	MonthlyIncome   int         `json:"monthlyIncome"`
	MonthlyExpenses int         `json:"monthlyExpenses"`
	MonthlyCashflow int         `json:"monthlyCashflow"`
	NetWorth        int         `json:"netWorth"`
	Charity         bool        `json:"charity"`
	Track           string      `json:"track"`
	Position        int         `json:"position"`
	IsMyTurn        bool        `json:"isMyTurn"`
	Assets          []Asset     `json:"assets,omitempty"`
	Liabilities     []Liability `json:"liabilities,omitempty"`
}

// RoomSnapshot is the full room state, broadcast after every committed
// mutation and used for reconnect resync.
type RoomSnapshot struct {
	RoomID              string              `json:"roomId"`
	Name                string              `json:"name"`
	Phase               string              `json:"phase"`
	HostID              string              `json:"hostId"`
	MaxPlayers          int                 `json:"maxPlayers"`
	Players             []PlayerSnapshot    `json:"players"`
	CurrentTurnPlayerID string              `json:"currentTurnPlayerId,omitempty"`
	Stage               string              `json:"stage,omitempty"`
	LastRoll            *RollResult         `json:"lastRoll,omitempty"`
	PendingDeal         *refdata.DealCard   `json:"pendingDeal,omitempty"`
	PendingCharity      bool                `json:"pendingCharity,omitempty"`
	LastMarket          *refdata.MarketCard `json:"lastMarket,omitempty"`
	Timer               TimerState          `json:"timer"`
	ElapsedSeconds      int                 `json:"elapsedSeconds"`
	Faulted             bool                `json:"faulted,omitempty"`
}

// Snapshot returns the current full room state.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() RoomSnapshot {
	snap := RoomSnapshot{
		RoomID:         r.ID,
		Name:           r.cfg.Name,
		Phase:          r.phase.String(),
		HostID:         r.hostID,
		MaxPlayers:     r.cfg.MaxPlayers,
		PendingDeal:    r.pendingDeal,
		PendingCharity: r.pendingCharity,
		LastMarket:     r.lastMarket,
		LastRoll:       r.lastRoll,
		Timer:          r.timer.State(),
		ElapsedSeconds: r.elapsedSeconds,
		Faulted:        r.faulted,
	}
	if r.phase == PhaseInProgress {
		snap.CurrentTurnPlayerID = r.players[r.currentTurn].ID
		snap.Stage = r.stage.String()
	}
	for i, p := range r.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:              p.ID,
			Username:        p.Username,
			Profession:      p.Profession.Name,
			Dream:           p.Dream.Name,
			Ready:           p.Ready,
			Balance:         p.Balance,
			MonthlyIncome:   p.MonthlyIncome(),
			MonthlyExpenses: p.MonthlyExpenses(),
			MonthlyCashflow: p.MonthlyCashflow(),
			NetWorth:        p.NetWorth(),
			Charity:         p.Charity,
			Track:           p.Track.String(),
			Position:        p.Position,
			IsMyTurn:        r.phase == PhaseInProgress && i == r.currentTurn,
			Assets:          p.Assets,
			Liabilities:     p.Liabilities,
		})
	}
	return snap
}
