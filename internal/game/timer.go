package game

// TimerState is a snapshot of the turn countdown, broadcast to clients
// on every change.
type TimerState struct {
	Remaining int  `json:"remaining"`
	Running   bool `json:"isActive"`
	Paused    bool `json:"paused"`
}

// TurnTimer counts a turn budget down one second at a time. It holds no
// goroutine of its own: the owning room drives Tick from its clock so a
// tick can never race with a player action. Pausing freezes the
// remaining value; resuming continues from it.
type TurnTimer struct {
	remaining int
	running   bool
	paused    bool
	onExpire  func()
}

// NewTurnTimer creates a stopped timer. onExpire fires exactly once each
// time the countdown reaches zero.
func NewTurnTimer(onExpire func()) *TurnTimer {
	return &TurnTimer{onExpire: onExpire}
}

// Start resets the countdown to budget seconds and starts it.
func (t *TurnTimer) Start(budget int) {
	t.remaining = budget
	t.running = true
	t.paused = false
}

// Stop halts the countdown without firing expiry.
func (t *TurnTimer) Stop() {
	t.running = false
	t.paused = false
}

// Pause freezes the countdown. A no-op when the timer is not running.
func (t *TurnTimer) Pause() {
	if t.running {
		t.paused = true
	}
}

// Resume continues a paused countdown from its frozen value.
func (t *TurnTimer) Resume() {
	if t.running {
		t.paused = false
	}
}

// Tick advances the countdown by one second. Returns true when this tick
// expired the timer.
func (t *TurnTimer) Tick() bool {
	if !t.running || t.paused {
		return false
	}
	t.remaining--
	if t.remaining > 0 {
		return false
	}
	t.remaining = 0
	t.running = false
	if t.onExpire != nil {
		t.onExpire()
	}
	return true
}

// Remaining returns the seconds left on the countdown.
func (t *TurnTimer) Remaining() int { return t.remaining }

// Paused reports whether the countdown is frozen.
func (t *TurnTimer) Paused() bool { return t.paused }

// Running reports whether the countdown is active (paused counts as
// running: the turn is still open).
func (t *TurnTimer) Running() bool { return t.running }

// State returns a broadcastable snapshot.
func (t *TurnTimer) State() TimerState {
	return TimerState{Remaining: t.remaining, Running: t.running, Paused: t.paused}
}
