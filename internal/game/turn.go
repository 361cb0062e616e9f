package game

// Phase is the room lifecycle state.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseSetup
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseSetup:
		return "setup"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// TurnStage is where the current player is inside their turn cycle.
type TurnStage int

const (
	StageAwaitingRoll TurnStage = iota
	StageAwaitingAction
	StageTurnComplete
)

func (s TurnStage) String() string {
	switch s {
	case StageAwaitingRoll:
		return "awaiting_roll"
	case StageAwaitingAction:
		return "awaiting_action"
	case StageTurnComplete:
		return "turn_complete"
	default:
		return "unknown"
	}
}

// WinCondition decides whether a player has won. It is injected
// configuration, not a hard-coded rule: product owns the actual formula.
type WinCondition func(*Player) bool

// GraduateCondition decides when a player leaves the small circle for
// the big one.
type GraduateCondition func(*Player) bool

// DefaultWinCondition: the player has reached the big circle and their
// passive income covers a monthly share of the dream's cost.
func DefaultWinCondition(p *Player) bool {
	if p.Track != BigCircle || p.Dream.Cost <= 0 {
		return false
	}
	return p.MonthlyCashflow() >= p.Dream.Cost/100
}

// DefaultGraduateCondition: asset cash flow alone covers the player's
// monthly expenses.
func DefaultGraduateCondition(p *Player) bool {
	assetIncome := p.MonthlyIncome() - p.Salary
	return assetIncome > p.MonthlyExpenses()
}
