package game

import "github.com/lox/ratrace/internal/refdata"

// TrackKind identifies which circle a player is moving on. A player is
// on exactly one track at a time.
type TrackKind int

const (
	SmallCircle TrackKind = iota
	BigCircle
)

func (t TrackKind) String() string {
	if t == BigCircle {
		return "big"
	}
	return "small"
}

// Asset is an acquired deal held by a player.
type Asset struct {
	CardID      string
	Name        string
	Cost        int
	CashFlow    int
	Liquidation int
}

// Liability is a loan the player carries.
type Liability struct {
	Principal      int
	MonthlyPayment int
	Description    string
}

// Player is one seat in a room. All mutation happens under the owning
// room's lock.
type Player struct {
	ID       string
	Username string

	Profession refdata.Profession
	Dream      refdata.Dream
	Ready      bool

	Balance     int
	Salary      int
	Expenses    int // monthly living expenses, excluding loan payments
	Assets      []Asset
	Liabilities []Liability

	Charity  bool
	Track    TrackKind
	Position int

	DealsCompleted int
}

// MonthlyIncome is salary plus asset cash flow.
func (p *Player) MonthlyIncome() int {
	income := p.Salary
	for _, a := range p.Assets {
		income += a.CashFlow
	}
	return income
}

// MonthlyExpenses is living expenses plus loan payments.
func (p *Player) MonthlyExpenses() int {
	expenses := p.Expenses
	for _, l := range p.Liabilities {
		expenses += l.MonthlyPayment
	}
	return expenses
}

// MonthlyCashflow is income minus expenses. The credit ceiling is ten
// times this value.
func (p *Player) MonthlyCashflow() int {
	return p.MonthlyIncome() - p.MonthlyExpenses()
}

// NetWorth is balance plus asset liquidation value minus loan principal.
func (p *Player) NetWorth() int {
	worth := p.Balance
	for _, a := range p.Assets {
		worth += a.Liquidation
	}
	for _, l := range p.Liabilities {
		worth -= l.Principal
	}
	return worth
}

// applyProfession seeds the player's financials from the chosen
// profession.
func (p *Player) applyProfession(prof refdata.Profession) {
	p.Profession = prof
	p.Salary = prof.Salary
	p.Expenses = prof.Expenses
	p.Balance = prof.Savings
}
