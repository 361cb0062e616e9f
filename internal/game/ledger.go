package game

import (
	"fmt"

	"github.com/lox/ratrace/internal/refdata"
)

// TransactionKind labels a committed ledger operation.
type TransactionKind string

const (
	TxPurchase        TransactionKind = "purchase"
	TxCreditDraw      TransactionKind = "credit_draw"
	TxCreditRepay     TransactionKind = "credit_repay"
	TxTransfer        TransactionKind = "transfer"
	TxPassiveIncome   TransactionKind = "passive_income"
	TxCharityPurchase TransactionKind = "charity_purchase"
	TxExpense         TransactionKind = "expense"
)

// Transaction records one committed ledger operation for the room's
// transaction log. Rejected operations never produce one.
type Transaction struct {
	Kind          TransactionKind `json:"kind"`
	SourceID      string          `json:"sourceId"`
	DestID        string          `json:"destId,omitempty"`
	Amount        int             `json:"amount"`
	SourceBalance int             `json:"sourceBalance"`
	DestBalance   int             `json:"destBalance,omitempty"`
}

// Financing splits a purchase price between cash and a new loan.
type Financing struct {
	FromBalance int `json:"fromBalance"`
	FromCredit  int `json:"fromCredit"`
}

// creditCeilingMultiple: a player may borrow at most ten months of
// cashflow in a single financing decision.
const creditCeilingMultiple = 10

// PlanFinancing computes the default cash/credit split for a purchase.
// Cash participation rounds the balance down to the nearest 1000 (round
// lot borrowing); the remainder is credit. The rounding rule is a
// compatibility constraint and must not change.
func PlanFinancing(balance, cost int) Financing {
	fromBalance := balance / 1000 * 1000
	if fromBalance > cost {
		fromBalance = cost
	}
	if fromBalance < 0 {
		fromBalance = 0
	}
	return Financing{FromBalance: fromBalance, FromCredit: cost - fromBalance}
}

// Ledger applies financial operations to players. Atomicity is relative
// to the owning room's serialization point: the room holds its lock for
// the full duration of every Apply call, so an operation either commits
// entirely or (on a typed error) mutates nothing.
type Ledger struct {
	// InterestRatePercent is the monthly payment on new credit, as a
	// percentage of the principal.
	InterestRatePercent int
}

// CreditCeiling returns the maximum borrowable amount for p in a single
// financing decision.
func (l *Ledger) CreditCeiling(p *Player) int {
	ceiling := p.MonthlyCashflow() * creditCeilingMultiple
	if ceiling < 0 {
		return 0
	}
	return ceiling
}

// ApplyPurchase buys card for p using the given financing split. All
// validation happens before any mutation.
func (l *Ledger) ApplyPurchase(p *Player, card refdata.DealCard, fin Financing) (Transaction, error) {
	if fin.FromBalance < 0 || fin.FromCredit < 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if fin.FromBalance+fin.FromCredit != card.Cost {
		return Transaction{}, fmt.Errorf("%w: financing %d+%d does not cover cost %d",
			ErrInvalidAmount, fin.FromBalance, fin.FromCredit, card.Cost)
	}
	if fin.FromBalance > p.Balance {
		return Transaction{}, ErrInsufficientFunds
	}
	if fin.FromCredit > l.CreditCeiling(p) {
		return Transaction{}, ErrOverCreditLimit
	}

	p.Balance -= fin.FromBalance
	if fin.FromCredit > 0 {
		p.Liabilities = append(p.Liabilities, Liability{
			Principal:      fin.FromCredit,
			MonthlyPayment: fin.FromCredit * l.InterestRatePercent / 100,
			Description:    "loan for " + card.Name,
		})
	}
	p.Assets = append(p.Assets, Asset{
		CardID:      card.ID,
		Name:        card.Name,
		Cost:        card.Cost,
		CashFlow:    card.CashFlow,
		Liquidation: card.Liquidation,
	})
	p.DealsCompleted++

	return Transaction{
		Kind:          TxPurchase,
		SourceID:      p.ID,
		Amount:        card.Cost,
		SourceBalance: p.Balance,
	}, nil
}

// ApplyTransfer moves amount from one player to another.
func (l *Ledger) ApplyTransfer(from, to *Player, amount int) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if from.Balance < amount {
		return Transaction{}, ErrInsufficientFunds
	}

	from.Balance -= amount
	to.Balance += amount

	return Transaction{
		Kind:          TxTransfer,
		SourceID:      from.ID,
		DestID:        to.ID,
		Amount:        amount,
		SourceBalance: from.Balance,
		DestBalance:   to.Balance,
	}, nil
}

// ApplyCharityPurchase grants the charity upgrade. Repeated calls are a
// no-op: charity never reverts within a game.
func (l *Ledger) ApplyCharityPurchase(p *Player) Transaction {
	p.Charity = true
	return Transaction{
		Kind:          TxCharityPurchase,
		SourceID:      p.ID,
		SourceBalance: p.Balance,
	}
}

// ApplyCreditDraw borrows amount against the player's cashflow, adding
// the cash and a matching liability.
func (l *Ledger) ApplyCreditDraw(p *Player, amount int) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if amount > l.CreditCeiling(p) {
		return Transaction{}, ErrOverCreditLimit
	}

	p.Balance += amount
	p.Liabilities = append(p.Liabilities, Liability{
		Principal:      amount,
		MonthlyPayment: amount * l.InterestRatePercent / 100,
		Description:    "bank loan",
	})

	return Transaction{
		Kind:          TxCreditDraw,
		SourceID:      p.ID,
		Amount:        amount,
		SourceBalance: p.Balance,
	}, nil
}

// ApplyCreditRepay retires amount of loan principal, newest loan first,
// reducing the monthly payments proportionally.
func (l *Ledger) ApplyCreditRepay(p *Player, amount int) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if amount > p.Balance {
		return Transaction{}, ErrInsufficientFunds
	}
	outstanding := 0
	for _, liab := range p.Liabilities {
		outstanding += liab.Principal
	}
	if amount > outstanding {
		return Transaction{}, fmt.Errorf("%w: repay %d exceeds outstanding principal %d",
			ErrInvalidAmount, amount, outstanding)
	}

	p.Balance -= amount
	remaining := amount
	for i := len(p.Liabilities) - 1; i >= 0 && remaining > 0; i-- {
		liab := &p.Liabilities[i]
		retire := min(remaining, liab.Principal)
		ratio := liab.Principal
		liab.Principal -= retire
		if liab.Principal == 0 {
			liab.MonthlyPayment = 0
		} else {
			liab.MonthlyPayment = liab.MonthlyPayment * liab.Principal / ratio
		}
		remaining -= retire
	}
	p.Liabilities = compactLiabilities(p.Liabilities)

	return Transaction{
		Kind:          TxCreditRepay,
		SourceID:      p.ID,
		Amount:        amount,
		SourceBalance: p.Balance,
	}, nil
}

// ApplyExpense charges a one-off expense card. A shortfall is financed
// by an automatic credit draw; if even the ceiling cannot cover it the
// expense is rejected untouched.
func (l *Ledger) ApplyExpense(p *Player, card refdata.ExpenseCard) (Transaction, error) {
	if card.Cost > p.Balance {
		shortfall := card.Cost - p.Balance
		if shortfall > l.CreditCeiling(p) {
			return Transaction{}, ErrInsufficientFunds
		}
		if _, err := l.ApplyCreditDraw(p, shortfall); err != nil {
			return Transaction{}, err
		}
	}

	p.Balance -= card.Cost

	return Transaction{
		Kind:          TxExpense,
		SourceID:      p.ID,
		Amount:        card.Cost,
		SourceBalance: p.Balance,
	}, nil
}

// AccruePassiveIncome pays the player one month of cashflow. The turn
// state machine invokes this on lap completion.
func (l *Ledger) AccruePassiveIncome(p *Player) Transaction {
	cashflow := p.MonthlyCashflow()
	p.Balance += cashflow
	return Transaction{
		Kind:          TxPassiveIncome,
		SourceID:      p.ID,
		Amount:        cashflow,
		SourceBalance: p.Balance,
	}
}

func compactLiabilities(liabs []Liability) []Liability {
	out := liabs[:0]
	for _, l := range liabs {
		if l.Principal > 0 {
			out = append(out, l)
		}
	}
	return out
}
