package game

import (
	"errors"
	"testing"

	"github.com/lox/ratrace/internal/refdata"
)

func testPlayer() *Player {
	return &Player{
		ID:       "p1",
		Username: "alice",
		Balance:  3200,
		Salary:   5000,
		Expenses: 2000,
	}
}

func TestPlanFinancing(t *testing.T) {
	tests := []struct {
		name        string
		balance     int
		cost        int
		fromBalance int
		fromCredit  int
	}{
		{"balance covers cost", 12345, 5000, 5000, 0},
		{"round lot split", 3200, 10000, 3000, 7000},
		{"balance under one lot", 999, 5000, 0, 5000},
		{"zero balance", 0, 1000, 0, 1000},
		{"exact lot equals cost", 5000, 5000, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fin := PlanFinancing(tt.balance, tt.cost)
			if fin.FromBalance != tt.fromBalance || fin.FromCredit != tt.fromCredit {
				t.Errorf("PlanFinancing(%d, %d) = %d/%d, want %d/%d",
					tt.balance, tt.cost, fin.FromBalance, fin.FromCredit, tt.fromBalance, tt.fromCredit)
			}
			if fin.FromBalance+fin.FromCredit != tt.cost {
				t.Errorf("financing does not cover cost: %d+%d != %d", fin.FromBalance, fin.FromCredit, tt.cost)
			}
		})
	}
}

func TestCreditCeiling(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}
	p := testPlayer()

	// 5000 income - 2000 expenses = 3000 cashflow, ceiling 30000.
	if got := l.CreditCeiling(p); got != 30000 {
		t.Errorf("CreditCeiling = %d, want 30000", got)
	}

	p.Expenses = 6000
	if got := l.CreditCeiling(p); got != 0 {
		t.Errorf("negative cashflow ceiling = %d, want 0", got)
	}
}

func TestApplyPurchase(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}
	card := refdata.DealCard{ID: "plex", Name: "8-Plex", Cost: 10000, CashFlow: 500, Liquidation: 40000}

	t.Run("financed purchase", func(t *testing.T) {
		p := testPlayer()
		fin := PlanFinancing(p.Balance, card.Cost)
		tx, err := l.ApplyPurchase(p, card, fin)
		if err != nil {
			t.Fatalf("ApplyPurchase: %v", err)
		}
		if p.Balance != 200 {
			t.Errorf("balance = %d, want 200", p.Balance)
		}
		if len(p.Liabilities) != 1 || p.Liabilities[0].Principal != 7000 || p.Liabilities[0].MonthlyPayment != 700 {
			t.Errorf("liabilities = %+v, want one 7000 principal / 700 payment", p.Liabilities)
		}
		if len(p.Assets) != 1 || p.Assets[0].CardID != "plex" || p.Assets[0].CashFlow != 500 {
			t.Errorf("assets = %+v", p.Assets)
		}
		if p.DealsCompleted != 1 {
			t.Errorf("DealsCompleted = %d, want 1", p.DealsCompleted)
		}
		if tx.Kind != TxPurchase || tx.Amount != 10000 || tx.SourceBalance != 200 {
			t.Errorf("transaction = %+v", tx)
		}
	})

	t.Run("financing must cover cost exactly", func(t *testing.T) {
		p := testPlayer()
		_, err := l.ApplyPurchase(p, card, Financing{FromBalance: 3000, FromCredit: 3000})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
		assertUntouched(t, p)
	})

	t.Run("cash beyond balance rejected", func(t *testing.T) {
		p := testPlayer()
		_, err := l.ApplyPurchase(p, card, Financing{FromBalance: 10000, FromCredit: 0})
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("err = %v, want ErrInsufficientFunds", err)
		}
		assertUntouched(t, p)
	})

	t.Run("credit beyond ceiling rejected", func(t *testing.T) {
		p := testPlayer()
		big := refdata.DealCard{ID: "tower", Name: "Tower", Cost: 50000}
		_, err := l.ApplyPurchase(p, big, Financing{FromBalance: 3000, FromCredit: 47000})
		if !errors.Is(err, ErrOverCreditLimit) {
			t.Errorf("err = %v, want ErrOverCreditLimit", err)
		}
		assertUntouched(t, p)
	})

	t.Run("negative financing rejected", func(t *testing.T) {
		p := testPlayer()
		_, err := l.ApplyPurchase(p, card, Financing{FromBalance: -1, FromCredit: 10001})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
		assertUntouched(t, p)
	})
}

func assertUntouched(t *testing.T, p *Player) {
	t.Helper()
	if p.Balance != 3200 || len(p.Assets) != 0 || len(p.Liabilities) != 0 || p.DealsCompleted != 0 {
		t.Errorf("rejected operation mutated player: %+v", p)
	}
}

func TestApplyTransfer(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}
	from := testPlayer()
	to := &Player{ID: "p2", Username: "bob", Balance: 100}

	tx, err := l.ApplyTransfer(from, to, 1200)
	if err != nil {
		t.Fatalf("ApplyTransfer: %v", err)
	}
	if from.Balance != 2000 || to.Balance != 1300 {
		t.Errorf("balances = %d/%d, want 2000/1300", from.Balance, to.Balance)
	}
	if tx.Kind != TxTransfer || tx.SourceID != "p1" || tx.DestID != "p2" || tx.Amount != 1200 {
		t.Errorf("transaction = %+v", tx)
	}

	if _, err := l.ApplyTransfer(from, to, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount err = %v, want ErrInvalidAmount", err)
	}
	if _, err := l.ApplyTransfer(from, to, -50); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount err = %v, want ErrInvalidAmount", err)
	}
	if _, err := l.ApplyTransfer(from, to, 99999); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overdraw err = %v, want ErrInsufficientFunds", err)
	}
	if from.Balance != 2000 || to.Balance != 1300 {
		t.Errorf("rejected transfers mutated balances: %d/%d", from.Balance, to.Balance)
	}
}

func TestApplyCharityPurchaseIdempotent(t *testing.T) {
	l := Ledger{}
	p := testPlayer()

	tx := l.ApplyCharityPurchase(p)
	if !p.Charity {
		t.Fatal("charity flag not set")
	}
	if tx.Kind != TxCharityPurchase {
		t.Errorf("transaction kind = %s", tx.Kind)
	}

	l.ApplyCharityPurchase(p)
	if !p.Charity {
		t.Error("charity flag reverted on repeat purchase")
	}
}

func TestCreditDrawAndRepay(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}
	p := testPlayer()

	if _, err := l.ApplyCreditDraw(p, 10000); err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if _, err := l.ApplyCreditDraw(p, 5000); err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if p.Balance != 18200 {
		t.Errorf("balance after draws = %d, want 18200", p.Balance)
	}
	if len(p.Liabilities) != 2 || p.Liabilities[0].MonthlyPayment != 1000 || p.Liabilities[1].MonthlyPayment != 500 {
		t.Fatalf("liabilities = %+v", p.Liabilities)
	}

	// Repayment retires the newest loan first.
	if _, err := l.ApplyCreditRepay(p, 6000); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if p.Balance != 12200 {
		t.Errorf("balance after repay = %d, want 12200", p.Balance)
	}
	if len(p.Liabilities) != 1 {
		t.Fatalf("liabilities after repay = %+v, want the older loan only", p.Liabilities)
	}
	if p.Liabilities[0].Principal != 9000 || p.Liabilities[0].MonthlyPayment != 900 {
		t.Errorf("remaining loan = %+v, want 9000 principal / 900 payment", p.Liabilities[0])
	}

	if _, err := l.ApplyCreditRepay(p, 99999); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("repay beyond balance err = %v, want ErrInsufficientFunds", err)
	}
	if _, err := l.ApplyCreditRepay(p, 10000); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("repay beyond outstanding err = %v, want ErrInvalidAmount", err)
	}
}

func TestApplyCreditDrawLimits(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}
	p := testPlayer()

	if _, err := l.ApplyCreditDraw(p, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero draw err = %v, want ErrInvalidAmount", err)
	}
	if _, err := l.ApplyCreditDraw(p, 30001); !errors.Is(err, ErrOverCreditLimit) {
		t.Errorf("over ceiling err = %v, want ErrOverCreditLimit", err)
	}
	if p.Balance != 3200 || len(p.Liabilities) != 0 {
		t.Errorf("rejected draws mutated player: %+v", p)
	}
}

func TestApplyExpense(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}

	t.Run("covered by balance", func(t *testing.T) {
		p := testPlayer()
		tx, err := l.ApplyExpense(p, refdata.ExpenseCard{ID: "tv", Cost: 800})
		if err != nil {
			t.Fatalf("ApplyExpense: %v", err)
		}
		if p.Balance != 2400 || len(p.Liabilities) != 0 {
			t.Errorf("player = %+v", p)
		}
		if tx.Kind != TxExpense || tx.Amount != 800 {
			t.Errorf("transaction = %+v", tx)
		}
	})

	t.Run("shortfall drawn on credit", func(t *testing.T) {
		p := testPlayer()
		p.Balance = 100
		if _, err := l.ApplyExpense(p, refdata.ExpenseCard{ID: "car", Cost: 1000}); err != nil {
			t.Fatalf("ApplyExpense: %v", err)
		}
		if p.Balance != 0 {
			t.Errorf("balance = %d, want 0", p.Balance)
		}
		if len(p.Liabilities) != 1 || p.Liabilities[0].Principal != 900 || p.Liabilities[0].MonthlyPayment != 90 {
			t.Errorf("liabilities = %+v, want one 900 principal loan", p.Liabilities)
		}
	})

	t.Run("unpayable even with credit", func(t *testing.T) {
		p := &Player{ID: "p3", Balance: 0, Salary: 1000, Expenses: 1000} // zero cashflow, zero ceiling
		_, err := l.ApplyExpense(p, refdata.ExpenseCard{ID: "boat", Cost: 500})
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("err = %v, want ErrInsufficientFunds", err)
		}
		if p.Balance != 0 || len(p.Liabilities) != 0 {
			t.Errorf("rejected expense mutated player: %+v", p)
		}
	})
}

func TestAccruePassiveIncome(t *testing.T) {
	l := Ledger{InterestRatePercent: 10}
	p := testPlayer()
	p.Assets = append(p.Assets, Asset{CardID: "plex", CashFlow: 500})

	tx := l.AccruePassiveIncome(p)
	// 5000 salary + 500 asset - 2000 expenses = 3500.
	if p.Balance != 6700 {
		t.Errorf("balance = %d, want 6700", p.Balance)
	}
	if tx.Kind != TxPassiveIncome || tx.Amount != 3500 {
		t.Errorf("transaction = %+v", tx)
	}
}
