// Package refdata holds the static game content: professions, dream
// goals, the four card decks and the board track layouts. The catalog is
// loaded once at startup and is read-only afterwards, so rooms share it
// freely without locking.
package refdata

import "fmt"

// DealCategory distinguishes the two investment decks.
type DealCategory string

const (
	SmallDeal DealCategory = "small"
	BigDeal   DealCategory = "big"
)

// CellKind is what a board cell does when a player lands on it.
type CellKind int

const (
	CellNeutral CellKind = iota
	CellDeal             // player chooses a small or big deal
	CellMarket
	CellExpense
	CellCharity
	CellPayday
)

func (k CellKind) String() string {
	switch k {
	case CellDeal:
		return "deal"
	case CellMarket:
		return "market"
	case CellExpense:
		return "expense"
	case CellCharity:
		return "charity"
	case CellPayday:
		return "payday"
	default:
		return "neutral"
	}
}

// Profession defines a player's starting financial position.
type Profession struct {
	ID       string `hcl:"id,label"`
	Name     string `hcl:"name"`
	Salary   int    `hcl:"salary"`
	Expenses int    `hcl:"expenses"`
	Savings  int    `hcl:"savings"`
}

// Dream is a goal a player picks during setup. Funding it is the default
// win condition input.
type Dream struct {
	ID   string `hcl:"id,label"`
	Name string `hcl:"name"`
	Cost int    `hcl:"cost"`
}

// DealCard is an investment purchasable with cash and/or credit.
type DealCard struct {
	ID          string       `hcl:"id,label"`
	Name        string       `hcl:"name"`
	Category    DealCategory `hcl:"category"`
	Cost        int          `hcl:"cost"`
	CashFlow    int          `hcl:"cash_flow"`
	Liquidation int          `hcl:"liquidation"`
}

// MarketCard adjusts the value of held assets when drawn.
type MarketCard struct {
	ID    string `hcl:"id,label"`
	Name  string `hcl:"name"`
	Offer int    `hcl:"offer"` // liquidation offer per matching asset
}

// ExpenseCard is a one-off mandatory cost ("doodad").
type ExpenseCard struct {
	ID   string `hcl:"id,label"`
	Name string `hcl:"name"`
	Cost int    `hcl:"cost"`
}

// Track is an ordered cell layout for one of the two circles.
type Track struct {
	Name  string
	Cells []CellKind
}

// Length returns the number of cells on the track.
func (t Track) Length() int { return len(t.Cells) }

// CellAt returns the cell kind at a wrapped index.
func (t Track) CellAt(i int) CellKind { return t.Cells[i%len(t.Cells)] }

// Catalog is the immutable reference data store.
type Catalog struct {
	Professions []Profession
	Dreams      []Dream
	SmallDeals  []DealCard
	BigDeals    []DealCard
	Markets     []MarketCard
	Expenses    []ExpenseCard
	SmallTrack  Track
	BigTrack    Track
}

// ProfessionByID looks up a profession.
func (c *Catalog) ProfessionByID(id string) (Profession, bool) {
	for _, p := range c.Professions {
		if p.ID == id {
			return p, true
		}
	}
	return Profession{}, false
}

// DreamByID looks up a dream goal.
func (c *Catalog) DreamByID(id string) (Dream, bool) {
	for _, d := range c.Dreams {
		if d.ID == id {
			return d, true
		}
	}
	return Dream{}, false
}

// Validate checks the catalog is playable. A track must be at least 13
// cells so the maximum roll of 12 cannot lap it twice in one move.
func (c *Catalog) Validate() error {
	if len(c.Professions) == 0 {
		return fmt.Errorf("catalog has no professions")
	}
	if len(c.Dreams) == 0 {
		return fmt.Errorf("catalog has no dreams")
	}
	if len(c.SmallDeals) == 0 || len(c.BigDeals) == 0 {
		return fmt.Errorf("catalog needs at least one small and one big deal")
	}
	if len(c.Markets) == 0 || len(c.Expenses) == 0 {
		return fmt.Errorf("catalog needs at least one market and one expense card")
	}
	for _, p := range c.Professions {
		if p.Salary <= 0 || p.Expenses < 0 || p.Savings < 0 {
			return fmt.Errorf("profession %s: invalid financials", p.ID)
		}
	}
	for _, d := range c.Dreams {
		if d.Cost <= 0 {
			return fmt.Errorf("dream %s: cost must be positive", d.ID)
		}
	}
	for _, deals := range [][]DealCard{c.SmallDeals, c.BigDeals} {
		for _, card := range deals {
			if card.Cost <= 0 {
				return fmt.Errorf("deal %s: cost must be positive", card.ID)
			}
		}
	}
	for _, card := range c.Expenses {
		if card.Cost <= 0 {
			return fmt.Errorf("expense %s: cost must be positive", card.ID)
		}
	}
	for _, track := range []Track{c.SmallTrack, c.BigTrack} {
		if track.Length() < 13 {
			return fmt.Errorf("track %s: must have at least 13 cells, got %d", track.Name, track.Length())
		}
	}
	return nil
}
