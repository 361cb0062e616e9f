package refdata

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// catalogFile is the HCL shape of a catalog override file.
type catalogFile struct {
	Professions []Profession  `hcl:"profession,block"`
	Dreams      []Dream       `hcl:"dream,block"`
	Deals       []DealCard    `hcl:"deal,block"`
	Markets     []MarketCard  `hcl:"market,block"`
	Expenses    []ExpenseCard `hcl:"expense,block"`
}

// Load reads a catalog from an HCL file. A missing file returns the
// compiled-in default catalog.
func Load(filename string) (*Catalog, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse catalog file: %s", diags.Error())
	}

	var cf catalogFile
	diags = gohcl.DecodeBody(file.Body, nil, &cf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode catalog: %s", diags.Error())
	}

	catalog := &Catalog{
		Professions: cf.Professions,
		Dreams:      cf.Dreams,
		Markets:     cf.Markets,
		Expenses:    cf.Expenses,
		SmallTrack:  defaultSmallTrack(),
		BigTrack:    defaultBigTrack(),
	}
	for _, deal := range cf.Deals {
		switch deal.Category {
		case SmallDeal:
			catalog.SmallDeals = append(catalog.SmallDeals, deal)
		case BigDeal:
			catalog.BigDeals = append(catalog.BigDeals, deal)
		default:
			return nil, fmt.Errorf("deal %s: unknown category %q", deal.ID, deal.Category)
		}
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Default returns the compiled-in catalog used when no override file is
// present.
func Default() *Catalog {
	return &Catalog{
		Professions: []Profession{
			{ID: "janitor", Name: "Janitor", Salary: 1600, Expenses: 1000, Savings: 560},
			{ID: "teacher", Name: "Teacher", Salary: 3300, Expenses: 2200, Savings: 400},
			{ID: "engineer", Name: "Engineer", Salary: 4900, Expenses: 3000, Savings: 400},
			{ID: "doctor", Name: "Doctor", Salary: 13200, Expenses: 9500, Savings: 3500},
			{ID: "pilot", Name: "Airline Pilot", Salary: 9500, Expenses: 6600, Savings: 2500},
		},
		Dreams: []Dream{
			{ID: "island", Name: "Private Island", Cost: 500000},
			{ID: "yacht", Name: "Ocean Yacht", Cost: 250000},
			{ID: "charity-fund", Name: "Children's Charity Fund", Cost: 100000},
			{ID: "space-flight", Name: "Ticket to Space", Cost: 350000},
		},
		SmallDeals: []DealCard{
			{ID: "condo-2br", Name: "2BR Condo", Category: SmallDeal, Cost: 4000, CashFlow: 150, Liquidation: 45000},
			{ID: "stock-myt4u", Name: "MYT4U Shares", Category: SmallDeal, Cost: 1000, CashFlow: 0, Liquidation: 2000},
			{ID: "land-10ac", Name: "10 Acres Raw Land", Category: SmallDeal, Cost: 5000, CashFlow: 0, Liquidation: 10000},
			{ID: "house-3br", Name: "3BR House", Category: SmallDeal, Cost: 3500, CashFlow: 100, Liquidation: 50000},
			{ID: "vending", Name: "Vending Route", Category: SmallDeal, Cost: 2000, CashFlow: 200, Liquidation: 3000},
			{ID: "stock-ok4u", Name: "OK4U Bonds", Category: SmallDeal, Cost: 3000, CashFlow: 60, Liquidation: 3000},
		},
		BigDeals: []DealCard{
			{ID: "apartment-8plex", Name: "8-Plex Apartment", Category: BigDeal, Cost: 40000, CashFlow: 1700, Liquidation: 220000},
			{ID: "carwash", Name: "Automated Car Wash", Category: BigDeal, Cost: 50000, CashFlow: 1800, Liquidation: 350000},
			{ID: "minimart", Name: "24h Mini-Mart", Category: BigDeal, Cost: 30000, CashFlow: 1000, Liquidation: 130000},
			{ID: "warehouse", Name: "Storage Warehouse", Category: BigDeal, Cost: 25000, CashFlow: 1400, Liquidation: 110000},
			{ID: "pizzeria", Name: "Franchise Pizzeria", Category: BigDeal, Cost: 60000, CashFlow: 2200, Liquidation: 320000},
			{ID: "duplex", Name: "Duplex", Category: BigDeal, Cost: 18000, CashFlow: 480, Liquidation: 90000},
		},
		Markets: []MarketCard{
			{ID: "condo-buyer", Name: "Condo Buyer", Offer: 55000},
			{ID: "land-boom", Name: "Land Developer Offer", Offer: 25000},
			{ID: "stock-split", Name: "Stock Split", Offer: 4000},
			{ID: "plex-buyer", Name: "Apartment Investor", Offer: 280000},
			{ID: "franchise-chain", Name: "Franchise Chain Buyout", Offer: 400000},
			{ID: "house-buyer", Name: "First-Time Home Buyer", Offer: 65000},
		},
		Expenses: []ExpenseCard{
			{ID: "tv", Name: "Big-Screen TV", Cost: 800},
			{ID: "boat-repair", Name: "Boat Engine Repair", Cost: 1800},
			{ID: "dental", Name: "Dental Work", Cost: 2000},
			{ID: "vacation", Name: "Family Vacation", Cost: 3000},
			{ID: "car", Name: "New Car", Cost: 17000},
			{ID: "shopping", Name: "Shopping Spree", Cost: 1000},
		},
		SmallTrack: defaultSmallTrack(),
		BigTrack:   defaultBigTrack(),
	}
}

// defaultSmallTrack is the 24-cell rat race circle. Layout repeats a
// deal-heavy pattern with a payday every eighth cell.
func defaultSmallTrack() Track {
	return Track{
		Name: "small",
		Cells: []CellKind{
			CellPayday, CellDeal, CellMarket, CellDeal,
			CellExpense, CellDeal, CellCharity, CellDeal,
			CellPayday, CellDeal, CellMarket, CellDeal,
			CellExpense, CellDeal, CellNeutral, CellDeal,
			CellPayday, CellDeal, CellMarket, CellDeal,
			CellExpense, CellDeal, CellNeutral, CellDeal,
		},
	}
}

// defaultBigTrack is the 48-cell fast track circle.
func defaultBigTrack() Track {
	cells := make([]CellKind, 0, 48)
	for i := 0; i < 48; i++ {
		switch {
		case i%12 == 0:
			cells = append(cells, CellPayday)
		case i%6 == 3:
			cells = append(cells, CellMarket)
		case i%8 == 5:
			cells = append(cells, CellExpense)
		default:
			cells = append(cells, CellDeal)
		}
	}
	return Track{Name: "big", Cells: cells}
}
