package claim

import "github.com/shopspring/decimal"

// Totals holds the per-section sums of a claim and their grand total.
type Totals struct {
	Journeys       decimal.Decimal
	Hotels         decimal.Decimal
	Conveyance     decimal.Decimal
	DailyAllowance decimal.Decimal
	Other          decimal.Decimal
	Grand          decimal.Decimal
}

// Totals sums every section.
func (c Claim) Totals() Totals {
	var t Totals
	for _, row := range c.Journeys {
		t.Journeys = t.Journeys.Add(row.Amount.Value())
	}
	for _, row := range c.Hotels {
		t.Hotels = t.Hotels.Add(row.Amount.Value())
	}
	for _, row := range c.Conveyance {
		t.Conveyance = t.Conveyance.Add(row.Amount.Value())
	}
	for _, row := range c.DAClaimed {
		t.DailyAllowance = t.DailyAllowance.Add(row.Amount.Value())
	}
	for _, row := range c.OtherExpenses {
		t.Other = t.Other.Add(row.Amount.Value())
	}
	t.Grand = decimal.Sum(t.Journeys, t.Hotels, t.Conveyance, t.DailyAllowance, t.Other)
	return t
}
