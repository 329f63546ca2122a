package analytics

import (
	"time"

	"fintrack/internal/core"
)

// monthLabelLayout renders months the way the chart axis shows them.
const monthLabelLayout = "Jan 2006"

// Period is a calendar month expressed as the half-open interval
// [Start, End) in the reference time's location.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Shift moves the period by n calendar months.
func (p Period) Shift(n int) Period {
	start := p.Start.AddDate(0, n, 0)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains compares instants; no timezone normalization happens.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) Label() string {
	return p.Start.Format(monthLabelLayout)
}

// totals holds per-type sums for one filter pass.
type totals struct {
	income   core.Money
	expenses core.Money
	count    int
}

func sumWithin(txs []core.Transaction, p Period) totals {
	var t totals
	for _, tx := range txs {
		if !p.Contains(tx.Date) {
			continue
		}
		t.count++
		switch tx.Type {
		case core.Income:
			t.income = t.income.Add(tx.Amount)
		case core.Expense:
			t.expenses = t.expenses.Add(tx.Amount)
		}
	}
	return t
}
