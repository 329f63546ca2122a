// Package analytics derives summaries, chart series, budget progress and
// spending insights from a transaction collection.
//
// Every function here is a pure function of its arguments: the transaction
// slice is never modified and nothing is cached between calls. An empty
// collection always yields zero or empty results.
package analytics

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// DefaultWindow is the number of months in the monthly chart series.
const DefaultWindow = 6

// NoCategory is reported as top category when there are no expenses.
const NoCategory = "None"

// MonthlyPoint is one bar group of the monthly overview chart.
type MonthlyPoint struct {
	Month    string     `json:"month"`
	Start    time.Time  `json:"start"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Net      core.Money `json:"net"`
}

// CategoryTotal is one slice of the expenses-by-category chart.
type CategoryTotal struct {
	Name  string     `json:"name"`
	Total core.Money `json:"value"`
	Color string     `json:"color"`
}

// BudgetStatus is the current-month progress of one budgeted category.
type BudgetStatus struct {
	Category     string     `json:"category"`
	Color        string     `json:"color"`
	Spent        core.Money `json:"spent"`
	Budget       core.Money `json:"budget"`
	Percentage   float64    `json:"percentage"`
	IsOverBudget bool       `json:"isOverBudget"`
}

// OverBy returns how far spending exceeds the budget, zero when within it.
func (b BudgetStatus) OverBy() core.Money {
	if !b.IsOverBudget {
		return core.Money{}
	}
	return b.Spent.Sub(b.Budget)
}

// MonthSummary backs the summary cards for one calendar month.
type MonthSummary struct {
	TotalIncome      core.Money `json:"totalIncome"`
	TotalExpenses    core.Money `json:"totalExpenses"`
	NetIncome        core.Money `json:"netIncome"`
	TransactionCount int        `json:"transactionCount"`
}

// Insights are the headline spending metrics.
type Insights struct {
	TrendPercent          float64    `json:"trendPercent"`
	CurrentMonthExpenses  core.Money `json:"currentMonthExpenses"`
	PreviousMonthExpenses core.Money `json:"previousMonthExpenses"`
	PreviousMonth         string     `json:"previousMonth"`
	TopCategory           string     `json:"topCategory"`
	TopCategoryTotal      core.Money `json:"topCategoryTotal"`
	AverageExpense        core.Money `json:"averageExpense"`
}

// Dashboard bundles every derived view for one reference month.
type Dashboard struct {
	Month      string          `json:"month"`
	Summary    MonthSummary    `json:"summary"`
	Series     []MonthlyPoint  `json:"series"`
	Categories []CategoryTotal `json:"categories"`
	Budgets    []BudgetStatus  `json:"budgets"`
	Insights   Insights        `json:"insights"`
}

// MonthlySeries returns income, expenses and net for the window calendar
// months ending with the month of ref, oldest first. Months without
// transactions are present with zero values.
func MonthlySeries(txs []core.Transaction, ref time.Time, window int) []MonthlyPoint {
	if window <= 0 {
		window = DefaultWindow
	}
	current := MonthOf(ref)
	points := make([]MonthlyPoint, 0, window)
	for i := window - 1; i >= 0; i-- {
		p := current.Shift(-i)
		t := sumWithin(txs, p)
		points = append(points, MonthlyPoint{
			Month:    p.Label(),
			Start:    p.Start,
			Income:   t.income,
			Expenses: t.expenses,
			Net:      t.income.Sub(t.expenses),
		})
	}
	return points
}

// CategoryBreakdown sums lifetime expenses per category name. Entries are
// ordered by total descending, then by name; zero totals are dropped.
func CategoryBreakdown(txs []core.Transaction, catalog core.Catalog) []CategoryTotal {
	sums := expenseTotalsByCategory(txs)
	out := make([]CategoryTotal, 0, len(sums))
	for name, total := range sums {
		if total.Cents <= 0 {
			continue
		}
		out = append(out, CategoryTotal{Name: name, Total: total, Color: catalog.ColorFor(name)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BudgetUtilization reports spending against budget for every budgeted
// category within the month of ref. Categories without a budget are
// omitted. Percentage is capped at 100; ordering is by percentage
// descending with catalog order kept for ties.
func BudgetUtilization(txs []core.Transaction, catalog core.Catalog, ref time.Time) []BudgetStatus {
	month := MonthOf(ref)
	spent := map[string]core.Money{}
	for _, tx := range txs {
		if tx.IsExpense() && month.Contains(tx.Date) {
			spent[tx.Category] = spent[tx.Category].Add(tx.Amount)
		}
	}

	out := make([]BudgetStatus, 0, len(catalog))
	for _, cat := range catalog {
		if !cat.HasBudget() {
			continue
		}
		s := spent[cat.Name]
		out = append(out, BudgetStatus{
			Category:     cat.Name,
			Color:        cat.Color,
			Spent:        s,
			Budget:       cat.Budget,
			Percentage:   percentOf(s, cat.Budget),
			IsOverBudget: s.Cents > cat.Budget.Cents,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// MonthlySummary totals the transactions dated within the month of ref.
func MonthlySummary(txs []core.Transaction, ref time.Time) MonthSummary {
	t := sumWithin(txs, MonthOf(ref))
	return MonthSummary{
		TotalIncome:      t.income,
		TotalExpenses:    t.expenses,
		NetIncome:        t.income.Sub(t.expenses),
		TransactionCount: t.count,
	}
}

// SpendingInsights computes the month-over-month expense trend, the top
// lifetime expense category and the average expense amount.
func SpendingInsights(txs []core.Transaction, ref time.Time) Insights {
	current := MonthOf(ref)
	previous := current.Shift(-1)
	cur := sumWithin(txs, current).expenses
	prev := sumWithin(txs, previous).expenses

	ins := Insights{
		CurrentMonthExpenses:  cur,
		PreviousMonthExpenses: prev,
		PreviousMonth:         previous.Label(),
		TopCategory:           NoCategory,
	}
	// Undefined against an empty previous month; reported as flat.
	if prev.Cents > 0 {
		ins.TrendPercent = float64((cur.Cents-prev.Cents)*100) / float64(prev.Cents)
	}

	var found bool
	for name, total := range expenseTotalsByCategory(txs) {
		if total.Cents > ins.TopCategoryTotal.Cents ||
			(total.Cents == ins.TopCategoryTotal.Cents && found && name < ins.TopCategory) {
			ins.TopCategory = name
			ins.TopCategoryTotal = total
			found = true
		}
	}

	var sum, n int64
	for _, tx := range txs {
		if tx.IsExpense() {
			sum += tx.Amount.Cents
			n++
		}
	}
	if n > 0 {
		ins.AverageExpense = core.Money{Cents: roundDiv(sum, n)}
	}
	return ins
}

// BuildDashboard computes all views for the month of ref.
func BuildDashboard(txs []core.Transaction, catalog core.Catalog, ref time.Time, window int) Dashboard {
	return Dashboard{
		Month:      MonthOf(ref).Label(),
		Summary:    MonthlySummary(txs, ref),
		Series:     MonthlySeries(txs, ref, window),
		Categories: CategoryBreakdown(txs, catalog),
		Budgets:    BudgetUtilization(txs, catalog, ref),
		Insights:   SpendingInsights(txs, ref),
	}
}

// SortByDateDesc returns a copy of txs ordered newest first. Transactions on
// the same instant keep their relative order.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func expenseTotalsByCategory(txs []core.Transaction) map[string]core.Money {
	sums := map[string]core.Money{}
	for _, tx := range txs {
		if tx.IsExpense() {
			sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
		}
	}
	return sums
}

func percentOf(part, whole core.Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	pct := float64(part.Cents*100) / float64(whole.Cents)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// roundDiv divides non-negative a by positive b rounding half up.
func roundDiv(a, b int64) int64 {
	return (2*a + b) / (2 * b)
}
