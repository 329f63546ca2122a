package sheets

import (
	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// Header is the first row of an exported sheet.
var Header = []any{"Date", "Description", "Category", "Type", "Amount", "ID"}

// Rows renders txs newest first with the header on top. Expense amounts are
// negative so the column sums to the net balance.
func Rows(txs []core.Transaction) [][]any {
	sorted := analytics.SortByDateDesc(txs)
	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, Header)
	for _, tx := range sorted {
		amount := tx.Amount.Units()
		if tx.IsExpense() {
			amount = -amount
		}
		rows = append(rows, []any{
			tx.Date.Format("2006-01-02"),
			tx.Description,
			tx.Category,
			string(tx.Type),
			amount,
			tx.ID,
		})
	}
	return rows
}
