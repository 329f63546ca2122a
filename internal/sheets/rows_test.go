package sheets

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestRows(t *testing.T) {
	txs := []core.Transaction{
		{ID: "a", Amount: core.Money{Cents: 1999}, Description: "Cinema", Category: "Entertainment",
			Type: core.Expense, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Amount: core.Money{Cents: 250000}, Description: "Salary", Category: core.IncomeCategory,
			Type: core.Income, Date: time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC)},
	}

	rows := Rows(txs)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][5] != "ID" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][5] != "b" || rows[1][4] != 2500.0 || rows[1][3] != "income" {
		t.Errorf("newest row = %v", rows[1])
	}
	if rows[2][0] != "2025-03-10" || rows[2][4] != -19.99 {
		t.Errorf("expense row = %v", rows[2])
	}
	if txs[0].ID != "a" {
		t.Error("input order must be preserved")
	}

	if empty := Rows(nil); len(empty) != 1 {
		t.Errorf("empty export should still have a header, got %v", empty)
	}
}
