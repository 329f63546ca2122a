package google

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

type fakeAPI struct {
	ensured  []string
	cleared  []string
	updated  string
	rows     [][]any
	clearErr error
}

func (f *fakeAPI) ensureSheet(_ context.Context, _, sheet string) error {
	f.ensured = append(f.ensured, sheet)
	return nil
}

func (f *fakeAPI) clear(_ context.Context, _, rng string) error {
	f.cleared = append(f.cleared, rng)
	return f.clearErr
}

func (f *fakeAPI) update(_ context.Context, _, rng string, rows [][]any) error {
	f.updated = rng
	f.rows = rows
	return nil
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_CredentialErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "no credentials",
			opts: Options{SpreadsheetID: "id"},
			want: "missing service account credentials",
		},
		{
			name: "unreadable file",
			opts: Options{SpreadsheetID: "id", CredentialsFile: filepath.Join(t.TempDir(), "missing.json")},
			want: "read service account file",
		},
		{
			name: "invalid json",
			opts: Options{SpreadsheetID: "id", CredentialsJSON: "invalid-json"},
			want: "parse service account credentials",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}

func TestExportTransactions(t *testing.T) {
	api := &fakeAPI{}
	c := &Client{api: api, spreadsheetID: "id", sheetName: "Bob's Money"}

	txs := []core.Transaction{
		{ID: "1", Amount: core.Money{Cents: 1250}, Description: "Taxi", Category: "Transportation",
			Type: core.Expense, Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Amount: core.Money{Cents: 300000}, Description: "Salary", Category: core.IncomeCategory,
			Type: core.Income, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	if err := c.ExportTransactions(context.Background(), txs); err != nil {
		t.Fatalf("ExportTransactions: %v", err)
	}

	if len(api.ensured) != 1 || api.ensured[0] != "Bob's Money" {
		t.Errorf("ensureSheet calls = %v", api.ensured)
	}
	if len(api.cleared) != 1 || api.cleared[0] != "'Bob''s Money'!A:F" {
		t.Errorf("clear range = %v", api.cleared)
	}
	if api.updated != "'Bob''s Money'!A1:F3" {
		t.Errorf("update range = %q", api.updated)
	}
	if len(api.rows) != 3 || api.rows[1][5] != "2" || api.rows[2][4] != -12.5 {
		t.Errorf("unexpected rows: %v", api.rows)
	}
}

func TestExportTransactions_Errors(t *testing.T) {
	if err := (&Client{}).ExportTransactions(context.Background(), nil); err == nil {
		t.Fatal("expected error for uninitialized client")
	}

	api := &fakeAPI{clearErr: errors.New("quota exceeded")}
	c := &Client{api: api, spreadsheetID: "id", sheetName: "Transactions"}
	err := c.ExportTransactions(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected wrapped clear error, got %v", err)
	}
	if api.rows != nil {
		t.Fatal("rows must not be written after a failed clear")
	}
}
