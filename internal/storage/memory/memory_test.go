package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestSnapshotSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	txs, err := s.Load(ctx)
	if err != nil || len(txs) != 0 {
		t.Fatalf("expected empty snapshot, got %v err=%v", txs, err)
	}

	in := []core.Transaction{{
		ID:          "1",
		Amount:      core.Money{Cents: 420},
		Description: "Coffee",
		Date:        time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC),
		Category:    "Food & Dining",
		Type:        core.Expense,
	}}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := s.Load(ctx)
	if err != nil || len(out) != 1 || out[0].Amount.Cents != 420 || !out[0].Date.Equal(in[0].Date) {
		t.Fatalf("unexpected load: %+v err=%v", out, err)
	}
	if len(s.Bytes()) == 0 {
		t.Fatalf("expected serialized bytes")
	}
}

func TestSnapshotCorrupt(t *testing.T) {
	s := NewFromBytes([]byte("[{"))
	if _, err := s.Load(context.Background()); !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty
	s := NewFromFile(filepath.Join(dir, "missing.json"))
	if txs, err := s.Load(context.Background()); err != nil || len(txs) != 0 {
		t.Fatalf("expected empty snapshot, got %v err=%v", txs, err)
	}

	seed := `[{"id":"s1","amount":80,"description":"Gas","date":"2025-04-02T09:00:00Z","category":"Bills & Utilities","type":"expense"}]`
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFile(path)
	txs, err := s.Load(context.Background())
	if err != nil || len(txs) != 1 || txs[0].ID != "s1" || txs[0].Amount.Cents != 8000 {
		t.Fatalf("unexpected seeded snapshot: %+v err=%v", txs, err)
	}
}
