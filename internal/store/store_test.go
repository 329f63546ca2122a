package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type fakePersister struct {
	mu      sync.Mutex
	loadErr error
	saveErr error
	saved   [][]core.Transaction
	initial []core.Transaction
}

func (f *fakePersister) Load(context.Context) ([]core.Transaction, error) {
	return f.initial, f.loadErr
}

func (f *fakePersister) Save(_ context.Context, txs []core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, append([]core.Transaction(nil), txs...))
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev core.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

func input(cents int64, desc, category string, typ core.TransactionType) core.TransactionInput {
	return core.TransactionInput{
		Amount:      core.Money{Cents: cents},
		Description: desc,
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Category:    category,
		Type:        typ,
	}
}

func openTest(t *testing.T, p storage.Persister, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(log.Discard()), WithIDGenerator(sequentialIDs())}, opts...)
	s, err := Open(context.Background(), p, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestAddAssignsIDAndPersists(t *testing.T) {
	p := &fakePersister{}
	s := openTest(t, p)

	tx, err := s.Add(context.Background(), input(5000, "  Groceries ", "Food & Dining", core.Expense))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tx.ID != "tx-1" || tx.Description != "Groceries" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if len(p.saved) != 1 || len(p.saved[0]) != 1 || p.saved[0][0].ID != "tx-1" {
		t.Fatalf("expected one save with the new record, got %+v", p.saved)
	}
	if s.Revision() != 1 || s.Len() != 1 {
		t.Fatalf("revision=%d len=%d", s.Revision(), s.Len())
	}
}

func TestAddUsesUUIDByDefault(t *testing.T) {
	s, err := Open(context.Background(), memory.New(), WithLogger(log.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Add(context.Background(), input(100, "a", "Other", core.Expense))
	b, _ := s.Add(context.Background(), input(100, "b", "Other", core.Expense))
	if len(a.ID) != 36 || a.ID == b.ID {
		t.Fatalf("expected distinct uuids, got %q and %q", a.ID, b.ID)
	}
}

func TestInvalidInputRejected(t *testing.T) {
	p := &fakePersister{}
	s := openTest(t, p)

	tests := []struct {
		name string
		in   core.TransactionInput
		want error
	}{
		{"zero amount", input(0, "x", "Other", core.Expense), core.ErrInvalidAmount},
		{"blank description", input(100, "   ", "Other", core.Expense), core.ErrEmptyDescription},
		{"no category", input(100, "x", "", core.Expense), core.ErrEmptyCategory},
		{"bad type", input(100, "x", "Other", "transfer"), core.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Add(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("Add error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(p.saved) != 0 || s.Revision() != 0 {
		t.Fatal("rejected input must not be persisted")
	}
}

func TestReplaceKeepsIDAndPosition(t *testing.T) {
	s := openTest(t, memory.New())
	ctx := context.Background()
	first, _ := s.Add(ctx, input(1000, "Bus", "Transportation", core.Expense))
	s.Add(ctx, input(2000, "Dinner", "Food & Dining", core.Expense))

	got, err := s.Replace(ctx, first.ID, input(1500, "Train", "Travel", core.Expense))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("id changed: %s -> %s", first.ID, got.ID)
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != first.ID || list[0].Description != "Train" || list[0].Amount.Cents != 1500 {
		t.Fatalf("unexpected list after replace: %+v", list)
	}
	if s.Revision() != 3 {
		t.Fatalf("revision = %d, want 3", s.Revision())
	}
}

func TestUnknownIDReturnsNotFound(t *testing.T) {
	p := &fakePersister{}
	s := openTest(t, p)
	ctx := context.Background()
	s.Add(ctx, input(1000, "Bus", "Transportation", core.Expense))

	if _, err := s.Replace(ctx, "missing", input(1, "x", "Other", core.Expense)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Replace error = %v", err)
	}
	if err := s.Remove(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove error = %v", err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v", err)
	}
	if len(p.saved) != 1 || s.Revision() != 1 || s.Len() != 1 {
		t.Fatal("stale ids must leave the collection untouched")
	}
}

func TestRemove(t *testing.T) {
	s := openTest(t, memory.New())
	ctx := context.Background()
	a, _ := s.Add(ctx, input(1000, "a", "Other", core.Expense))
	b, _ := s.Add(ctx, input(1000, "b", "Other", core.Expense))
	c, _ := s.Add(ctx, input(1000, "c", "Other", core.Expense))

	if err := s.Remove(ctx, b.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Fatalf("unexpected list: %+v", list)
	}
	if err := s.Remove(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove error = %v", err)
	}
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	p := &fakePersister{}
	pub := &recordingPublisher{}
	s := openTest(t, p, WithPublisher(pub))
	ctx := context.Background()
	tx, _ := s.Add(ctx, input(1000, "Bus", "Transportation", core.Expense))

	p.saveErr = errors.New("disk full")

	if _, err := s.Add(ctx, input(1, "x", "Other", core.Expense)); err == nil {
		t.Fatal("expected Add to fail")
	}
	if _, err := s.Replace(ctx, tx.ID, input(9, "y", "Other", core.Expense)); err == nil {
		t.Fatal("expected Replace to fail")
	}
	if err := s.Remove(ctx, tx.ID); err == nil {
		t.Fatal("expected Remove to fail")
	}

	list := s.List()
	if len(list) != 1 || list[0] != tx {
		t.Fatalf("collection changed after failed saves: %+v", list)
	}
	if s.Revision() != 1 || len(pub.events) != 1 {
		t.Fatalf("revision=%d events=%d", s.Revision(), len(pub.events))
	}
}

func TestEventsPublished(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := openTest(t, memory.New(), WithPublisher(pub), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	tx, err := s.Add(ctx, input(1000, "Bus", "Transportation", core.Expense))
	if err != nil {
		t.Fatalf("publish failures must not fail Add: %v", err)
	}
	s.Replace(ctx, tx.ID, input(1200, "Bus", "Transportation", core.Expense))
	s.Remove(ctx, tx.ID)

	want := []core.EventKind{core.EventCreated, core.EventUpdated, core.EventDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, ev := range pub.events {
		if ev.Kind != want[i] || ev.ID != tx.ID || ev.Revision != uint64(i+1) || !ev.Timestamp.Equal(fixed) {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
}

func TestOpenHydration(t *testing.T) {
	ctx := context.Background()

	t.Run("existing data", func(t *testing.T) {
		seed := []core.Transaction{input(700, "Book", "Education", core.Expense).WithID("old")}
		s := openTest(t, &fakePersister{initial: seed})
		if got, err := s.Get("old"); err != nil || got.Amount.Cents != 700 {
			t.Fatalf("Get = %+v, %v", got, err)
		}
	})

	t.Run("corrupt data starts empty", func(t *testing.T) {
		s := openTest(t, memory.NewFromBytes([]byte(`{broken`)))
		if s.Len() != 0 {
			t.Fatalf("expected empty store, got %d", s.Len())
		}
		if _, err := s.Add(ctx, input(100, "x", "Other", core.Expense)); err != nil {
			t.Fatalf("store unusable after corrupt load: %v", err)
		}
	})

	t.Run("other load errors are returned", func(t *testing.T) {
		_, err := Open(ctx, &fakePersister{loadErr: errors.New("permission denied")}, WithLogger(log.Discard()))
		if err == nil {
			t.Fatal("expected Open to fail")
		}
	})
}

func TestReopenSeesCommittedState(t *testing.T) {
	snap := memory.New()
	ctx := context.Background()
	s := openTest(t, snap)
	s.Add(ctx, input(1000, "a", "Other", core.Expense))
	s.Add(ctx, input(2500, "b", core.IncomeCategory, core.Income))

	again := openTest(t, snap)
	if got, want := again.List(), s.List(); len(got) != len(want) || got[1].Amount != want[1].Amount {
		t.Fatalf("reopened store differs: %+v vs %+v", got, want)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := openTest(t, memory.New())
	s.Add(context.Background(), input(1000, "a", "Other", core.Expense))

	list := s.List()
	list[0].Description = "mutated"
	if got, _ := s.Get(list[0].ID); got.Description != "a" {
		t.Fatal("List must not expose internal storage")
	}
}

func TestConcurrentAdds(t *testing.T) {
	s, err := Open(context.Background(), memory.New(), WithLogger(log.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(context.Background(), input(100, "c", "Other", core.Expense))
			_ = s.List()
		}()
	}
	wg.Wait()
	if s.Len() != 50 || s.Revision() != 50 {
		t.Fatalf("len=%d revision=%d", s.Len(), s.Revision())
	}
}
