// Package store owns the in-memory transaction collection and keeps it in
// sync with a storage.Persister.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var ErrNotFound = errors.New("transaction not found")

// Publisher receives an event after each committed mutation.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev core.TransactionEvent) error
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithIDGenerator replaces uuid.NewString, mostly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is safe for concurrent use. Every mutation is saved before it
// becomes visible; a failed save leaves the collection unchanged.
type Store struct {
	mu       sync.RWMutex
	txs      []core.Transaction
	revision uint64

	persister storage.Persister
	publisher Publisher
	logger    *log.Logger
	newID     func() string
	now       func() time.Time
}

// Open hydrates a store from p. Absent data gives an empty store; corrupt
// data is logged and also gives an empty store.
func Open(ctx context.Context, p storage.Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		logger:    log.FromContext(ctx).WithComponent(log.ComponentStore),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	txs, err := p.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.WarnContext(ctx, "Stored transactions unreadable, starting empty",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		txs = nil
	case err != nil:
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	s.txs = txs
	s.logger.InfoContext(ctx, "Transaction store ready", log.FieldCount, len(txs))
	return s, nil
}

// Add validates in, assigns a fresh ID and appends the transaction.
func (s *Store) Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx := in.WithID(s.newID())

	s.mu.Lock()
	next := make([]core.Transaction, len(s.txs), len(s.txs)+1)
	copy(next, s.txs)
	next = append(next, tx)
	rev, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}

	s.announce(ctx, core.EventCreated, log.OpCreate, tx, rev)
	return tx, nil
}

// Replace overwrites the transaction with the given id, keeping the id and
// its position in the collection.
func (s *Store) Replace(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx := in.WithID(id)

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	next := append([]core.Transaction(nil), s.txs...)
	next[i] = tx
	rev, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}

	s.announce(ctx, core.EventUpdated, log.OpUpdate, tx, rev)
	return tx, nil
}

// Remove deletes the transaction with the given id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	removed := s.txs[i]
	next := make([]core.Transaction, 0, len(s.txs)-1)
	next = append(next, s.txs[:i]...)
	next = append(next, s.txs[i+1:]...)
	rev, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.announce(ctx, core.EventDeleted, log.OpDelete, removed, rev)
	return nil
}

func (s *Store) Get(id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.txs[i], nil
	}
	return core.Transaction{}, ErrNotFound
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txs...)
}

// Snapshot returns the collection together with the revision it belongs to.
func (s *Store) Snapshot() ([]core.Transaction, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txs...), s.revision
}

// Revision increases by one on every committed mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}

// commitLocked saves next and swaps it in. Callers hold s.mu.
func (s *Store) commitLocked(ctx context.Context, next []core.Transaction) (uint64, error) {
	if err := s.persister.Save(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist transactions",
			log.FieldOperation, log.OpSave, log.FieldError, err)
		return 0, fmt.Errorf("persist transactions: %w", err)
	}
	s.txs = next
	s.revision++
	return s.revision, nil
}

func (s *Store) announce(ctx context.Context, kind core.EventKind, op string, tx core.Transaction, rev uint64) {
	log.NewStructuredLogger(s.logger).LogTransaction(ctx, op, tx, rev)

	if s.publisher == nil {
		return
	}
	ev := core.TransactionEvent{Kind: kind, ID: tx.ID, Revision: rev, Timestamp: s.now()}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldTransactionID, tx.ID,
			log.FieldError, err)
	}
}
