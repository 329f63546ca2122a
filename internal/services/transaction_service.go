package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// ErrUnknownCategory is returned when the category is not offered for the
// transaction type (income only goes to Income, expenses never do).
var ErrUnknownCategory = errors.New("category not available for transaction type")

// TransactionStore is the part of store.Store the services use.
type TransactionStore interface {
	Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Replace(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error)
	Remove(ctx context.Context, id string) error
	Get(id string) (core.Transaction, error)
	Snapshot() ([]core.Transaction, uint64)
}

// TransactionService applies catalog rules on top of the store.
type TransactionService struct {
	store   TransactionStore
	catalog core.Catalog
}

func NewTransactionService(store TransactionStore, catalog core.Catalog) *TransactionService {
	return &TransactionService{store: store, catalog: catalog}
}

func (s *TransactionService) Catalog() core.Catalog { return s.catalog }

func (s *TransactionService) checkCategory(in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if _, ok := s.catalog.ForType(in.Type).Lookup(in.Category); !ok {
		return fmt.Errorf("%w: %q for %s", ErrUnknownCategory, in.Category, in.Type)
	}
	return nil
}

func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := s.checkCategory(in); err != nil {
		return core.Transaction{}, err
	}
	return s.store.Add(ctx, in)
}

func (s *TransactionService) Update(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := s.checkCategory(in); err != nil {
		return core.Transaction{}, err
	}
	return s.store.Replace(ctx, id, in)
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.store.Remove(ctx, id)
}

func (s *TransactionService) Get(id string) (core.Transaction, error) {
	return s.store.Get(id)
}

// List returns every transaction, newest first.
func (s *TransactionService) List() []core.Transaction {
	txs, _ := s.store.Snapshot()
	return analytics.SortByDateDesc(txs)
}
