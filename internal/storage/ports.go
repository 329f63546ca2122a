package storage

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// TransactionsKey names the single entry holding the serialized collection.
const TransactionsKey = "transactions"

// ErrCorrupt reports stored data that exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt transaction snapshot")

// Persister loads and saves the full transaction collection. Load returns an
// empty collection when nothing has been stored yet.
type Persister interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
}
