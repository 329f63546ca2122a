package memory

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Snapshot keeps the serialized collection in process memory, the same
// bytes SQLiteRepository would store.
type Snapshot struct {
	mu   sync.Mutex
	data []byte
}

var _ storage.Persister = (*Snapshot)(nil)

func New() *Snapshot {
	return &Snapshot{}
}

// NewFromBytes starts from an existing serialized snapshot.
func NewFromBytes(data []byte) *Snapshot {
	return &Snapshot{data: append([]byte(nil), data...)}
}

// NewFromFile seeds the snapshot from a JSON file. A missing or unreadable
// file leaves the snapshot empty.
func NewFromFile(path string) *Snapshot {
	if path == "" {
		return New()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Seed file not loaded, starting empty", "path", path, "error", err)
		return New()
	}
	return NewFromBytes(data)
}

// Load implements storage.Persister.
func (s *Snapshot) Load(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	return storage.DecodeTransactions(data)
}

// Save implements storage.Persister.
func (s *Snapshot) Save(_ context.Context, txs []core.Transaction) error {
	data, err := storage.EncodeTransactions(txs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Bytes returns a copy of the current serialized snapshot.
func (s *Snapshot) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
