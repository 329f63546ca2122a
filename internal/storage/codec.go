package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// record is the persisted shape of one transaction.
type record struct {
	ID          string     `json:"id"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
}

// dateOnlyLayout is accepted on read for snapshots written by hand.
const dateOnlyLayout = "2006-01-02"

// EncodeTransactions serializes the collection as a JSON array with
// RFC 3339 dates. A nil collection encodes as an empty array.
func EncodeTransactions(txs []core.Transaction) ([]byte, error) {
	recs := make([]record, len(txs))
	for i, tx := range txs {
		recs[i] = record{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Description: tx.Description,
			Date:        tx.Date.Format(time.RFC3339Nano),
			Category:    tx.Category,
			Type:        string(tx.Type),
		}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("marshal transactions: %w", err)
	}
	return data, nil
}

// DecodeTransactions parses a snapshot written by EncodeTransactions. Empty
// input means nothing was stored and yields an empty collection. Any
// malformed content yields an error wrapping ErrCorrupt.
func DecodeTransactions(data []byte) ([]core.Transaction, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	txs := make([]core.Transaction, 0, len(recs))
	for i, r := range recs {
		tx, err := r.transaction()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r record) transaction() (core.Transaction, error) {
	if strings.TrimSpace(r.ID) == "" {
		return core.Transaction{}, fmt.Errorf("missing id")
	}
	typ := core.TransactionType(r.Type)
	if !typ.Valid() {
		return core.Transaction{}, fmt.Errorf("invalid type %q", r.Type)
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := r.Amount.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if strings.TrimSpace(r.Description) == "" {
		return core.Transaction{}, fmt.Errorf("record %s: missing description", r.ID)
	}
	if strings.TrimSpace(r.Category) == "" {
		return core.Transaction{}, fmt.Errorf("record %s: missing category", r.ID)
	}
	return core.Transaction{
		ID:          r.ID,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        date,
		Category:    r.Category,
		Type:        typ,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
