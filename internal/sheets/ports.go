package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter mirrors the whole collection to an external sheet,
	// replacing whatever was exported before.
	TransactionExporter interface {
		ExportTransactions(ctx context.Context, txs []core.Transaction) error
	}
)
