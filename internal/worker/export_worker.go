package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Loader reads the committed collection; the SQLite and Postgres
// repositories are the production implementations.
type Loader interface {
	Load(ctx context.Context) ([]core.Transaction, error)
}

// ExportWorker mirrors the transaction collection to a sheet. Events only
// schedule an export; bursts within the debounce window collapse into one
// export that reloads the latest state from storage.
type ExportWorker struct {
	source     Loader
	exporter   sheets.TransactionExporter
	debounce   time.Duration
	retryDelay time.Duration
	logger     *log.Logger

	kick     chan struct{}
	exports  atomic.Int64
	revision atomic.Uint64
}

func NewExportWorker(source Loader, exporter sheets.TransactionExporter, debounce time.Duration, logger *log.Logger) *ExportWorker {
	retry := 5 * time.Second
	if debounce > retry {
		retry = debounce
	}
	return &ExportWorker{
		source:     source,
		exporter:   exporter,
		debounce:   debounce,
		retryDelay: retry,
		logger:     logger.WithComponent(log.ComponentWorker),
		kick:       make(chan struct{}, 1),
	}
}

// HandleEvent schedules an export. It never blocks and never fails, so the
// message is always acknowledged.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev core.TransactionEvent) error {
	w.logger.DebugContext(ctx, "Transaction event received",
		"kind", ev.Kind,
		log.FieldTransactionID, ev.ID,
		log.FieldRevision, ev.Revision)

	for {
		seen := w.revision.Load()
		if ev.Revision <= seen || w.revision.CompareAndSwap(seen, ev.Revision) {
			break
		}
	}

	w.Kick()
	return nil
}

// Kick requests a debounced export without blocking.
func (w *ExportWorker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// ExportNow reloads the collection and exports it.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	txs, err := w.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	if err := w.exporter.ExportTransactions(ctx, txs); err != nil {
		return fmt.Errorf("export transactions: %w", err)
	}
	w.exports.Add(1)
	w.logger.InfoContext(ctx, "Export completed",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(txs),
		log.FieldRevision, w.revision.Load())
	return nil
}

// Exports returns the number of successful exports.
func (w *ExportWorker) Exports() int64 { return w.exports.Load() }

// Run exports once on start, then after every debounced burst of events,
// until ctx is cancelled. Failed exports are retried after retryDelay.
func (w *ExportWorker) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	schedule := func(d time.Duration) {
		timer = time.NewTimer(d)
		fire = timer.C
	}

	if err := w.ExportNow(ctx); err != nil {
		w.logger.WarnContext(ctx, "Initial export failed", log.FieldError, err)
		schedule(w.retryDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-w.kick:
			if timer == nil {
				schedule(w.debounce)
			}
		case <-fire:
			timer, fire = nil, nil
			if err := w.ExportNow(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.ErrorContext(ctx, "Export failed, will retry",
					log.FieldError, err, "retry_in", w.retryDelay)
				schedule(w.retryDelay)
			}
		}
	}
}
