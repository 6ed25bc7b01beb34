package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lifeboard/internal/amqp"
	"lifeboard/internal/core"
	"lifeboard/internal/sheets"
	"lifeboard/internal/store"
)

// Ledger is the storage the worker applies transactions through.
type Ledger interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ApplyTransaction(ctx context.Context, id string) (bool, error)
	PendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
}

// LedgerWorker applies recorded transactions to their budgets and
// optionally exports them to Google Sheets.
type LedgerWorker struct {
	ledger    Ledger
	exporter  sheets.TransactionExporter
	batchSize int
}

// NewLedgerWorker creates a worker. exporter may be nil.
func NewLedgerWorker(ledger Ledger, exporter sheets.TransactionExporter, batchSize int) *LedgerWorker {
	if batchSize < 1 {
		batchSize = 50
	}
	return &LedgerWorker{
		ledger:    ledger,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleRecorded processes a single transaction.recorded message from AMQP
func (w *LedgerWorker) HandleRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing transaction recorded message",
		"id", msg.ID,
		"timestamp", msg.Timestamp)

	err := w.apply(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		// deleted before the worker got to it
		slog.InfoContext(ctx, "Transaction no longer exists, skipping", "id", msg.ID)
		return nil
	}
	return err
}

// ProcessPending applies transactions whose message was lost or never
// published. It implements services.Sweeper.
func (w *LedgerWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.ledger.PendingTransactions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	applied := 0
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := w.apply(ctx, tx.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			slog.ErrorContext(ctx, "Failed to apply pending transaction", "id", tx.ID, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

func (w *LedgerWorker) apply(ctx context.Context, id string) error {
	applied, err := w.ledger.ApplyTransaction(ctx, id)
	if err != nil {
		return err
	}
	if applied {
		slog.InfoContext(ctx, "Applied transaction to ledger", "id", id)
	}

	if w.exporter == nil {
		return nil
	}
	tx, err := w.ledger.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction for export: %w", err)
	}
	ref, err := w.exporter.Export(ctx, tx)
	if err != nil {
		// the ledger is already correct; a redelivery retries the export
		return fmt.Errorf("export transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents)
	return nil
}
