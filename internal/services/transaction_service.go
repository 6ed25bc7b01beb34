package services

import (
	"context"
	"fmt"
	"log/slog"

	"lifeboard/internal/core"
)

// Ledger is the persistence side of the transaction pipeline.
type Ledger interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ApplyTransaction(ctx context.Context, id string) (bool, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Publisher announces stored transactions to the ledger worker.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, id string) error
	Close() error
}

// TransactionService orchestrates transaction writes across SQLite and AMQP.
// Without a publisher the ledger is applied before Record returns.
type TransactionService struct {
	ledger    Ledger
	publisher Publisher
}

func NewTransactionService(ledger Ledger, publisher Publisher) *TransactionService {
	return &TransactionService{
		ledger:    ledger,
		publisher: publisher,
	}
}

// Record saves a transaction locally and hands it to the ledger.
func (s *TransactionService) Record(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.ledger.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		if _, err := s.ledger.ApplyTransaction(ctx, saved.ID); err != nil {
			return core.Transaction{}, err
		}
		return saved, nil
	}

	if err := s.publisher.PublishTransactionRecorded(ctx, saved.ID); err != nil {
		// the row stays pending and the worker's sweep applies it
		slog.ErrorContext(ctx, "Failed to publish transaction recorded message",
			"id", saved.ID, "error", err)
	}
	return saved, nil
}

// Delete removes a transaction, reversing its effect on the budget if the
// ledger had applied it.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.ledger.DeleteTransaction(ctx, id)
}

// Close closes the publisher. The ledger's storage is owned by the backend.
func (s *TransactionService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close transaction service: amqp: %w", err)
	}
	return nil
}
