package adapters

import (
	"context"

	"lifeboard/internal/core"
	"lifeboard/internal/services"
	"lifeboard/internal/storage"
	"lifeboard/internal/store"
)

// SQLiteAdapter adapts SQLiteRepository and TransactionService to store.Backend.
// Task, budget and journal calls go straight to the repository; transaction
// writes go through the service so the ledger sees them.
type SQLiteAdapter struct {
	*storage.SQLiteRepository
	service *services.TransactionService
}

var _ store.Backend = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(repo *storage.SQLiteRepository, service *services.TransactionService) *SQLiteAdapter {
	return &SQLiteAdapter{
		SQLiteRepository: repo,
		service:          service,
	}
}

// RecordTransaction implements store.TransactionStore
func (a *SQLiteAdapter) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	return a.service.Record(ctx, tx)
}

// DeleteTransaction implements store.TransactionStore
func (a *SQLiteAdapter) DeleteTransaction(ctx context.Context, id string) error {
	return a.service.Delete(ctx, id)
}
