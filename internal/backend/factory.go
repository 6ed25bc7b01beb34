package backend

import (
	"context"
	"fmt"
	"log/slog"

	"lifeboard/internal/adapters"
	"lifeboard/internal/amqp"
	"lifeboard/internal/services"
	"lifeboard/internal/storage"
	"lifeboard/internal/store"
	"lifeboard/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedFile != "" {
		if err := seedSQLite(ctx, sqliteRepo, config.SeedFile); err != nil {
			sqliteRepo.Close()
			return nil, err
		}
		f.logger.Info("Seeded SQLite backend", "seed_file", config.SeedFile)
	}

	// AMQP is optional; without it the ledger applies transactions inline
	var publisher services.Publisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, applying ledger synchronously", "error", err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	transactionService := services.NewTransactionService(sqliteRepo, publisher)
	adapter := adapters.NewSQLiteAdapter(sqliteRepo, transactionService)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: func() error {
			var errs []error
			if err := transactionService.Close(); err != nil {
				errs = append(errs, err)
			}
			if err := sqliteRepo.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			if len(errs) > 0 {
				return fmt.Errorf("close sqlite backend: %v", errs)
			}
			return nil
		},
	}, nil
}

// seedSQLite imports the dataset only into an empty database so restarts
// do not duplicate records.
func seedSQLite(ctx context.Context, repo *storage.SQLiteRepository, path string) error {
	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		return err
	}
	budgets, err := repo.ListBudgets(ctx)
	if err != nil {
		return err
	}
	if len(tasks) > 0 || len(budgets) > 0 {
		return nil
	}
	ds, err := store.LoadDataset(path)
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}
	if err := repo.Import(ctx, ds); err != nil {
		return fmt.Errorf("import seed file: %w", err)
	}
	return nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	s, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Backend: s,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
