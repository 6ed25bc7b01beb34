package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeboard/internal/amqp"
	appcli "lifeboard/internal/cli"
	"lifeboard/internal/config"
	"lifeboard/internal/log"
	"lifeboard/internal/services"
	"lifeboard/internal/sheets"
	gsheet "lifeboard/internal/sheets/google"
	"lifeboard/internal/worker"
)

func main() {
	appcli.LoadEnvFile()
	logger := appcli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)

	if err := run(context.Background(), logger); err != nil {
		logger.Error("lifeboard-worker failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger) error {
	logger.Info("Starting lifeboard-worker")

	cfg, err := appcli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}
	if cfg.DataBackend != config.BackendSQLite {
		return fmt.Errorf("the ledger worker needs DATA_BACKEND=%s, got %q", config.BackendSQLite, cfg.DataBackend)
	}

	repo, err := appcli.OpenSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Sheets export is optional
	var exporter sheets.TransactionExporter
	if cfg.SheetsExportEnabled() {
		creds, err := cfg.CredentialsJSON()
		if err != nil {
			return err
		}
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: creds,
		})
		if err != nil {
			return fmt.Errorf("init google sheets: %w", err)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	ledgerWorker := worker.NewLedgerWorker(repo, exporter, cfg.LedgerBatchSize)
	processor := services.NewLedgerProcessor(ledgerWorker, services.LedgerProcessorConfig{
		PollInterval: cfg.LedgerInterval,
	})

	g, gCtx := errgroup.WithContext(ctx)
	consumeCtx, stopConsuming := context.WithCancel(gCtx)
	defer stopConsuming()

	if err := processor.Start(consumeCtx); err != nil {
		return err
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// the sweeper still picks up pending transactions
			logger.Warn("Failed to connect to AMQP, relying on periodic sweeps", log.FieldError, err)
		} else {
			defer client.Close()
			g.Go(func() error {
				err := client.Consume(consumeCtx, ledgerWorker.HandleRecorded)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	} else {
		logger.Info("AMQP disabled, relying on periodic sweeps")
	}

	g.Go(func() error {
		return appcli.WaitForShutdown(gCtx, logger, 30*time.Second, func(ctx context.Context) error {
			stopConsuming()
			return processor.Stop(ctx)
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Worker shutdown complete")
	return nil
}
