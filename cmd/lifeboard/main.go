package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"lifeboard/internal/backend"
	appcli "lifeboard/internal/cli"
	"lifeboard/internal/config"
	apphttp "lifeboard/internal/http"
	"lifeboard/internal/log"
	"lifeboard/internal/query"
	"lifeboard/internal/report"
	"lifeboard/internal/storage"
)

func main() {
	appcli.LoadEnvFile()

	cmd := &cli.Command{
		Name:  "lifeboard",
		Usage: "Tasks, budgets, transactions and journal behind one JSON API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "report",
				Usage:  "Print a summary of every collection",
				Action: printReport,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sections", Usage: "comma separated: tasks, budgets, transactions, journal"},
					&cli.StringFlag{Name: "task-filter", Usage: "all, completed or pending"},
					&cli.StringFlag{Name: "task-sort", Value: "newest", Usage: "newest, oldest, title, priority or due-date"},
					&cli.StringFlag{Name: "budget-sort", Value: "newest", Usage: "newest, oldest, name, amount-high, amount-low, spent-high or spent-low"},
					&cli.StringFlag{Name: "range", Usage: "transaction window: all, today, week, month or year"},
					&cli.StringFlag{Name: "journal-filter", Usage: "all, today, this-week or this-month"},
					&cli.IntFlag{Name: "limit", Usage: "maximum rows per table, 0 for all"},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Apply the SQLite schema migrations",
				Action: migrate,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("lifeboard failed", log.FieldError, err)
		os.Exit(1)
	}
}

func setup() (*log.Logger, *config.Config, error) {
	logger := appcli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg, err := appcli.LoadAndValidateConfig(logger)
	if err != nil {
		return nil, nil, err
	}
	return logger, cfg, nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	weekStart, _ := cfg.FirstWeekday()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, apphttp.Options{
		CacheSize:           cfg.CacheSize,
		CacheTTL:            cfg.CacheTTL,
		RateLimitRequests:   cfg.RateLimitRequests,
		RateLimitWindow:     cfg.RateLimitWindow,
		ZombieThresholdDays: cfg.ZombieThresholdDays,
		WeekStart:           weekStart,
		Logger:              logger,
		AsyncSpending:       cfg.AsyncLedger(),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting lifeboard server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return appcli.WaitForShutdown(gCtx, logger, 30*time.Second, func(ctx context.Context) error {
			var errs []error
			if err := srv.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("server shutdown: %w", err))
			}
			if result.Cleanup != nil {
				if err := result.Cleanup(); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func printReport(ctx context.Context, cmd *cli.Command) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}

	sections, err := report.ParseSections(cmd.String("sections"))
	if err != nil {
		return err
	}
	opts := report.Options{
		Now:                 time.Now(),
		Sections:            sections,
		ZombieThresholdDays: cfg.ZombieThresholdDays,
		Limit:               int(cmd.Int("limit")),
	}
	opts.WeekStart, _ = cfg.FirstWeekday()
	if opts.TaskFilter, err = query.ParseTaskFilter(cmd.String("task-filter")); err != nil {
		return err
	}
	if opts.TaskSort, err = query.ParseTaskSort(cmd.String("task-sort")); err != nil {
		return err
	}
	if opts.BudgetSort, err = query.ParseBudgetSort(cmd.String("budget-sort")); err != nil {
		return err
	}
	if opts.Range, err = query.ParseDateRange(cmd.String("range")); err != nil {
		return err
	}
	if opts.JournalFilter, err = query.ParseJournalFilter(cmd.String("journal-filter")); err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// read-only: no broker
	backendCfg.AMQPURL = ""
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	return report.Render(ctx, os.Stdout, result.Backend, opts)
}

func migrate(_ context.Context, _ *cli.Command) error {
	logger, cfg, err := setup()
	if err != nil {
		return err
	}
	version, err := storage.Migrate(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.SQLiteDBPath, err)
	}
	logger.Info("Database migrated", "path", cfg.SQLiteDBPath, "version", version)
	return nil
}
