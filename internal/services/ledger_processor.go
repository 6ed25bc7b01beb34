package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LedgerProcessorConfig holds configuration for the ledger processor
type LedgerProcessorConfig struct {
	// PollInterval is how often pending transactions are swept (default: 30s)
	PollInterval time.Duration
}

// DefaultLedgerProcessorConfig returns sensible defaults
func DefaultLedgerProcessorConfig() LedgerProcessorConfig {
	return LedgerProcessorConfig{
		PollInterval: 30 * time.Second,
	}
}

// Sweeper applies a batch of transactions the ledger has not applied yet
// and reports how many it applied.
type Sweeper interface {
	ProcessPending(ctx context.Context) (int, error)
}

// LedgerProcessor periodically sweeps pending transactions, catching the
// ones whose AMQP message was lost or never published.
type LedgerProcessor struct {
	sweeper Sweeper
	config  LedgerProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLedgerProcessor(sweeper Sweeper, config LedgerProcessorConfig) *LedgerProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultLedgerProcessorConfig().PollInterval
	}
	return &LedgerProcessor{
		sweeper: sweeper,
		config:  config,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (p *LedgerProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("ledger processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Ledger processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for the sweep in flight to finish.
func (p *LedgerProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Ledger processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Ledger processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *LedgerProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *LedgerProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// sweep immediately to recover from worker downtime
	p.sweep(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *LedgerProcessor) sweep(ctx context.Context) {
	n, err := p.sweeper.ProcessPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Ledger sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Ledger sweep applied pending transactions", "count", n)
	}
}
