package coordinator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickerConfig contains configuration for the sweep ticker
type TickerConfig struct {
	Interval time.Duration // How often to sweep (default: 1 minute)
}

// DefaultTickerConfig returns sensible defaults
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		Interval: time.Minute,
	}
}

// Ticker triggers a sweep at a fixed interval
type Ticker struct {
	coordinator *Coordinator
	interval    time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      *zap.SugaredLogger

	mu          sync.Mutex
	lastSweepAt time.Time
	sweeps      int64
}

// NewTicker creates a ticker bound to ctx; cancelling ctx stops it like Stop does
func NewTicker(ctx context.Context, coordinator *Coordinator, cfg TickerConfig, logger *zap.SugaredLogger) *Ticker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	tickerCtx, cancel := context.WithCancel(ctx)
	return &Ticker{
		coordinator: coordinator,
		interval:    cfg.Interval,
		ctx:         tickerCtx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start begins the ticker loop
func (t *Ticker) Start() {
	t.wg.Add(1)
	go t.run()
	t.logger.Infow("Sweep ticker started", "interval", t.interval)
}

// Stop gracefully stops the ticker, waiting for an in-flight sweep
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
	t.logger.Infow("Sweep ticker stopped", "sweeps", t.Sweeps())
}

// Sweeps returns the number of sweeps completed since Start
func (t *Ticker) Sweeps() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweeps
}

// LastSweepAt returns when the last sweep started
func (t *Ticker) LastSweepAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSweepAt
}

func (t *Ticker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			asOf := t.coordinator.Now()
			t.mu.Lock()
			t.lastSweepAt = asOf
			t.mu.Unlock()

			if _, err := t.coordinator.Sweep(t.ctx, asOf); err != nil && t.ctx.Err() == nil {
				t.logger.Warnw("Sweep tick error", "error", err)
			}

			t.mu.Lock()
			t.sweeps++
			t.mu.Unlock()
		}
	}
}
