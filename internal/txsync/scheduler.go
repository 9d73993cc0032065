package txsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler periodically syncs every linked account, as the fallback path
// for missed webhooks. Manual triggers reuse the same enumeration, so both
// paths carry identical guarantees.
type Scheduler struct {
	coordinator   *Coordinator
	interval      time.Duration
	maxConcurrent int
	logger        *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SchedulerConfig contains configuration for the Scheduler
type SchedulerConfig struct {
	Coordinator *Coordinator
	// Interval between scheduled full-fleet syncs.
	Interval time.Duration
	// MaxConcurrent bounds parallel account syncs per pass, to respect
	// provider rate limits.
	MaxConcurrent int
	Logger        *slog.Logger
}

// NewScheduler creates a scheduler
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		coordinator:   cfg.Coordinator,
		interval:      interval,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Start begins the periodic sync loop. Starting an already-running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info("Scheduled sync loop started", "interval", s.interval)
}

// Stop halts the loop and waits for the in-flight pass to finish. Stopping
// an already-stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Scheduled sync loop stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncAll(ctx)
		}
	}
}

// RunSyncNow syncs every linked account immediately, outside the timer.
// This is the manual trigger surface; it shares the scheduled path.
func (s *Scheduler) RunSyncNow(ctx context.Context) {
	s.syncAll(ctx)
}

func (s *Scheduler) syncAll(ctx context.Context) {
	accounts := s.coordinator.Accounts()
	if len(accounts) == 0 {
		return
	}
	s.logger.Info("Syncing all accounts", "count", len(accounts))

	g := new(errgroup.Group)
	g.SetLimit(s.maxConcurrent)
	for _, accountID := range accounts {
		accountID := accountID
		g.Go(func() error {
			// Stopping prevents new accounts from starting but lets the
			// in-flight syncs run to completion.
			if ctx.Err() != nil {
				return nil
			}
			// Failures are already recorded on the status registry;
			// one account's failure must not stop the rest.
			if _, err := s.coordinator.SyncAccount(context.Background(), accountID); err != nil {
				s.logger.Warn("Scheduled sync failed", "account", accountID, "error", err)
			}
			return nil
		})
	}
	g.Wait()
}
