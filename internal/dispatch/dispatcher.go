// Package dispatch routes queued webhook events to their handlers with
// bounded retry
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	commonErrors "github.com/baely/banksync/internal/common/errors"
	"github.com/baely/banksync/internal/provider"
	"github.com/baely/banksync/internal/queue"
	"github.com/baely/banksync/internal/store"
	"github.com/baely/banksync/pkg/model"
)

// reauthMessage is the user-actionable text recorded when the provider
// reports the account link is broken.
const reauthMessage = "Reconnect your bank account to resume syncing."

// AccountSyncer is the slice of the sync coordinator the dispatcher needs.
type AccountSyncer interface {
	SyncAccount(ctx context.Context, accountID string) (model.SyncResult, error)
	MarkAccountError(accountID, message string)
}

// Dispatcher drains the event queue on a single goroutine, which owns all
// retry scheduling and preserves arrival order across attempts.
type Dispatcher struct {
	queue       *queue.Queue
	syncer      AccountSyncer
	store       store.Store
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration

	inflight atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Config contains configuration for the Dispatcher
type Config struct {
	Queue  *queue.Queue
	Syncer AccountSyncer
	Store  store.Store
	Logger *slog.Logger
	// MaxAttempts caps processing attempts per event, including the first.
	MaxAttempts int
	// BaseDelay is the first retry delay; it doubles per attempt.
	BaseDelay time.Duration
}

// New creates a dispatcher
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &Dispatcher{
		queue:       cfg.Queue,
		syncer:      cfg.Syncer,
		store:       cfg.Store,
		logger:      logger,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Start begins draining the queue. Starting a running dispatcher is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(ctx, d.done)
	d.logger.Info("Event dispatcher started")
}

// Stop halts the dispatcher after the in-flight event finishes. Stopping a
// stopped dispatcher is a no-op.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	d.logger.Info("Event dispatcher stopped")
}

// InFlight returns the number of events currently being processed
func (d *Dispatcher) InFlight() int {
	return int(d.inflight.Load())
}

func (d *Dispatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		ev, ok := d.queue.Dequeue(ctx)
		if !ok {
			return
		}
		d.inflight.Add(1)
		d.process(ctx, ev)
		d.inflight.Add(-1)
	}
}

// process classifies one event and hands it to the matching handler.
func (d *Dispatcher) process(ctx context.Context, ev *queue.Event) {
	var payload model.WebhookPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		d.logger.Warn("Dropping malformed event", "event", ev.ID, "error", err)
		return
	}
	if ev.AccountID == "" {
		ev.AccountID = payload.ItemID
	}

	switch payload.WebhookType {
	case model.WebhookTypeTransactions:
		d.handleTransactions(ctx, ev, payload)
	case model.WebhookTypeItem, model.WebhookTypeError:
		d.handleItem(ev, payload)
	default:
		// Retrying an unrecognized type can never succeed.
		d.logger.Warn("Dropping unknown webhook type",
			"event", ev.ID, "type", payload.WebhookType, "code", payload.WebhookCode)
	}
}

// handleTransactions syncs the event's account, retrying transient failures
// with exponential backoff up to the attempt cap.
func (d *Dispatcher) handleTransactions(ctx context.Context, ev *queue.Event, payload model.WebhookPayload) {
	op := func() error {
		ev.AttemptCount++
		err := d.applyTransactions(ctx, payload)
		if err == nil {
			ev.LastError = ""
			return nil
		}
		ev.LastError = err.Error()
		// An event for an account that was never linked cannot succeed
		// on retry any more than a broken link can.
		if !provider.IsRetryable(err) || commonErrors.Is(err, commonErrors.ErrNotFound) {
			return backoff.Permanent(err)
		}
		d.logger.Warn("Event attempt failed",
			"event", ev.ID, "account", ev.AccountID, "attempt", ev.AttemptCount, "error", err)
		return err
	}

	if err := backoff.Retry(op, d.newBackOff(ctx)); err != nil {
		d.deadLetter(ev, err)
	}
}

func (d *Dispatcher) applyTransactions(ctx context.Context, payload model.WebhookPayload) error {
	if payload.WebhookCode == model.WebhookCodeTransactionsRemoved {
		for _, id := range payload.RemovedTransactions {
			if err := d.store.RemoveByID(ctx, id); err != nil {
				return err
			}
		}
	}

	_, err := d.syncer.SyncAccount(ctx, payload.ItemID)
	return err
}

// handleItem records item-level conditions on the status registry. These
// need user action, so they are never retried.
func (d *Dispatcher) handleItem(ev *queue.Event, payload model.WebhookPayload) {
	switch payload.WebhookCode {
	case model.WebhookCodeItemError, model.WebhookCodePendingExpiration, model.WebhookCodeUserPermissionRevoked:
		d.syncer.MarkAccountError(payload.ItemID, reauthMessage)
	case model.WebhookCodeWebhookAcknowledged:
		d.logger.Debug("Webhook registration acknowledged", "account", payload.ItemID)
	default:
		d.logger.Warn("Dropping unknown item event",
			"event", ev.ID, "account", payload.ItemID, "code", payload.WebhookCode)
	}
}

func (d *Dispatcher) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.baseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.maxAttempts-1)), ctx)
}

// deadLetter logs a terminal failure with enough detail to replay manually.
func (d *Dispatcher) deadLetter(ev *queue.Event, err error) {
	d.logger.Error("Event exhausted retries, dead-lettering",
		"event", ev.ID,
		"account", ev.AccountID,
		"attempts", ev.AttemptCount,
		"enqueued_at", ev.EnqueuedAt,
		"error", err,
		"payload", string(ev.Payload))
}
