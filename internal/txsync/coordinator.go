// Package txsync implements cursor-based incremental transaction sync
// against the bank-aggregation provider
package txsync

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/baely/banksync/internal/categorize"
	"github.com/baely/banksync/internal/common/errors"
	"github.com/baely/banksync/internal/provider"
	"github.com/baely/banksync/internal/store"
	"github.com/baely/banksync/pkg/model"
)

// account holds the provider access handle and sync cursor for one linked
// account. Both are mutated only inside the coordinator.
type account struct {
	accessToken string
	cursor      string
	// generation increments whenever the link is replaced. A sync started
	// against an older generation must not write its cursor back.
	generation uint64
}

// Coordinator owns the per-account sync cursors and statuses and performs
// the fetch-and-reconcile cycle against the provider.
type Coordinator struct {
	provider    provider.Client
	store       store.Store
	categorizer categorize.Categorizer
	registry    *StatusRegistry
	logger      *slog.Logger
	timeout     time.Duration

	mu       sync.Mutex
	accounts map[string]*account
	flight   singleflight.Group
}

// Config contains configuration for the Coordinator
type Config struct {
	Provider provider.Client
	Store    store.Store
	// Categorizer is optional. When set, it fills empty categories on
	// incoming transactions; its failures never fail a sync.
	Categorizer categorize.Categorizer
	Registry    *StatusRegistry
	Logger      *slog.Logger
	// SyncTimeout bounds one full sync attempt for one account.
	SyncTimeout time.Duration
}

// NewCoordinator creates a sync coordinator
func NewCoordinator(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.SyncTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewStatusRegistry()
	}
	return &Coordinator{
		provider:    cfg.Provider,
		store:       cfg.Store,
		categorizer: cfg.Categorizer,
		registry:    registry,
		logger:      logger,
		timeout:     timeout,
		accounts:    make(map[string]*account),
	}
}

// Registry returns the status read model
func (c *Coordinator) Registry() *StatusRegistry {
	return c.registry
}

// RegisterAccount links an account for syncing. Re-registering an existing
// account updates its access token and keeps its cursor.
func (c *Coordinator) RegisterAccount(accountID, accessToken string) {
	c.mu.Lock()
	if acct, ok := c.accounts[accountID]; ok {
		acct.accessToken = accessToken
	} else {
		c.accounts[accountID] = &account{accessToken: accessToken}
	}
	c.mu.Unlock()

	c.registry.init(accountID)
	c.logger.Info("Registered account", "account", accountID)
}

// RelinkAccount replaces the access token and resets the cursor, forcing a
// full resync on the next sync.
func (c *Coordinator) RelinkAccount(accountID, accessToken string) {
	c.mu.Lock()
	var gen uint64
	if acct, ok := c.accounts[accountID]; ok {
		gen = acct.generation + 1
	}
	c.accounts[accountID] = &account{accessToken: accessToken, generation: gen}
	c.mu.Unlock()

	c.registry.init(accountID)
	c.logger.Info("Relinked account, cursor reset", "account", accountID)
}

// UnlinkAccount removes an account and its sync status
func (c *Coordinator) UnlinkAccount(accountID string) {
	c.mu.Lock()
	delete(c.accounts, accountID)
	c.mu.Unlock()

	c.registry.remove(accountID)
	c.logger.Info("Unlinked account", "account", accountID)
}

// Accounts returns the linked account IDs, sorted
func (c *Coordinator) Accounts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.accounts))
	for id := range c.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cursor returns the current sync cursor for an account
func (c *Coordinator) Cursor(accountID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acct, ok := c.accounts[accountID]
	if !ok {
		return "", false
	}
	return acct.cursor, true
}

// MarkAccountError records a user-visible sync error for an account without
// running a sync, used for provider item events that require user action.
// Events naming an unlinked account are dropped, so they cannot create
// ghost registry entries.
func (c *Coordinator) MarkAccountError(accountID, message string) {
	c.mu.Lock()
	_, linked := c.accounts[accountID]
	c.mu.Unlock()
	if !linked {
		c.logger.Warn("Ignoring item error for unlinked account", "account", accountID)
		return
	}

	c.registry.setError(accountID, message)
	c.logger.Warn("Account marked errored", "account", accountID, "message", message)
}

// SyncAccount runs one incremental sync for the account. Concurrent calls
// for the same account coalesce onto a single in-flight sync and share its
// result, so exactly one fetch sequence runs per cursor position.
func (c *Coordinator) SyncAccount(ctx context.Context, accountID string) (model.SyncResult, error) {
	ch := c.flight.DoChan(accountID, func() (interface{}, error) {
		return c.sync(accountID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return model.SyncResult{}, res.Err
		}
		return res.Val.(model.SyncResult), nil
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}
}

// sync performs one full fetch-and-reconcile cycle. It runs under its own
// wall-clock budget, detached from any single caller's context, because its
// result is shared between coalesced callers.
func (c *Coordinator) sync(accountID string) (model.SyncResult, error) {
	c.mu.Lock()
	acct, ok := c.accounts[accountID]
	if !ok {
		c.mu.Unlock()
		return model.SyncResult{}, errors.Wrap(errors.ErrNotFound, "account %s not linked", accountID)
	}
	accessToken, cursor, gen := acct.accessToken, acct.cursor, acct.generation
	c.mu.Unlock()

	c.registry.setSyncing(accountID)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	result, nextCursor, err := c.fetchAndApply(ctx, accountID, accessToken, cursor)
	if err != nil {
		c.registry.setError(accountID, userMessage(err))
		c.logger.Error("Account sync failed", "account", accountID, "error", err)
		return model.SyncResult{}, err
	}

	// The cursor advances only after the whole batch applied cleanly; a
	// failed attempt reprocesses the same batch, which is safe under the
	// store's idempotent upsert contract. A relink mid-sync bumps the
	// generation, so the stale result does not undo the cursor reset.
	c.mu.Lock()
	if acct, ok := c.accounts[accountID]; ok && acct.generation == gen {
		acct.cursor = nextCursor
	}
	c.mu.Unlock()

	c.registry.setIdle(accountID, result, time.Now())
	c.logger.Info("Account sync complete", "account", accountID,
		"added", result.Added, "modified", result.Modified, "removed", result.Removed)
	return result, nil
}

func (c *Coordinator) fetchAndApply(ctx context.Context, accountID, accessToken, cursor string) (model.SyncResult, string, error) {
	if cursor == "" {
		created, err := c.provider.CreateCursor(ctx, accessToken)
		if err != nil {
			return model.SyncResult{}, "", errors.Wrap(err, "failed to create cursor for account %s", accountID)
		}
		cursor = created
	}

	var (
		added    []model.Transaction
		modified []model.Transaction
		removed  []model.RemovedTransaction
	)

	next := cursor
	for {
		delta, err := c.provider.FetchDelta(ctx, accessToken, next)
		if err != nil {
			return model.SyncResult{}, "", errors.Wrap(err, "failed to fetch delta for account %s", accountID)
		}
		added = append(added, delta.Added...)
		modified = append(modified, delta.Modified...)
		removed = append(removed, delta.Removed...)
		next = delta.NextCursor
		if !delta.HasMore {
			break
		}
	}

	// Adds and modifies apply before removals, so a transaction added and
	// removed within the same churn window ends absent.
	for _, tx := range added {
		if err := c.upsertTransaction(ctx, tx); err != nil {
			return model.SyncResult{}, "", errors.Wrap(err, "failed to upsert transaction %s", tx.ID)
		}
	}
	for _, tx := range modified {
		if err := c.upsertTransaction(ctx, tx); err != nil {
			return model.SyncResult{}, "", errors.Wrap(err, "failed to upsert transaction %s", tx.ID)
		}
	}
	for _, rm := range removed {
		if err := c.store.RemoveByID(ctx, rm.TransactionID); err != nil {
			return model.SyncResult{}, "", errors.Wrap(err, "failed to remove transaction %s", rm.TransactionID)
		}
	}

	result := model.SyncResult{
		Added:    len(added),
		Modified: len(modified),
		Removed:  len(removed),
	}
	return result, next, nil
}

func (c *Coordinator) upsertTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.Category == "" && c.categorizer != nil {
		category, err := c.categorizer.Categorize(tx)
		if err != nil {
			c.logger.Warn("Categorization failed", "transaction", tx.ID, "error", err)
			category = categorize.Uncategorized
		}
		if category == "" {
			category = categorize.Uncategorized
		}
		tx.Category = category
	}
	return c.store.Upsert(ctx, tx)
}

// userMessage translates a sync failure into the actionable text surfaced
// through the status registry.
func userMessage(err error) string {
	if provider.IsReauthRequired(err) {
		return "Reconnect your bank account to resume syncing."
	}
	return "Temporary issue syncing transactions, will retry automatically."
}
