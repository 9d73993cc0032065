package txsync

import (
	"sort"
	"sync"
	"time"

	"github.com/baely/banksync/pkg/model"
)

// StatusRegistry is the read model of per-account sync state. It is written
// only through the coordinator and read freely by any number of observers.
type StatusRegistry struct {
	mu       sync.RWMutex
	statuses map[string]model.SyncStatus
}

// NewStatusRegistry creates an empty registry
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{
		statuses: make(map[string]model.SyncStatus),
	}
}

func (r *StatusRegistry) init(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[accountID]; !ok {
		r.statuses[accountID] = model.SyncStatus{
			AccountID: accountID,
			State:     model.SyncStateIdle,
		}
	}
}

func (r *StatusRegistry) remove(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.statuses, accountID)
}

func (r *StatusRegistry) setSyncing(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := r.statuses[accountID]
	status.AccountID = accountID
	status.State = model.SyncStateSyncing
	r.statuses[accountID] = status
}

func (r *StatusRegistry) setIdle(accountID string, result model.SyncResult, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[accountID] = model.SyncStatus{
		AccountID:            accountID,
		State:                model.SyncStateIdle,
		LastSyncAt:           at,
		TransactionsAdded:    result.Added,
		TransactionsModified: result.Modified,
		TransactionsRemoved:  result.Removed,
	}
}

func (r *StatusRegistry) setError(accountID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := r.statuses[accountID]
	status.AccountID = accountID
	status.State = model.SyncStateError
	status.LastError = message
	r.statuses[accountID] = status
}

// Get returns the status for one account
func (r *StatusRegistry) Get(accountID string) (model.SyncStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.statuses[accountID]
	return status, ok
}

// All returns every tracked status, ordered by account ID
func (r *StatusRegistry) All() []model.SyncStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.SyncStatus, 0, len(r.statuses))
	for _, status := range r.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

// Summary computes the aggregate view on read, so it cannot drift from the
// per-account records.
func (r *StatusRegistry) Summary() model.StatusSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary := model.StatusSummary{
		TotalAccounts: len(r.statuses),
	}
	for _, status := range r.statuses {
		switch status.State {
		case model.SyncStateError:
			summary.ErrorCount++
		case model.SyncStateSyncing:
			summary.ActiveSyncCount++
		}
	}
	return summary
}
