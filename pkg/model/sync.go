package model

import "time"

// SyncState is the lifecycle state of an account's sync pipeline.
type SyncState string

const (
	SyncStateIdle    SyncState = "idle"
	SyncStateSyncing SyncState = "syncing"
	SyncStateError   SyncState = "error"
)

// SyncStatus is the per-account read model maintained by the sync
// coordinator.
type SyncStatus struct {
	AccountID            string    `json:"account_id"`
	State                SyncState `json:"state"`
	LastSyncAt           time.Time `json:"last_sync_at"`
	LastError            string    `json:"last_error,omitempty"`
	TransactionsAdded    int       `json:"transactions_added"`
	TransactionsModified int       `json:"transactions_modified"`
	TransactionsRemoved  int       `json:"transactions_removed"`
}

// SyncResult reports the outcome of one completed sync batch.
type SyncResult struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// StatusSummary is an aggregate view over all tracked accounts, computed
// on read rather than maintained incrementally.
type StatusSummary struct {
	TotalAccounts   int `json:"total_accounts"`
	ErrorCount      int `json:"error_count"`
	ActiveSyncCount int `json:"active_sync_count"`
}
