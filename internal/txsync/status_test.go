package txsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/banksync/pkg/model"
)

func TestStatusRegistryLifecycle(t *testing.T) {
	r := NewStatusRegistry()

	r.init("item-1")
	status, ok := r.Get("item-1")
	require.True(t, ok)
	assert.Equal(t, model.SyncStateIdle, status.State)

	r.setSyncing("item-1")
	status, _ = r.Get("item-1")
	assert.Equal(t, model.SyncStateSyncing, status.State)

	at := time.Now()
	r.setIdle("item-1", model.SyncResult{Added: 2, Modified: 1, Removed: 3}, at)
	status, _ = r.Get("item-1")
	assert.Equal(t, model.SyncStateIdle, status.State)
	assert.Equal(t, 2, status.TransactionsAdded)
	assert.Equal(t, 1, status.TransactionsModified)
	assert.Equal(t, 3, status.TransactionsRemoved)
	assert.Equal(t, at, status.LastSyncAt)
	assert.Empty(t, status.LastError)

	r.remove("item-1")
	_, ok = r.Get("item-1")
	assert.False(t, ok)
}

func TestStatusRegistryErrorKeepsLastSync(t *testing.T) {
	r := NewStatusRegistry()
	r.init("item-1")

	at := time.Now()
	r.setIdle("item-1", model.SyncResult{Added: 5}, at)
	r.setError("item-1", "Temporary issue syncing transactions, will retry automatically.")

	status, _ := r.Get("item-1")
	assert.Equal(t, model.SyncStateError, status.State)
	assert.Equal(t, at, status.LastSyncAt, "a failure keeps the last successful sync time")
	assert.Equal(t, 5, status.TransactionsAdded)
	assert.Contains(t, status.LastError, "Temporary issue")
}

func TestStatusRegistryInitDoesNotClobber(t *testing.T) {
	r := NewStatusRegistry()
	r.init("item-1")
	r.setError("item-1", "broken")

	r.init("item-1")
	status, _ := r.Get("item-1")
	assert.Equal(t, model.SyncStateError, status.State, "re-init must not reset existing state")
}

func TestStatusRegistrySummary(t *testing.T) {
	r := NewStatusRegistry()
	r.init("item-1")
	r.init("item-2")
	r.init("item-3")

	r.setSyncing("item-1")
	r.setError("item-2", "reconnect")

	summary := r.Summary()
	assert.Equal(t, model.StatusSummary{
		TotalAccounts:   3,
		ErrorCount:      1,
		ActiveSyncCount: 1,
	}, summary)
}

func TestStatusRegistryAllSorted(t *testing.T) {
	r := NewStatusRegistry()
	r.init("item-b")
	r.init("item-a")
	r.init("item-c")

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "item-a", all[0].AccountID)
	assert.Equal(t, "item-b", all[1].AccountID)
	assert.Equal(t, "item-c", all[2].AccountID)
}
