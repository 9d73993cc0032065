package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/banksync/pkg/model"
)

func TestMemoryUpsertReplaces(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx := model.Transaction{
		ID:          "tx-1",
		AccountID:   "item-1",
		Description: "Coffee",
		Amount:      decimal.NewFromFloat(-4.50),
		Currency:    "AUD",
	}
	require.NoError(t, m.Upsert(ctx, tx))
	require.Equal(t, 1, m.Len())

	// Upserting the same ID replaces, never duplicates.
	tx.Description = "Coffee (settled)"
	tx.Pending = false
	require.NoError(t, m.Upsert(ctx, tx))

	assert.Equal(t, 1, m.Len())
	got, ok := m.Get("tx-1")
	require.True(t, ok)
	assert.Equal(t, "Coffee (settled)", got.Description)
}

func TestMemoryRemoveAbsentIsNoOp(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.RemoveByID(ctx, "tx-missing"))

	require.NoError(t, m.Upsert(ctx, model.Transaction{ID: "tx-1"}))
	require.NoError(t, m.RemoveByID(ctx, "tx-1"))
	require.NoError(t, m.RemoveByID(ctx, "tx-1"))
	assert.Equal(t, 0, m.Len())
}
