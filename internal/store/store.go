// Package store provides the local transaction store consumed by the sync pipeline
package store

import (
	"context"

	"github.com/baely/banksync/pkg/model"
)

// Store is the transaction persistence port. Both operations are idempotent:
// Upsert replaces any existing record with the same transaction ID, and
// RemoveByID of an absent record is a no-op.
type Store interface {
	Upsert(ctx context.Context, tx model.Transaction) error
	RemoveByID(ctx context.Context, id string) error
}
