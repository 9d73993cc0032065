// Package provider implements the client for the bank-aggregation provider's
// incremental transaction sync API
package provider

import (
	"context"
	"errors"

	"github.com/baely/banksync/pkg/model"
)

// Errors surfaced by the provider client, classified for retry decisions.
var (
	// ErrRateLimited indicates the provider rejected the call for rate
	// limiting. Transient.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates a network failure or provider-side outage.
	// Transient.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrReauthRequired indicates the access token is no longer valid and
	// the user must re-link the account. Never retried automatically.
	ErrReauthRequired = errors.New("provider reauthentication required")
)

// Client is the port to the provider's delta sync API.
type Client interface {
	// CreateCursor issues a fresh sync cursor for the account behind the
	// access token, positioned at the start of the initial sync window.
	CreateCursor(ctx context.Context, accessToken string) (string, error)

	// FetchDelta returns one page of transaction changes since the cursor.
	// Callers page with the returned NextCursor while HasMore is set.
	FetchDelta(ctx context.Context, accessToken, cursor string) (model.Delta, error)
}

// IsRetryable reports whether err is a transient failure worth retrying.
// Network timeouts and cancellations count as transient; the next scheduled
// sync picks up from the unchanged cursor.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReauthRequired) {
		return false
	}
	return true
}

// IsReauthRequired reports whether err means the user must re-link the
// account before syncing can resume.
func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrReauthRequired)
}
