// Package model contains the shared wire and domain models for the banksync service
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical transaction record, keyed by the
// provider-assigned stable transaction identifier.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchant_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Category     string          `json:"category,omitempty"`
	Pending      bool            `json:"pending"`
}

// RemovedTransaction identifies a transaction deleted upstream.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// Delta is one page of an incremental sync fetch. A transaction ID appears
// in at most one of the three sets within a page.
type Delta struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}
