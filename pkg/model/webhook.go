package model

// Webhook type discriminators sent by the provider.
const (
	WebhookTypeTransactions = "TRANSACTIONS"
	WebhookTypeItem         = "ITEM"
	WebhookTypeError        = "ERROR"
)

// Webhook codes within the TRANSACTIONS type.
const (
	WebhookCodeInitialUpdate        = "INITIAL_UPDATE"
	WebhookCodeHistoricalUpdate     = "HISTORICAL_UPDATE"
	WebhookCodeDefaultUpdate        = "DEFAULT_UPDATE"
	WebhookCodeTransactionsAdded    = "TRANSACTIONS_ADDED"
	WebhookCodeTransactionsModified = "TRANSACTIONS_MODIFIED"
	WebhookCodeTransactionsRemoved  = "TRANSACTIONS_REMOVED"
	WebhookCodeSyncUpdatesAvailable = "SYNC_UPDATES_AVAILABLE"
)

// Webhook codes within the ITEM type.
const (
	WebhookCodeItemError             = "ERROR"
	WebhookCodePendingExpiration     = "PENDING_EXPIRATION"
	WebhookCodeUserPermissionRevoked = "USER_PERMISSION_REVOKED"
	WebhookCodeWebhookAcknowledged   = "WEBHOOK_UPDATE_ACKNOWLEDGED"
)

// ProviderError is the structured error block the provider attaches to
// error-bearing webhooks and API responses.
type ProviderError struct {
	ErrorType string `json:"error_type"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"error_message"`
}

// WebhookPayload is the JSON body of a provider webhook delivery.
type WebhookPayload struct {
	WebhookType         string         `json:"webhook_type"`
	WebhookCode         string         `json:"webhook_code"`
	ItemID              string         `json:"item_id"`
	NewTransactions     int            `json:"new_transactions,omitempty"`
	RemovedTransactions []string       `json:"removed_transactions,omitempty"`
	Error               *ProviderError `json:"error,omitempty"`
}
