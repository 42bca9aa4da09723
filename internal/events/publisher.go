// Package events defines the integration-event surface for settlement
// lifecycle changes. Delivery of user-facing notifications is out of scope;
// these events feed downstream consumers (notification service, analytics).
package events

import "context"

// Publisher publishes integration events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event any) error
	Close() error
}

// SettlementSettled is emitted when a transaction group reaches its terminal
// settled state.
type SettlementSettled struct {
	TransactionGroupID string `json:"transaction_group_id"`
	DebtorID           string `json:"debtor_id"`
	DebtorName         string `json:"debtor_name"`
	CreditorID         string `json:"creditor_id"`
	CreditorName       string `json:"creditor_name"`
	Amount             string `json:"amount"`
	SettledAt          int64  `json:"settled_at"`
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, any) error { return nil }
func (NopPublisher) Close() error                       { return nil }
