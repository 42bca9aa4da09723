package models

import "github.com/shopspring/decimal"

// Expense represents a shared expense paid by one participant.
// Expenses are immutable once created; the only supported mutation is deletion.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label (e.g., "Groceries", "Electricity").
	Description string

	// Amount is the full positive amount paid.
	Amount decimal.Decimal

	// PaidBy is the participant who paid the full amount.
	PaidBy ParticipantRef

	// Date is the Unix timestamp of when the expense occurred.
	Date int64

	// Category is an optional grouping label (e.g., "food", "utilities").
	Category string

	// Sharers is the ordered set of participants the amount is split among.
	// When empty, the full household roster is treated as the sharer set at
	// balance-computation time.
	Sharers []ParticipantRef

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
