package models

import "github.com/shopspring/decimal"

// SettlementStatus is the lifecycle state of a settlement transaction group.
// It is a closed enum: pending, debtor_paid, settled.
type SettlementStatus string

const (
	// StatusPending means the obligation is recorded but no payment asserted.
	StatusPending SettlementStatus = "pending"

	// StatusDebtorPaid means the debtor asserts they paid and the creditor
	// has not yet confirmed receipt.
	StatusDebtorPaid SettlementStatus = "debtor_paid"

	// StatusSettled means the creditor confirmed receipt. Terminal; the only
	// escape is deleting the whole group.
	StatusSettled SettlementStatus = "settled"
)

// Valid reports whether s is one of the three recognized statuses.
func (s SettlementStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDebtorPaid, StatusSettled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status graph allows moving from s to next.
//
//	pending     -> debtor_paid | settled
//	debtor_paid -> settled
//	settled     -> settled (idempotent re-confirmation, a no-op for callers)
func (s SettlementStatus) CanTransitionTo(next SettlementStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusDebtorPaid || next == StatusSettled
	case StatusDebtorPaid:
		return next == StatusSettled
	case StatusSettled:
		return next == StatusSettled
	}
	return false
}

// SettlementType records which side of the transaction the row's owner is on.
type SettlementType string

const (
	// TypeOwes means the row's owner is the debtor in the transaction.
	TypeOwes SettlementType = "owes"

	// TypeOwed means the row's owner is the creditor in the transaction.
	TypeOwed SettlementType = "owed"
)

// SettlementRecord is one row of a debt-clearing transaction group.
//
// A transaction group represents one debt-clearing event between exactly two
// participants. When both sides are registered accounts the group holds two
// mirrored rows (one owned by each side, opposite Type, identical Amount,
// Status, and TransactionGroupID). When the counterparty has no account the
// group holds a single owner-side row.
type SettlementRecord struct {
	// ID is the unique identifier for this row (UUID format).
	ID string

	// TransactionGroupID links the mirrored rows of one logical transaction.
	TransactionGroupID string

	// Owner is the account-holding participant this row belongs to.
	Owner ParticipantRef

	// Counterparty is the other side of the transaction, resolved or not.
	Counterparty ParticipantRef

	// Amount is the positive amount being settled.
	Amount decimal.Decimal

	// Type says whether Owner owes (debtor) or is owed (creditor).
	Type SettlementType

	// Status is the group lifecycle state. All rows of a group share it.
	Status SettlementStatus

	// UPIRef is an optional external payment reference supplied by the debtor.
	UPIRef string

	// CreatedAt is the Unix timestamp when the row was created.
	CreatedAt int64

	// SettledAt is the Unix timestamp of the terminal transition, zero until
	// the group reaches settled.
	SettledAt int64
}

// Debtor returns the participant who owes money in this row's transaction.
func (r *SettlementRecord) Debtor() ParticipantRef {
	if r.Type == TypeOwes {
		return r.Owner
	}
	return r.Counterparty
}

// Creditor returns the participant who is owed money in this row's transaction.
func (r *SettlementRecord) Creditor() ParticipantRef {
	if r.Type == TypeOwed {
		return r.Owner
	}
	return r.Counterparty
}

// SettlementGroup is the aggregate of every row sharing one transaction group
// id. Status mutation always goes through the whole group so the paired rows
// can never diverge.
type SettlementGroup struct {
	TransactionGroupID string
	Rows               []*SettlementRecord
}

// Empty reports whether the group resolved to zero rows.
func (g *SettlementGroup) Empty() bool {
	return len(g.Rows) == 0
}

// Status returns the shared status of the group's rows.
func (g *SettlementGroup) Status() SettlementStatus {
	if g.Empty() {
		return ""
	}
	return g.Rows[0].Status
}

// Amount returns the shared amount of the group's rows.
func (g *SettlementGroup) Amount() decimal.Decimal {
	if g.Empty() {
		return decimal.Zero
	}
	return g.Rows[0].Amount
}

// Debtor returns the debtor side of the transaction.
func (g *SettlementGroup) Debtor() ParticipantRef {
	if g.Empty() {
		return ParticipantRef{}
	}
	return g.Rows[0].Debtor()
}

// Creditor returns the creditor side of the transaction.
func (g *SettlementGroup) Creditor() ParticipantRef {
	if g.Empty() {
		return ParticipantRef{}
	}
	return g.Rows[0].Creditor()
}

// RowOwnedBy returns the row owned by the given account id, or nil.
func (g *SettlementGroup) RowOwnedBy(accountID string) *SettlementRecord {
	for _, r := range g.Rows {
		if r.Owner.AccountID == accountID {
			return r
		}
	}
	return nil
}

// Consistent reports whether every row of the group shares the same status and
// amount. A false result indicates a partial write that must be surfaced, not
// a valid intermediate state.
func (g *SettlementGroup) Consistent() bool {
	if g.Empty() {
		return true
	}
	for _, r := range g.Rows[1:] {
		if r.Status != g.Rows[0].Status || !r.Amount.Equal(g.Rows[0].Amount) {
			return false
		}
	}
	return true
}
