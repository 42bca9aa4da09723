package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatus is returned when a status value outside the three-state
	// enum is passed to a create or transition call. Nothing is written.
	ErrInvalidStatus = errors.New("invalid settlement status")

	// ErrInvalidTransition is returned when the requested status is a
	// recognized value but the transition graph forbids it from the group's
	// current state. Nothing is written.
	ErrInvalidTransition = errors.New("settlement status transition not allowed")

	// ErrInvalidAmount is returned for zero or negative settlement amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSameParty is returned when debtor and creditor are the same participant.
	ErrSameParty = errors.New("debtor and creditor must be different participants")

	// ErrForbidden is returned when the acting user lacks the role the
	// operation requires (e.g. a debtor trying to confirm receipt).
	ErrForbidden = errors.New("acting user may not perform this operation")

	// ErrNotFound is returned by reads that require an existing group.
	ErrNotFound = errors.New("settlement group not found")
)

// PartialWriteError reports that the mirrored counterparty row failed after
// the initiator's row was written. The primary write is preserved; callers
// should tell the user the record exists on their side but may not be visible
// to the other party.
type PartialWriteError struct {
	TransactionGroupID string
	Err                error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("settlement group %s: counterparty row not written: %v", e.TransactionGroupID, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
