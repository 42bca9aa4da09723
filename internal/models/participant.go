package models

// ParticipantRef identifies one participant in the ledger.
//
// AccountID is set when the participant resolved to a registered household
// member; it is empty for name-only participants (non-account members are
// common in this domain and are tracked by display name alone).
type ParticipantRef struct {
	// AccountID is the registered user ID, or empty if unresolved.
	AccountID string

	// DisplayName is the canonical display name for the participant.
	DisplayName string

	// Email is the handle the participant was resolved from, if any.
	Email string
}

// Key returns the identity the balance maps are keyed on: the account ID when
// the participant is resolved, otherwise the display name.
func (p ParticipantRef) Key() string {
	if p.AccountID != "" {
		return p.AccountID
	}
	return p.DisplayName
}

// Resolved reports whether the participant maps to a registered account.
func (p ParticipantRef) Resolved() bool {
	return p.AccountID != ""
}

// Same reports whether two refs identify the same participant.
func (p ParticipantRef) Same(other ParticipantRef) bool {
	return p.Key() == other.Key()
}
