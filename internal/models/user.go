package models

// User represents a registered household member.
//
// Users back the identity resolver: a settlement counterparty given as an
// email/handle either resolves to a User (mirrored two-row group) or stays a
// name-only participant (single-sided group). The full user list is the
// household roster the balance calculator seeds from.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Used for identity resolution.
	Email string

	// DisplayName is the name shown across the ledger.
	DisplayName string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}

// Ref returns the ParticipantRef for this user.
func (u *User) Ref() ParticipantRef {
	return ParticipantRef{AccountID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}
