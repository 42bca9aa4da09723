// Package models defines the core domain models for the roomledger engine.
//
// # Models
//
//   - ParticipantRef: a resolved participant identity (account id + display name)
//   - Expense: a shared expense paid by one participant and split among sharers
//   - SettlementRecord: one row of a debt-clearing transaction group
//   - SettlementGroup: the aggregate of all rows sharing a transaction group id
//   - User: a registered household member, used for identity resolution
//
// # Design Principles
//
//  1. **Explicit identity**: participants are always carried as ParticipantRef
//     values resolved once at the boundary, never re-derived from loose name or
//     email comparisons inside calculation logic.
//  2. **Paired records**: one logical settlement between two account holders is
//     stored as two mirrored rows (one per owner). All status mutation goes
//     through the SettlementGroup aggregate so both sides move together.
//  3. **Closed status enum**: settlement lifecycle is exactly three states with
//     an explicit transition table; nothing is inferred from ad hoc strings.
//  4. **Avoid circular references**: relationships use ID strings, not pointers.
package models
