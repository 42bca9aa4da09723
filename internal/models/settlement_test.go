package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSettlementStatusValid(t *testing.T) {
	for _, s := range []SettlementStatus{StatusPending, StatusDebtorPaid, StatusSettled} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []SettlementStatus{"", "paid", "SETTLED", "cancelled"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestSettlementStatusTransitions(t *testing.T) {
	tests := []struct {
		from SettlementStatus
		to   SettlementStatus
		want bool
	}{
		{StatusPending, StatusDebtorPaid, true},
		{StatusPending, StatusSettled, true},
		{StatusDebtorPaid, StatusSettled, true},
		{StatusSettled, StatusSettled, true}, // concurrent double-confirmation
		{StatusPending, StatusPending, false},
		{StatusDebtorPaid, StatusPending, false},
		{StatusDebtorPaid, StatusDebtorPaid, false},
		{StatusSettled, StatusPending, false},
		{StatusSettled, StatusDebtorPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSettlementRecordRoles(t *testing.T) {
	debtor := ParticipantRef{AccountID: "u1", DisplayName: "Bob"}
	creditor := ParticipantRef{AccountID: "u2", DisplayName: "Alice"}

	owesRow := &SettlementRecord{Owner: debtor, Counterparty: creditor, Type: TypeOwes}
	if got := owesRow.Debtor(); got.AccountID != "u1" {
		t.Errorf("owes row debtor = %s, want u1", got.AccountID)
	}
	if got := owesRow.Creditor(); got.AccountID != "u2" {
		t.Errorf("owes row creditor = %s, want u2", got.AccountID)
	}

	owedRow := &SettlementRecord{Owner: creditor, Counterparty: debtor, Type: TypeOwed}
	if got := owedRow.Debtor(); got.AccountID != "u1" {
		t.Errorf("owed row debtor = %s, want u1", got.AccountID)
	}
	if got := owedRow.Creditor(); got.AccountID != "u2" {
		t.Errorf("owed row creditor = %s, want u2", got.AccountID)
	}
}

func TestSettlementGroup(t *testing.T) {
	debtor := ParticipantRef{AccountID: "u1", DisplayName: "Bob"}
	creditor := ParticipantRef{AccountID: "u2", DisplayName: "Alice"}
	hundred := decimal.NewFromInt(100)

	group := &SettlementGroup{
		TransactionGroupID: "g1",
		Rows: []*SettlementRecord{
			{Owner: debtor, Counterparty: creditor, Type: TypeOwes, Status: StatusPending, Amount: hundred},
			{Owner: creditor, Counterparty: debtor, Type: TypeOwed, Status: StatusPending, Amount: hundred},
		},
	}

	if group.Empty() {
		t.Fatal("group with rows reported empty")
	}
	if group.Status() != StatusPending {
		t.Errorf("group status = %s, want pending", group.Status())
	}
	if got := group.Debtor(); got.AccountID != "u1" {
		t.Errorf("group debtor = %s, want u1", got.AccountID)
	}
	if got := group.Creditor(); got.AccountID != "u2" {
		t.Errorf("group creditor = %s, want u2", got.AccountID)
	}
	if group.RowOwnedBy("u1") == nil || group.RowOwnedBy("u2") == nil {
		t.Error("expected rows for both owners")
	}
	if group.RowOwnedBy("u3") != nil {
		t.Error("expected no row for stranger")
	}
	if !group.Consistent() {
		t.Error("mirrored rows with equal status/amount should be consistent")
	}

	group.Rows[1].Status = StatusSettled
	if group.Consistent() {
		t.Error("mixed-status group should be inconsistent")
	}
}

func TestSettlementGroupEmpty(t *testing.T) {
	// Stores return missing groups as empty aggregates, so every accessor must
	// tolerate zero rows.
	group := &SettlementGroup{TransactionGroupID: "g-missing"}

	if !group.Empty() {
		t.Error("zero-row group should report empty")
	}
	if got := group.Status(); got != "" {
		t.Errorf("empty group status = %q, want empty string", got)
	}
	if !group.Amount().IsZero() {
		t.Errorf("empty group amount = %s, want 0", group.Amount())
	}
	if got := group.Debtor(); got != (ParticipantRef{}) {
		t.Errorf("empty group debtor = %+v, want zero ref", got)
	}
	if got := group.Creditor(); got != (ParticipantRef{}) {
		t.Errorf("empty group creditor = %+v, want zero ref", got)
	}
	if group.RowOwnedBy("u1") != nil {
		t.Error("empty group should own no rows")
	}
	if !group.Consistent() {
		t.Error("empty group should be vacuously consistent")
	}
}

func TestParticipantRefKey(t *testing.T) {
	resolved := ParticipantRef{AccountID: "u1", DisplayName: "Alice"}
	if resolved.Key() != "u1" {
		t.Errorf("resolved key = %s, want account id", resolved.Key())
	}
	unresolved := ParticipantRef{DisplayName: "Priya"}
	if unresolved.Key() != "Priya" {
		t.Errorf("unresolved key = %s, want display name", unresolved.Key())
	}
	if !resolved.Same(ParticipantRef{AccountID: "u1", DisplayName: "Alicia"}) {
		t.Error("same account id should match regardless of display name")
	}
}
