package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anikv/roomledger/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "roomledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestExpenseStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.ParticipantRef{AccountID: "u-alice", DisplayName: "Alice", Email: "alice@example.com"}
	bob := models.ParticipantRef{AccountID: "u-bob", DisplayName: "Bob"}

	t.Run("CreateExpense generates ID and timestamps", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Groceries",
			Amount:      dec(t, "84.50"),
			PaidBy:      alice,
			Category:    "food",
			Sharers:     []models.ParticipantRef{alice, bob},
		}

		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}
		if expense.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if expense.Date == 0 {
			t.Error("Expected Date to default to CreatedAt")
		}
	})

	t.Run("GetExpense retrieves complete expense", func(t *testing.T) {
		original := &models.Expense{
			Description: "Electricity",
			Amount:      dec(t, "120.00"),
			PaidBy:      bob,
			Date:        time.Now().Unix(),
			Category:    "utilities",
			Sharers:     []models.ParticipantRef{alice, bob, {DisplayName: "Priya"}},
		}
		if err := store.CreateExpense(ctx, original); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		retrieved, err := store.GetExpense(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}

		if retrieved.Description != original.Description {
			t.Errorf("Description mismatch: got %s, want %s", retrieved.Description, original.Description)
		}
		if !retrieved.Amount.Equal(original.Amount) {
			t.Errorf("Amount mismatch: got %s, want %s", retrieved.Amount, original.Amount)
		}
		if retrieved.PaidBy.AccountID != bob.AccountID {
			t.Errorf("PaidBy mismatch: got %s, want %s", retrieved.PaidBy.AccountID, bob.AccountID)
		}
		if len(retrieved.Sharers) != 3 {
			t.Fatalf("Sharers count mismatch: got %d, want 3", len(retrieved.Sharers))
		}
		// Sharer order is part of the model (ordered set).
		if retrieved.Sharers[2].DisplayName != "Priya" {
			t.Errorf("Sharer order not preserved: got %s at position 2", retrieved.Sharers[2].DisplayName)
		}
		if retrieved.Sharers[2].AccountID != "" {
			t.Errorf("Name-only sharer should have empty account id, got %s", retrieved.Sharers[2].AccountID)
		}
	})

	t.Run("GetExpense returns error for nonexistent expense", func(t *testing.T) {
		if _, err := store.GetExpense(ctx, "nonexistent-id"); err == nil {
			t.Error("Expected error for nonexistent expense, got nil")
		}
	})

	t.Run("DeleteExpense removes expense and sharers", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Pizza night",
			Amount:      dec(t, "30"),
			PaidBy:      alice,
			Sharers:     []models.ParticipantRef{alice, bob},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); err == nil {
			t.Error("Expected error after deletion, got nil")
		}
		// Double delete is a hard error for expenses (unlike group mutations).
		if err := store.DeleteExpense(ctx, expense.ID); err == nil {
			t.Error("Expected error on double delete, got nil")
		}
	})
}

func TestSettlementStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bob := models.ParticipantRef{AccountID: "u-bob", DisplayName: "Bob"}
	alice := models.ParticipantRef{AccountID: "u-alice", DisplayName: "Alice"}

	createGroup := func(t *testing.T, groupID string, status models.SettlementStatus) {
		t.Helper()
		rows := []*models.SettlementRecord{
			{TransactionGroupID: groupID, Owner: bob, Counterparty: alice,
				Amount: dec(t, "100"), Type: models.TypeOwes, Status: status},
			{TransactionGroupID: groupID, Owner: alice, Counterparty: bob,
				Amount: dec(t, "100"), Type: models.TypeOwed, Status: status},
		}
		for _, row := range rows {
			if err := store.CreateSettlementRow(ctx, row); err != nil {
				t.Fatalf("CreateSettlementRow failed: %v", err)
			}
		}
	}

	t.Run("GetSettlementGroup returns all rows", func(t *testing.T) {
		createGroup(t, "group-1", models.StatusPending)

		group, err := store.GetSettlementGroup(ctx, "group-1")
		if err != nil {
			t.Fatalf("GetSettlementGroup failed: %v", err)
		}
		if len(group.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(group.Rows))
		}
		if !group.Consistent() {
			t.Error("freshly created group should be consistent")
		}
	})

	t.Run("GetSettlementGroup with unknown id returns empty aggregate", func(t *testing.T) {
		group, err := store.GetSettlementGroup(ctx, "no-such-group")
		if err != nil {
			t.Fatalf("GetSettlementGroup failed: %v", err)
		}
		if !group.Empty() {
			t.Errorf("expected empty group, got %d rows", len(group.Rows))
		}
	})

	t.Run("HasSettlementRow detects existing owner row", func(t *testing.T) {
		createGroup(t, "group-2", models.StatusPending)

		exists, err := store.HasSettlementRow(ctx, "u-bob", "group-2")
		if err != nil {
			t.Fatalf("HasSettlementRow failed: %v", err)
		}
		if !exists {
			t.Error("expected row for u-bob in group-2")
		}

		exists, err = store.HasSettlementRow(ctx, "u-carol", "group-2")
		if err != nil {
			t.Fatalf("HasSettlementRow failed: %v", err)
		}
		if exists {
			t.Error("expected no row for u-carol in group-2")
		}
	})

	t.Run("UpdateGroupStatus updates every row atomically", func(t *testing.T) {
		createGroup(t, "group-3", models.StatusPending)
		settledAt := time.Now().Unix()

		affected, err := store.UpdateGroupStatus(ctx, "group-3", models.StatusSettled, settledAt)
		if err != nil {
			t.Fatalf("UpdateGroupStatus failed: %v", err)
		}
		if affected != 2 {
			t.Errorf("affected rows = %d, want 2", affected)
		}

		group, err := store.GetSettlementGroup(ctx, "group-3")
		if err != nil {
			t.Fatalf("GetSettlementGroup failed: %v", err)
		}
		for _, row := range group.Rows {
			if row.Status != models.StatusSettled {
				t.Errorf("row %s status = %s, want settled", row.ID, row.Status)
			}
			if row.SettledAt != settledAt {
				t.Errorf("row %s settled_at = %d, want %d", row.ID, row.SettledAt, settledAt)
			}
		}
	})

	t.Run("UpdateGroupStatus clears settled_at on non-terminal status", func(t *testing.T) {
		createGroup(t, "group-4", models.StatusPending)
		if _, err := store.UpdateGroupStatus(ctx, "group-4", models.StatusSettled, time.Now().Unix()); err != nil {
			t.Fatalf("UpdateGroupStatus failed: %v", err)
		}

		if _, err := store.UpdateGroupStatus(ctx, "group-4", models.StatusDebtorPaid, 0); err != nil {
			t.Fatalf("UpdateGroupStatus failed: %v", err)
		}
		group, _ := store.GetSettlementGroup(ctx, "group-4")
		for _, row := range group.Rows {
			if row.SettledAt != 0 {
				t.Errorf("settled_at should be cleared, got %d", row.SettledAt)
			}
		}
	})

	t.Run("UpdateGroupStatus on missing group affects zero rows", func(t *testing.T) {
		affected, err := store.UpdateGroupStatus(ctx, "no-such-group", models.StatusSettled, time.Now().Unix())
		if err != nil {
			t.Fatalf("UpdateGroupStatus failed: %v", err)
		}
		if affected != 0 {
			t.Errorf("affected rows = %d, want 0", affected)
		}
	})

	t.Run("DeleteSettlementGroup removes both rows", func(t *testing.T) {
		createGroup(t, "group-5", models.StatusPending)

		affected, err := store.DeleteSettlementGroup(ctx, "group-5")
		if err != nil {
			t.Fatalf("DeleteSettlementGroup failed: %v", err)
		}
		if affected != 2 {
			t.Errorf("deleted rows = %d, want 2", affected)
		}

		group, _ := store.GetSettlementGroup(ctx, "group-5")
		if !group.Empty() {
			t.Errorf("expected empty group after delete, got %d rows", len(group.Rows))
		}
	})

	t.Run("duplicate owner row in group is rejected", func(t *testing.T) {
		createGroup(t, "group-6", models.StatusPending)

		dup := &models.SettlementRecord{
			TransactionGroupID: "group-6", Owner: bob, Counterparty: alice,
			Amount: dec(t, "100"), Type: models.TypeOwes, Status: models.StatusPending,
		}
		if err := store.CreateSettlementRow(ctx, dup); err == nil {
			t.Error("expected unique constraint violation for duplicate (owner, group) row")
		}
	})

	t.Run("ListSettlementsByOwner filters by owner", func(t *testing.T) {
		rows, err := store.ListSettlementsByOwner(ctx, "u-bob")
		if err != nil {
			t.Fatalf("ListSettlementsByOwner failed: %v", err)
		}
		for _, row := range rows {
			if row.Owner.AccountID != "u-bob" {
				t.Errorf("row %s owned by %s, want u-bob", row.ID, row.Owner.AccountID)
			}
		}
	})
}

func TestUserStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser and resolve by email", func(t *testing.T) {
		user := &models.User{Email: "alice@example.com", DisplayName: "Alice"}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.ID == "" {
			t.Error("Expected user ID to be generated")
		}

		resolved, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if resolved == nil || resolved.ID != user.ID {
			t.Errorf("resolved = %+v, want id %s", resolved, user.ID)
		}
	})

	t.Run("unknown email resolves to nil without error", func(t *testing.T) {
		resolved, err := store.GetUserByEmail(ctx, "stranger@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if resolved != nil {
			t.Errorf("expected nil for unknown email, got %+v", resolved)
		}
	})

	t.Run("ListUsers returns the roster", func(t *testing.T) {
		if err := store.CreateUser(ctx, &models.User{Email: "bob@example.com", DisplayName: "Bob"}); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("roster size = %d, want 2", len(users))
		}
	})
}
