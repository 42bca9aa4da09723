// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/anikv/roomledger/internal/models"
)

// ExpenseStore defines persistence for expense rows. The core treats expenses
// as read-mostly input: create, list, delete — no partial edits.
type ExpenseStore interface {
	// CreateExpense persists a new expense. The expense.ID field is populated
	// by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID. Returns an error when not found.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns all expenses, newest first.
	ListExpenses(ctx context.Context) ([]models.Expense, error)

	// DeleteExpense removes an expense by ID. Returns an error when not found.
	DeleteExpense(ctx context.Context, expenseID string) error
}

// SettlementStore defines persistence for settlement rows, keyed by row ID and
// queryable by transaction group and owning account.
type SettlementStore interface {
	// CreateSettlementRow persists one settlement row. The row.ID field is
	// populated by the store when empty.
	CreateSettlementRow(ctx context.Context, row *models.SettlementRecord) error

	// HasSettlementRow reports whether a row owned by ownerID already exists
	// in the given transaction group. Used to keep mirror inserts idempotent
	// on retried operations.
	HasSettlementRow(ctx context.Context, ownerID, groupID string) (bool, error)

	// GetSettlementGroup returns every row sharing the transaction group id.
	// A group with zero rows is returned as an empty aggregate, not an error.
	GetSettlementGroup(ctx context.Context, groupID string) (*models.SettlementGroup, error)

	// ListSettlementsByOwner returns all rows owned by the given account,
	// newest first.
	ListSettlementsByOwner(ctx context.Context, ownerID string) ([]*models.SettlementRecord, error)

	// ListSettlements returns every settlement row.
	ListSettlements(ctx context.Context) ([]*models.SettlementRecord, error)

	// UpdateGroupStatus sets the status on every row of the group in a single
	// statement, stamping settledAt (Unix seconds) when the status is settled
	// and clearing it otherwise. Returns the number of rows affected; zero
	// rows is a valid no-op result.
	UpdateGroupStatus(ctx context.Context, groupID string, status models.SettlementStatus, settledAt int64) (int64, error)

	// DeleteSettlementGroup removes every row sharing the group id and
	// returns the number of rows removed.
	DeleteSettlementGroup(ctx context.Context, groupID string) (int64, error)
}

// UserStore is the identity/roster resolver: registered household members,
// resolvable by email handle.
type UserStore interface {
	// CreateUser persists a new user. The user.ID field is populated by the
	// store when empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail resolves an email handle to a user. Returns (nil, nil)
	// when no account matches — an unresolved counterparty is a normal case,
	// not an error.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by account ID. Returns (nil, nil) when no
	// account matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// ListUsers returns the full household roster.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Store is the complete persistence surface. This abstraction allows swapping
// storage backends (SQLite, PostgreSQL, etc.) without changing the service
// layer.
type Store interface {
	ExpenseStore
	SettlementStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
