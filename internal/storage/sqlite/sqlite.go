// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
	"github.com/anikv/roomledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateExpense persists a new expense and its sharer list.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, paid_by_id, paid_by_name, paid_by_email, date, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, money.Round2(expense.Amount).String(),
		nullable(expense.PaidBy.AccountID), expense.PaidBy.DisplayName, nullable(expense.PaidBy.Email),
		expense.Date, nullable(expense.Category), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, sharer := range expense.Sharers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_sharers (expense_id, position, account_id, display_name, email)
			 VALUES (?, ?, ?, ?, ?)`,
			expense.ID, i, nullable(sharer.AccountID), sharer.DisplayName, nullable(sharer.Email),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense sharer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its sharer list.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount, paid_by_id, paid_by_name, paid_by_email, date, category, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	)

	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense not found: %s", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadSharers(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpenses returns every expense, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount, paid_by_id, paid_by_name, paid_by_email, date, category, created_at
		 FROM expenses ORDER BY date DESC, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := s.loadSharers(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// DeleteExpense removes an expense and its sharer rows.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense not found: %s", expenseID)
	}
	return nil
}

// loadSharers fills in the ordered sharer list for an expense.
func (s *SQLiteStore) loadSharers(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, display_name, email FROM expense_sharers
		 WHERE expense_id = ? ORDER BY position`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense sharers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var accountID, email sql.NullString
		var name string
		if err := rows.Scan(&accountID, &name, &email); err != nil {
			return fmt.Errorf("failed to scan expense sharer: %w", err)
		}
		expense.Sharers = append(expense.Sharers, models.ParticipantRef{
			AccountID:   accountID.String,
			DisplayName: name,
			Email:       email.String,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense sharers: %w", err)
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(r rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var amount string
	var payerID, payerEmail, category sql.NullString

	err := r.Scan(&expense.ID, &expense.Description, &amount,
		&payerID, &expense.PaidBy.DisplayName, &payerEmail,
		&expense.Date, &category, &expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	expense.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	expense.PaidBy.AccountID = payerID.String
	expense.PaidBy.Email = payerEmail.String
	expense.Category = category.String

	return expense, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
