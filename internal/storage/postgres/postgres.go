// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface, for deployments that outgrow the embedded SQLite
// database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/shopspring/decimal"

	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
	"github.com/anikv/roomledger/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    amount NUMERIC(12,2) NOT NULL,
    paid_by_id TEXT,
    paid_by_name TEXT NOT NULL,
    paid_by_email TEXT,
    date BIGINT NOT NULL,
    category TEXT,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_sharers (
    expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    account_id TEXT,
    display_name TEXT NOT NULL,
    email TEXT,
    PRIMARY KEY (expense_id, position)
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    transaction_group_id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    owner_name TEXT NOT NULL,
    owner_email TEXT,
    counterparty_id TEXT,
    counterparty_name TEXT NOT NULL,
    counterparty_email TEXT,
    amount NUMERIC(12,2) NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    upi_ref TEXT,
    created_at BIGINT NOT NULL,
    settled_at BIGINT,
    UNIQUE (owner_id, transaction_group_id)
);

CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(transaction_group_id);
CREATE INDEX IF NOT EXISTS idx_settlements_owner_id ON settlements(owner_id);
`

// PostgresStore implements storage.Store using PostgreSQL via lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// New opens a connection with the given DSN and runs migrations.
func New(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

// CreateExpense persists a new expense and its sharer list.
func (p *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, paid_by_id, paid_by_name, paid_by_email, date, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
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
			 VALUES ($1, $2, $3, $4, $5)`,
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
func (p *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, description, amount, paid_by_id, paid_by_name, paid_by_email, date, category, created_at
		 FROM expenses WHERE id = $1`,
		expenseID,
	)

	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense not found: %s", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := p.loadSharers(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpenses returns every expense, newest first.
func (p *PostgresStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := p.db.QueryContext(ctx,
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
		if err := p.loadSharers(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// DeleteExpense removes an expense and its sharer rows.
func (p *PostgresStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", expenseID)
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

func (p *PostgresStore) loadSharers(ctx context.Context, expense *models.Expense) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT account_id, display_name, email FROM expense_sharers
		 WHERE expense_id = $1 ORDER BY position`,
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

const settlementColumns = `id, transaction_group_id, owner_id, owner_name, owner_email,
	counterparty_id, counterparty_name, counterparty_email, amount, type, status, upi_ref, created_at, settled_at`

// CreateSettlementRow persists one settlement row.
func (p *PostgresStore) CreateSettlementRow(ctx context.Context, row *models.SettlementRecord) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.CreatedAt == 0 {
		row.CreatedAt = time.Now().Unix()
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		row.ID, row.TransactionGroupID,
		row.Owner.AccountID, row.Owner.DisplayName, nullable(row.Owner.Email),
		nullable(row.Counterparty.AccountID), row.Counterparty.DisplayName, nullable(row.Counterparty.Email),
		money.Round2(row.Amount).String(), string(row.Type), string(row.Status),
		nullable(row.UPIRef), row.CreatedAt, nullableInt(row.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement row: %w", err)
	}

	return nil
}

// HasSettlementRow reports whether the owner already has a row in the group.
func (p *PostgresStore) HasSettlementRow(ctx context.Context, ownerID, groupID string) (bool, error) {
	var exists int
	err := p.db.QueryRowContext(ctx,
		"SELECT 1 FROM settlements WHERE owner_id = $1 AND transaction_group_id = $2 LIMIT 1",
		ownerID, groupID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check settlement row existence: %w", err)
	}
	return true, nil
}

// GetSettlementGroup returns every row sharing the transaction group id.
func (p *PostgresStore) GetSettlementGroup(ctx context.Context, groupID string) (*models.SettlementGroup, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE transaction_group_id = $1 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement group: %w", err)
	}
	defer rows.Close()

	group := &models.SettlementGroup{TransactionGroupID: groupID}
	for rows.Next() {
		record, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		group.Rows = append(group.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement rows: %w", err)
	}

	return group, nil
}

// ListSettlementsByOwner returns all rows owned by the given account, newest first.
func (p *PostgresStore) ListSettlementsByOwner(ctx context.Context, ownerID string) ([]*models.SettlementRecord, error) {
	return p.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
}

// ListSettlements returns every settlement row.
func (p *PostgresStore) ListSettlements(ctx context.Context) ([]*models.SettlementRecord, error) {
	return p.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements ORDER BY created_at DESC`,
	)
}

func (p *PostgresStore) listSettlements(ctx context.Context, query string, args ...any) ([]*models.SettlementRecord, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var records []*models.SettlementRecord
	for rows.Next() {
		record, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return records, nil
}

// UpdateGroupStatus sets the status on every row of the group in one statement.
func (p *PostgresStore) UpdateGroupStatus(ctx context.Context, groupID string, status models.SettlementStatus, settledAt int64) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		"UPDATE settlements SET status = $1, settled_at = $2 WHERE transaction_group_id = $3",
		string(status), nullableInt(settledAt), groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update settlement group status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check update result: %w", err)
	}
	return affected, nil
}

// DeleteSettlementGroup removes every row sharing the group id.
func (p *PostgresStore) DeleteSettlementGroup(ctx context.Context, groupID string) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM settlements WHERE transaction_group_id = $1",
		groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete settlement group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected, nil
}

// CreateUser inserts a new user into the database.
func (p *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	_, err := p.db.ExecContext(ctx,
		"INSERT INTO users (id, email, display_name, created_at) VALUES ($1, $2, $3, $4)",
		user.ID, user.Email, user.DisplayName, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail resolves an email handle to a user.
// Returns (nil, nil) when no account matches.
func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.getUser(ctx, "SELECT id, email, display_name, created_at FROM users WHERE email = $1", email)
}

// GetUserByID retrieves a user by account ID.
// Returns (nil, nil) when no account matches.
func (p *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return p.getUser(ctx, "SELECT id, email, display_name, created_at FROM users WHERE id = $1", id)
}

func (p *PostgresStore) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}
	err := p.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns the full household roster.
func (p *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, email, display_name, created_at FROM users ORDER BY created_at",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
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

func scanSettlement(r rowScanner) (*models.SettlementRecord, error) {
	record := &models.SettlementRecord{}
	var amount, typ, status string
	var ownerEmail, cpID, cpEmail, upiRef sql.NullString
	var settledAt sql.NullInt64

	err := r.Scan(&record.ID, &record.TransactionGroupID,
		&record.Owner.AccountID, &record.Owner.DisplayName, &ownerEmail,
		&cpID, &record.Counterparty.DisplayName, &cpEmail,
		&amount, &typ, &status, &upiRef, &record.CreatedAt, &settledAt)
	if err != nil {
		return nil, err
	}

	record.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	record.Owner.Email = ownerEmail.String
	record.Counterparty.AccountID = cpID.String
	record.Counterparty.Email = cpEmail.String
	record.Type = models.SettlementType(typ)
	record.Status = models.SettlementStatus(status)
	record.UPIRef = upiRef.String
	record.SettledAt = settledAt.Int64

	return record, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
