package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as TEXT (decimal strings) to avoid binary float drift.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    paid_by_id TEXT,
    paid_by_name TEXT NOT NULL,
    paid_by_email TEXT,
    date INTEGER NOT NULL,
    category TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_sharers (
    expense_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    account_id TEXT,
    display_name TEXT NOT NULL,
    email TEXT,
    PRIMARY KEY (expense_id, position),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
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
    amount TEXT NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    upi_ref TEXT,
    created_at INTEGER NOT NULL,
    settled_at INTEGER,
    UNIQUE (owner_id, transaction_group_id)
);

CREATE INDEX IF NOT EXISTS idx_expense_sharers_expense_id ON expense_sharers(expense_id);
CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(transaction_group_id);
CREATE INDEX IF NOT EXISTS idx_settlements_owner_id ON settlements(owner_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
