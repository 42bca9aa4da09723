package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
)

const settlementColumns = `id, transaction_group_id, owner_id, owner_name, owner_email,
	counterparty_id, counterparty_name, counterparty_email, amount, type, status, upi_ref, created_at, settled_at`

// CreateSettlementRow persists one settlement row.
func (s *SQLiteStore) CreateSettlementRow(ctx context.Context, row *models.SettlementRecord) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.CreatedAt == 0 {
		row.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
func (s *SQLiteStore) HasSettlementRow(ctx context.Context, ownerID, groupID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM settlements WHERE owner_id = ? AND transaction_group_id = ? LIMIT 1",
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
func (s *SQLiteStore) GetSettlementGroup(ctx context.Context, groupID string) (*models.SettlementGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE transaction_group_id = ? ORDER BY created_at, id`,
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
func (s *SQLiteStore) ListSettlementsByOwner(ctx context.Context, ownerID string) ([]*models.SettlementRecord, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
}

// ListSettlements returns every settlement row.
func (s *SQLiteStore) ListSettlements(ctx context.Context) ([]*models.SettlementRecord, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements ORDER BY created_at DESC`,
	)
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...any) ([]*models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

// UpdateGroupStatus sets the status on every row of the group in one statement,
// so the paired rows can never be observed mid-update. settledAt is stamped for
// the settled status and cleared otherwise.
func (s *SQLiteStore) UpdateGroupStatus(ctx context.Context, groupID string, status models.SettlementStatus, settledAt int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET status = ?, settled_at = ? WHERE transaction_group_id = ?",
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
func (s *SQLiteStore) DeleteSettlementGroup(ctx context.Context, groupID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM settlements WHERE transaction_group_id = ?",
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

// nullableInt maps zero to SQL NULL.
func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
