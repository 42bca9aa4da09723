package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anikv/roomledger/internal/events"
	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
	"github.com/anikv/roomledger/internal/storage"
)

// SettlementService manages settlement transaction groups and the
// reconciliation protocol over them. It is stateless between calls; the acting
// identity is passed explicitly into every operation.
type SettlementService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, publisher events.Publisher) *SettlementService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SettlementService{store: store, publisher: publisher}
}

// CreateGroupRequest describes a new debt-clearing transaction between two
// participants. Exactly one of Debtor/Creditor must be the acting user.
type CreateGroupRequest struct {
	Debtor        models.ParticipantRef
	Creditor      models.ParticipantRef
	Amount        decimal.Decimal
	InitialStatus models.SettlementStatus
	UPIRef        string
}

// CreateSettlementGroup records a new transaction group. It writes the acting
// user's row first, then resolves the counterparty through the identity store:
// a resolved counterparty gets a mirrored row sharing the group id, an
// unresolved one leaves a single-sided record (bookkeeping against someone
// without an account — a degradation, not an error).
//
// A failed mirror write after a successful primary write returns the group
// together with a *PartialWriteError; the primary row is kept.
func (s *SettlementService) CreateSettlementGroup(ctx context.Context, actor models.ParticipantRef, req CreateGroupRequest) (*models.SettlementGroup, error) {
	if !money.IsPositive(req.Amount) {
		return nil, ErrInvalidAmount
	}
	if req.Debtor.Same(req.Creditor) {
		return nil, ErrSameParty
	}

	status := req.InitialStatus
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.InitialStatus)
	}

	var rowType models.SettlementType
	var counterparty models.ParticipantRef
	switch {
	case actor.Same(req.Debtor):
		rowType = models.TypeOwes
		counterparty = req.Creditor
	case actor.Same(req.Creditor):
		rowType = models.TypeOwed
		counterparty = req.Debtor
	default:
		return nil, fmt.Errorf("%w: must be debtor or creditor of the transaction", ErrForbidden)
	}

	// Role-gate the shortcut statuses: only the creditor may open at settled
	// ("payment already received"), only the debtor at debtor_paid.
	if status == models.StatusSettled && rowType != models.TypeOwed {
		return nil, fmt.Errorf("%w: only the creditor may record an instant settle", ErrForbidden)
	}
	if status == models.StatusDebtorPaid && rowType != models.TypeOwes {
		return nil, fmt.Errorf("%w: only the debtor may assert payment", ErrForbidden)
	}

	now := time.Now().Unix()
	var settledAt int64
	if status == models.StatusSettled {
		settledAt = now
	}

	groupID := uuid.New().String()
	amount := money.Round2(req.Amount)

	primary := &models.SettlementRecord{
		TransactionGroupID: groupID,
		Owner:              actor,
		Counterparty:       counterparty,
		Amount:             amount,
		Type:               rowType,
		Status:             status,
		UPIRef:             req.UPIRef,
		CreatedAt:          now,
		SettledAt:          settledAt,
	}
	if err := s.store.CreateSettlementRow(ctx, primary); err != nil {
		return nil, fmt.Errorf("failed to create settlement row: %w", err)
	}

	group := &models.SettlementGroup{
		TransactionGroupID: groupID,
		Rows:               []*models.SettlementRecord{primary},
	}

	resolved, err := s.resolveCounterparty(ctx, counterparty)
	if err != nil {
		slog.Warn("counterparty resolution failed, keeping single-sided record",
			"group_id", groupID, "counterparty", counterparty.DisplayName, "error", err)
		return group, &PartialWriteError{TransactionGroupID: groupID, Err: err}
	}
	if resolved == nil {
		slog.Info("counterparty has no account, single-sided settlement recorded",
			"group_id", groupID, "counterparty", counterparty.DisplayName)
		if status == models.StatusSettled {
			s.publishSettled(ctx, group, settledAt)
		}
		return group, nil
	}

	cpRef := resolved.Ref()

	// Retried creates must not duplicate the mirrored row.
	exists, err := s.store.HasSettlementRow(ctx, cpRef.AccountID, groupID)
	if err != nil {
		return group, &PartialWriteError{TransactionGroupID: groupID, Err: err}
	}
	if exists {
		return s.reload(ctx, group)
	}

	mirror := &models.SettlementRecord{
		TransactionGroupID: groupID,
		Owner:              cpRef,
		Counterparty:       actor,
		Amount:             amount,
		Type:               mirrorType(rowType),
		Status:             status,
		UPIRef:             req.UPIRef,
		CreatedAt:          now,
		SettledAt:          settledAt,
	}
	if err := s.store.CreateSettlementRow(ctx, mirror); err != nil {
		slog.Error("mirror settlement row failed after primary write",
			"group_id", groupID, "owner", cpRef.AccountID, "error", err)
		return group, &PartialWriteError{TransactionGroupID: groupID, Err: err}
	}
	group.Rows = append(group.Rows, mirror)

	slog.Info("settlement group created",
		"group_id", groupID, "amount", amount.String(), "status", string(status),
		"rows", len(group.Rows))

	if status == models.StatusSettled {
		s.publishSettled(ctx, group, settledAt)
	}

	return group, nil
}

// UpdateGroupStatus advances every row of a transaction group through the
// reconciliation protocol:
//
//	pending -> debtor_paid   debtor only
//	pending -> settled       creditor only
//	debtor_paid -> settled   creditor only
//
// Updating a group that resolves to zero rows is a no-op success, so retried
// calls never surface spurious failures. Confirming an already-settled group
// is likewise a harmless no-op (concurrent double-confirmation).
func (s *SettlementService) UpdateGroupStatus(ctx context.Context, actor models.ParticipantRef, groupID string, newStatus models.SettlementStatus) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	group, err := s.store.GetSettlementGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load settlement group: %w", err)
	}
	if group.Empty() {
		slog.Info("status update on missing settlement group ignored", "group_id", groupID)
		return nil
	}

	current := group.Status()
	if current == models.StatusSettled && newStatus == models.StatusSettled {
		// Second confirmation raced in; the group is already terminal.
		return nil
	}
	if !current.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, newStatus)
	}

	switch newStatus {
	case models.StatusDebtorPaid:
		if actor.AccountID == "" || actor.AccountID != group.Debtor().AccountID {
			return fmt.Errorf("%w: only the debtor may assert payment", ErrForbidden)
		}
	case models.StatusSettled:
		if actor.AccountID == "" || actor.AccountID != group.Creditor().AccountID {
			return fmt.Errorf("%w: only the creditor may confirm receipt", ErrForbidden)
		}
	}

	var settledAt int64
	if newStatus == models.StatusSettled {
		settledAt = time.Now().Unix()
	}

	// A single UPDATE ... WHERE transaction_group_id covers every row of the
	// group, so the paired records move together or not at all.
	affected, err := s.store.UpdateGroupStatus(ctx, groupID, newStatus, settledAt)
	if err != nil {
		return fmt.Errorf("failed to update settlement group: %w", err)
	}

	slog.Info("settlement group status updated",
		"group_id", groupID, "from", string(current), "to", string(newStatus), "rows", affected)

	if newStatus == models.StatusSettled {
		s.publishSettled(ctx, group, settledAt)
	}

	return nil
}

// DeleteSettlementGroup removes every row sharing the group id, for both
// participants. The actor must own a row in the group. Deleting a group that
// resolves to zero rows is a no-op success.
func (s *SettlementService) DeleteSettlementGroup(ctx context.Context, actor models.ParticipantRef, groupID string) error {
	group, err := s.store.GetSettlementGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load settlement group: %w", err)
	}
	if group.Empty() {
		slog.Info("delete of missing settlement group ignored", "group_id", groupID)
		return nil
	}
	if group.RowOwnedBy(actor.AccountID) == nil {
		return fmt.Errorf("%w: must own a row in the group", ErrForbidden)
	}

	affected, err := s.store.DeleteSettlementGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement group: %w", err)
	}

	slog.Info("settlement group deleted", "group_id", groupID, "rows", affected)
	return nil
}

// GetGroup loads an existing group. Unlike the idempotent mutations, a read of
// a specific group treats zero rows as ErrNotFound.
func (s *SettlementService) GetGroup(ctx context.Context, groupID string) (*models.SettlementGroup, error) {
	group, err := s.store.GetSettlementGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement group: %w", err)
	}
	if group.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}
	if !group.Consistent() {
		// A mixed-status group is a bug in the write path, not a valid state.
		slog.Error("settlement group has inconsistent rows", "group_id", groupID)
	}
	return group, nil
}

// ListForUser returns the settlement rows owned by the acting user.
func (s *SettlementService) ListForUser(ctx context.Context, actor models.ParticipantRef) ([]*models.SettlementRecord, error) {
	rows, err := s.store.ListSettlementsByOwner(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return rows, nil
}

// resolveCounterparty resolves a participant through the identity store. A
// ref that already carries an account id is returned as-is; otherwise the
// email handle is looked up. (nil, nil) means no account exists.
func (s *SettlementService) resolveCounterparty(ctx context.Context, ref models.ParticipantRef) (*models.User, error) {
	if ref.AccountID != "" {
		return s.store.GetUserByID(ctx, ref.AccountID)
	}
	if ref.Email == "" {
		return nil, nil
	}
	return s.store.GetUserByEmail(ctx, ref.Email)
}

// reload refreshes the group from the store after an idempotent short-circuit.
func (s *SettlementService) reload(ctx context.Context, group *models.SettlementGroup) (*models.SettlementGroup, error) {
	fresh, err := s.store.GetSettlementGroup(ctx, group.TransactionGroupID)
	if err != nil {
		return group, nil
	}
	return fresh, nil
}

func (s *SettlementService) publishSettled(ctx context.Context, group *models.SettlementGroup, settledAt int64) {
	debtor := group.Debtor()
	creditor := group.Creditor()
	event := events.SettlementSettled{
		TransactionGroupID: group.TransactionGroupID,
		DebtorID:           debtor.AccountID,
		DebtorName:         debtor.DisplayName,
		CreditorID:         creditor.AccountID,
		CreditorName:       creditor.DisplayName,
		Amount:             group.Amount().String(),
		SettledAt:          settledAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Event delivery is best-effort; the ledger state is already correct.
		slog.Warn("failed to publish settlement event",
			"group_id", group.TransactionGroupID, "error", err)
	}
}

func mirrorType(t models.SettlementType) models.SettlementType {
	if t == models.TypeOwes {
		return models.TypeOwed
	}
	return models.TypeOwes
}
