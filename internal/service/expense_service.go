package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anikv/roomledger/internal/ledger"
	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
	"github.com/anikv/roomledger/internal/storage"
)

// ExpenseService manages expense rows and exposes the derived balance view.
// Balances are always recomputed from the full expense and settlement history;
// nothing is cached, so there is no stored state to drift.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpense validates and persists a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, actor models.ParticipantRef, expense *models.Expense) error {
	if !money.IsPositive(expense.Amount) {
		return ErrInvalidAmount
	}
	if expense.PaidBy.Key() == "" {
		expense.PaidBy = actor
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	slog.Info("expense created",
		"expense_id", expense.ID, "amount", expense.Amount.String(),
		"paid_by", expense.PaidBy.DisplayName, "sharers", len(expense.Sharers))
	return nil
}

// ListExpenses returns every expense, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense. Expenses are immutable, so deletion is the
// only supported mutation.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actor models.ParticipantRef, expenseID string) error {
	if expenseID == "" {
		return errors.New("expense id required")
	}
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	slog.Info("expense deleted", "expense_id", expenseID, "deleted_by", actor.DisplayName)
	return nil
}

// Balances recomputes the outstanding per-participant balances from the full
// expense history, the settled settlement groups, and the household roster.
func (s *ExpenseService) Balances(ctx context.Context) (map[string]*ledger.Balance, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	settlements, err := s.store.ListSettlements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	roster := make([]models.ParticipantRef, len(users))
	for i, u := range users {
		roster[i] = u.Ref()
	}

	return ledger.ComputeBalances(expenses, settlements, roster), nil
}

// SuggestedTransfers returns the minimal repayment set for the current
// balances.
func (s *ExpenseService) SuggestedTransfers(ctx context.Context) ([]ledger.DebtEdge, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.SuggestTransfers(balances), nil
}
