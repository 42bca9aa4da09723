package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/anikv/roomledger/internal/middleware"
	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
	"github.com/anikv/roomledger/internal/service"
)

// participantJSON is the wire form of a ParticipantRef.
type participantJSON struct {
	AccountID   string `json:"account_id,omitempty"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

func (p participantJSON) ref() models.ParticipantRef {
	return models.ParticipantRef{AccountID: p.AccountID, DisplayName: p.DisplayName, Email: p.Email}
}

func toParticipantJSON(r models.ParticipantRef) participantJSON {
	return participantJSON{AccountID: r.AccountID, DisplayName: r.DisplayName, Email: r.Email}
}

type balanceJSON struct {
	Participant participantJSON `json:"participant"`
	Amount      string          `json:"amount"`
}

type expenseJSON struct {
	ID          string            `json:"id,omitempty"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	PaidBy      participantJSON   `json:"paid_by"`
	Date        int64             `json:"date,omitempty"`
	Category    string            `json:"category,omitempty"`
	Sharers     []participantJSON `json:"sharers,omitempty"`
	CreatedAt   int64             `json:"created_at,omitempty"`
}

type settlementJSON struct {
	ID                 string          `json:"id"`
	TransactionGroupID string          `json:"transaction_group_id"`
	Owner              participantJSON `json:"owner"`
	Counterparty       participantJSON `json:"counterparty"`
	Amount             string          `json:"amount"`
	Type               string          `json:"type"`
	Status             string          `json:"status"`
	UPIRef             string          `json:"upi_ref,omitempty"`
	CreatedAt          int64           `json:"created_at"`
	SettledAt          int64           `json:"settled_at,omitempty"`
}

func toSettlementJSON(r *models.SettlementRecord) settlementJSON {
	return settlementJSON{
		ID:                 r.ID,
		TransactionGroupID: r.TransactionGroupID,
		Owner:              toParticipantJSON(r.Owner),
		Counterparty:       toParticipantJSON(r.Counterparty),
		Amount:             r.Amount.String(),
		Type:               string(r.Type),
		Status:             string(r.Status),
		UPIRef:             r.UPIRef,
		CreatedAt:          r.CreatedAt,
		SettledAt:          r.SettledAt,
	}
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.expenses.Balances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]balanceJSON, 0, len(balances))
	for _, b := range balances {
		out = append(out, balanceJSON{
			Participant: toParticipantJSON(b.Participant),
			Amount:      b.Amount.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": out})
}

func (s *Server) handleSuggestedTransfers(w http.ResponseWriter, r *http.Request) {
	edges, err := s.expenses.SuggestedTransfers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type edgeJSON struct {
		From   participantJSON `json:"from"`
		To     participantJSON `json:"to"`
		Amount string          `json:"amount"`
	}
	out := make([]edgeJSON, len(edges))
	for i, e := range edges {
		out[i] = edgeJSON{From: toParticipantJSON(e.From), To: toParticipantJSON(e.To), Amount: e.Amount.String()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transfers": out})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]expenseJSON, len(list))
	for i, e := range list {
		sharers := make([]participantJSON, len(e.Sharers))
		for j, sh := range e.Sharers {
			sharers[j] = toParticipantJSON(sh)
		}
		out[i] = expenseJSON{
			ID:          e.ID,
			Description: e.Description,
			Amount:      money.Round2(e.Amount),
			PaidBy:      toParticipantJSON(e.PaidBy),
			Date:        e.Date,
			Category:    e.Category,
			Sharers:     sharers,
			CreatedAt:   e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sharers := make([]models.ParticipantRef, len(req.Sharers))
	for i, sh := range req.Sharers {
		sharers[i] = sh.ref()
	}
	expense := &models.Expense{
		Description: req.Description,
		Amount:      req.Amount,
		PaidBy:      req.PaidBy.ref(),
		Date:        req.Date,
		Category:    req.Category,
		Sharers:     sharers,
	}

	actor := middleware.GetActor(r.Context())
	if err := s.expenses.CreateExpense(r.Context(), actor, expense); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"expense_id": expense.ID})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	if err := s.expenses.DeleteExpense(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	rows, err := s.settlements.ListForUser(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]settlementJSON, len(rows))
	for i, row := range rows {
		out[i] = toSettlementJSON(row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": out})
}

func (s *Server) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Debtor   participantJSON `json:"debtor"`
		Creditor participantJSON `json:"creditor"`
		Amount   decimal.Decimal `json:"amount"`
		Status   string          `json:"status,omitempty"`
		UPIRef   string          `json:"upi_ref,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	actor := middleware.GetActor(r.Context())
	group, err := s.settlements.CreateSettlementGroup(r.Context(), actor, service.CreateGroupRequest{
		Debtor:        req.Debtor.ref(),
		Creditor:      req.Creditor.ref(),
		Amount:        req.Amount,
		InitialStatus: models.SettlementStatus(req.Status),
		UPIRef:        req.UPIRef,
	})

	// A partial write still created the caller's own record; report success
	// with a warning the UI can surface.
	var partial *service.PartialWriteError
	if errors.As(err, &partial) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"transaction_group_id": partial.TransactionGroupID,
			"warning":              "recorded for you, but the other party may not see it",
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]settlementJSON, len(group.Rows))
	for i, row := range group.Rows {
		rows[i] = toSettlementJSON(row)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction_group_id": group.TransactionGroupID,
		"rows":                 rows,
	})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	actor := middleware.GetActor(r.Context())
	groupID := r.PathValue("groupID")
	if err := s.settlements.UpdateGroupStatus(r.Context(), actor, groupID, models.SettlementStatus(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction_group_id": groupID, "status": req.Status})
}

func (s *Server) handleDeleteSettlement(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	if err := s.settlements.DeleteSettlementGroup(r.Context(), actor, r.PathValue("groupID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrSameParty):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("internal error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
