// Package server exposes the ledger and reconciliation services over JSON
// HTTP. Handlers are thin: decode, read the acting participant from the
// request context, call the service with it explicitly, encode.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anikv/roomledger/internal/auth"
	"github.com/anikv/roomledger/internal/middleware"
	"github.com/anikv/roomledger/internal/service"
)

// Server wires the services to their HTTP routes.
type Server struct {
	expenses    *service.ExpenseService
	settlements *service.SettlementService
	jwtManager  *auth.JWTManager
}

// New creates a Server over the given services.
func New(expenses *service.ExpenseService, settlements *service.SettlementService, jwtManager *auth.JWTManager) *Server {
	return &Server{
		expenses:    expenses,
		settlements: settlements,
		jwtManager:  jwtManager,
	}
}

// Handler returns the fully assembled HTTP handler: public health/metrics
// endpoints plus the authenticated API, wrapped in CORS, logging, and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/balances", s.handleBalances)
	api.HandleFunc("GET /api/balances/transfers", s.handleSuggestedTransfers)
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("GET /api/settlements", s.handleListSettlements)
	api.HandleFunc("POST /api/settlements", s.handleCreateSettlement)
	api.HandleFunc("POST /api/settlements/{groupID}/status", s.handleUpdateStatus)
	api.HandleFunc("DELETE /api/settlements/{groupID}", s.handleDeleteSettlement)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", middleware.RequireAuth(s.jwtManager, api))

	return middleware.Logging(middleware.Metrics(middleware.CORS(mux)))
}
