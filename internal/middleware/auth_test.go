package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anikv/roomledger/internal/auth"
	"github.com/anikv/roomledger/internal/models"
)

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)

	user := &models.User{ID: "u-alice", Email: "alice@example.com", DisplayName: "Alice"}
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotActor models.ParticipantRef
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(jwtManager, next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer " + token,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			authHeader: "Basic " + token,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "Bearer",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token signed with another key",
			authHeader: "Bearer " + mustGenerate(t, auth.NewJWTManager("other-secret", time.Hour), user),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			authHeader: "Bearer " + mustGenerate(t, auth.NewJWTManager("test-secret-key", -time.Minute), user),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotActor = models.ParticipantRef{}

			req := httptest.NewRequest(http.MethodGet, "/api/balances", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotActor.AccountID != user.ID || gotActor.DisplayName != user.DisplayName {
					t.Errorf("actor = %+v, want ref for %s", gotActor, user.ID)
				}
			} else if gotActor.AccountID != "" {
				t.Error("rejected request must not reach the handler with an actor")
			}
		})
	}
}

func mustGenerate(t *testing.T, m *auth.JWTManager, user *models.User) string {
	t.Helper()
	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}
