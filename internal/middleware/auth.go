package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anikv/roomledger/internal/auth"
	"github.com/anikv/roomledger/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ActorKey is the context key for the authenticated acting participant.
	ActorKey contextKey = "actor"
)

// GetActor extracts the acting participant from the context.
// Returns a zero ref if not found.
func GetActor(ctx context.Context) models.ParticipantRef {
	actor, _ := ctx.Value(ActorKey).(models.ParticipantRef)
	return actor
}

// WithActor returns a context carrying the acting participant. Exposed for
// tests that bypass the HTTP layer.
func WithActor(ctx context.Context, actor models.ParticipantRef) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// RequireAuth validates the bearer token on every request and stores the
// resolved acting participant in the request context. Handlers read it once
// and pass it explicitly into the service layer.
func RequireAuth(jwtManager *auth.JWTManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		ctx := WithActor(r.Context(), claims.Ref())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
