package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dias221467/teachmate/pkg/jwt"
	"github.com/Dias221467/teachmate/pkg/logger"
)

type contextKey string

// UserContextKey holds the validated *jwt.Claims of the caller.
const UserContextKey contextKey = "user"

// AuthMiddleware validates the bearer token, or the "token" query parameter
// for websocket upgrades, and stores its claims in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "Missing token")
				return
			}
			claims, err := jwt.ValidateToken(token, secret)
			if err != nil {
				logger.Log.WithError(err).Debug("Rejected token")
				unauthorized(w, "Invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the caller's claims, or nil.
func GetUserFromContext(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(UserContextKey).(*jwt.Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": msg})
}
