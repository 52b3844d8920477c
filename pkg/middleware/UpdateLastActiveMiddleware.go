package middleware

import (
	"net/http"
)

// LastActiveTracker records when a user last made a request.
type LastActiveTracker interface {
	UpdateLastActive(userID string)
}

func UpdateLastActiveMiddleware(tracker LastActiveTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := GetUserFromContext(r.Context()); claims != nil {
				tracker.UpdateLastActive(claims.UserID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
