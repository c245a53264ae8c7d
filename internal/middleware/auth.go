package middleware

import (
	"errors"
	"net/http"
	"strings"

	"guesthouse/roomsync/internal/auth"
	"guesthouse/roomsync/internal/logging"
)

// AdminAuthMiddleware requires an HS256 bearer token issued by tokens.
func AdminAuthMiddleware(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized. Missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
			if err != nil {
				logging.Warn("Rejected admin token",
					"request_id", auth.GetRequestID(r.Context()),
					"path", r.URL.Path,
					"error", err)
				if errors.Is(err, auth.ErrExpiredToken) {
					http.Error(w, "Unauthorized. Token expired", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Unauthorized. Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetClaims(r.Context(), claims)))
		})
	}
}
