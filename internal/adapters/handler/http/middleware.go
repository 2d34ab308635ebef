package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

type contextKey string

// UserKey carries the authenticated *domain.AuthUser in the request
// context.
const UserKey contextKey = "authUser"

// AuthMiddleware resolves the caller's identity from the access_token
// cookie or a bearer token and rejects requests without a valid one.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				http.Error(w, "missing access token", http.StatusUnauthorized)
				return
			}

			user, err := auth.UserFromToken(token)
			if err != nil {
				http.Error(w, "invalid access token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// The websocket endpoint cannot set headers from a browser client.
	return r.URL.Query().Get("access_token")
}

func userFromContext(r *http.Request) (*domain.AuthUser, bool) {
	user, ok := r.Context().Value(UserKey).(*domain.AuthUser)
	return user, ok && user != nil
}
