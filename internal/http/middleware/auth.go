package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sajmeister/aaplat/internal/utils/jwt"
	"github.com/sajmeister/aaplat/internal/utils/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware creates a middleware that validates session tokens and
// extracts the user ID into the request context. Tokens arrive either as
// a Bearer header (API clients) or a session cookie (browser sessions).
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
					errors.New("authentication required"), response.CodeAuthRequired))
				return
			}

			userID, err := jwt.ExtractUserIDFromToken(token, jwtSecret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
					errors.New("invalid token"), response.CodeAuthRequired))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionCookieName carries the session token for browser-initiated flows
const SessionCookieName = "aaplat_session"

func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
