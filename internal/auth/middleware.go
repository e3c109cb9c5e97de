package auth

import (
	"net/http"
	"strings"

	"github.com/ecobazaarx/backend-eco/internal/common"
)

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Service *Service
}

// RequireAuth enforces a valid bearer token before executing the next handler.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.JSONError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		userID, err := m.Service.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			common.RenderError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
	})
}
