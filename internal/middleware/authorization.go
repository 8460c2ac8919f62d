package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the caller has the admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if role != "admin" {
				logger.Warn("Non-admin caller attempted to access admin endpoint",
					zap.String("role", role),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
