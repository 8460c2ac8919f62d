package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	SubjectKey contextKey = "subject"
	RoleKey    contextKey = "role"
)

// AuthMiddleware validates JWT bearer tokens and extracts the subject and
// role claims. Guards administrative endpoints; no tokens are issued by this
// service.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if err == jwt.ErrTokenExpired {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			subject, ok := claims["sub"].(string)
			if !ok {
				logger.Error("Missing sub in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				logger.Error("Missing role in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			ctx = context.WithValue(ctx, RoleKey, role)

			logger.Debug("Caller authenticated",
				zap.String("subject", subject),
				zap.String("role", role),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject extracts the token subject from request context
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok
}

// GetRole extracts the caller role from request context
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
