package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/labstack/echo/v4"
)

const (
	identityKey = "identity"
	claimsKey   = "claims"
)

// JWTAuthMiddleware checks for a valid bearer token and stores the caller's
// identity on the context. Every failure is the same 401 to the client; only
// failures other than a bad or revoked token are logged.
func JWTAuthMiddleware(tokens *auth.TokenManager, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := tokens.Verify(c.Request().Context(), parts[1])
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrRevokedToken) {
					log.ErrorContext(c.Request().Context(), "token verification failed", "error", err, "path", c.Path())
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(claimsKey, claims)
			c.Set(identityKey, claims.Identity())
			return next(c)
		}
	}
}

// RequireRole only lets callers with the given role through. It must run
// after JWTAuthMiddleware.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if id.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient role")
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by JWTAuthMiddleware.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok && id.UserID != ""
}

// ClaimsFrom returns the verified token claims.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	return claims, ok
}
