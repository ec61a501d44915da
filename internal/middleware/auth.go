package middleware

import (
	"net/http"
	"strings"

	"notes-service/internal/apperr"
	"notes-service/internal/auth"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Auth validates the bearer token and resolves it to a live identity. The
// token is only the lookup key: the user and tenant are re-fetched from
// the store so that role edits, deletions, and tenant reassignments since
// issuance take effect immediately. A valid token whose user is gone maps
// to 404, everything else that fails here is 401.
func Auth(signer *jwtutil.Signer, resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := signer.Validate(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			ident, err := resolver.Resolve(c.Request().Context(), claims)
			if err != nil {
				if apperr.Is(err, apperr.NotFound) {
					log.Warn("Token subject no longer resolvable",
						zap.Uint("user_id", claims.UserID),
						zap.Uint("tenant_id", claims.TenantID))
					prometheus.RecordAuthError("user_not_found")
					return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
				}
				log.Error("Identity resolution failed", zap.Error(err))
				prometheus.RecordAuthError("resolver_error")
				return c.JSON(apperr.Status(err), echo.Map{"error": apperr.Message(err)})
			}

			auth.WithIdentity(c, ident)
			return next(c)
		}
	}
}
