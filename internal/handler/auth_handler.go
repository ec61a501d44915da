package handler

import (
	"net/http"

	"notes-service/internal/apperr"
	"notes-service/internal/auth"
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves login and the authenticated whoami endpoint.
type AuthHandler struct {
	users  *store.UserStore
	signer *jwtutil.Signer
}

func NewAuthHandler(users *store.UserStore, signer *jwtutil.Signer) *AuthHandler {
	return &AuthHandler{users: users, signer: signer}
}

// Login verifies email and password and issues a signed token carrying the
// user's tenant. Unknown email and wrong password are indistinguishable to
// the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
	}

	user, err := h.users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			log.Warn("Login for unknown email", zap.String("email", req.Email))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.signer.Issue(user.ID, user.Email, user.Role, user.TenantID, user.Tenant.Slug)
	if err != nil {
		log.Error("Failed to issue token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("tenant_slug", user.Tenant.Slug),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  userPayload(user.ID, user.Email, user.Role, &user.Tenant),
	})
}

// Me returns the caller's resolved profile. The identity in the context is
// already store-backed, so this never reads the token claims directly.
func (h *AuthHandler) Me(c echo.Context) error {
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":    ident.UserID,
			"email": ident.Email,
			"role":  ident.Role,
			"tenant": echo.Map{
				"id":                ident.TenantID,
				"slug":              ident.TenantSlug,
				"name":              ident.TenantName,
				"subscription_plan": ident.Plan,
			},
		},
	})
}

func userPayload(id uint, email, role string, tenant *model.Tenant) echo.Map {
	return echo.Map{
		"id":    id,
		"email": email,
		"role":  role,
		"tenant": echo.Map{
			"id":                tenant.ID,
			"slug":              tenant.Slug,
			"name":              tenant.Name,
			"subscription_plan": tenant.SubscriptionPlan,
		},
	}
}
