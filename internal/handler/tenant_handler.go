package handler

import (
	"net/http"
	"time"

	"notes-service/internal/auth"
	"notes-service/internal/quota"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandler serves the subscription upgrade path.
type TenantHandler struct {
	quota *quota.Enforcer
}

func NewTenantHandler(enforcer *quota.Enforcer) *TenantHandler {
	return &TenantHandler{quota: enforcer}
}

// Upgrade moves the caller's tenant to the pro plan. The policy check runs
// before the store is touched: only an admin of the tenant named by the
// path slug gets through. The update itself is keyed by both slug and the
// resolved tenant id, and repeating it on a pro tenant is a no-op success.
func (h *TenantHandler) Upgrade(c echo.Context) error {
	log := logger.FromContext(c)
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	slug := c.Param("slug")
	if err := auth.CheckUpgradeTenant(ident, slug); err != nil {
		log.Warn("Tenant upgrade denied",
			zap.String("slug", slug),
			zap.String("caller_slug", ident.TenantSlug),
			zap.String("role", ident.Role))
		return fail(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	tenant, err := h.quota.Upgrade(c.Request().Context(), ident.TenantID, slug)
	if err != nil {
		return fail(c, err)
	}

	prometheus.TenantUpgradeCounter.Inc()
	log.Info("Tenant upgraded to pro",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant upgraded to Pro plan successfully",
		"tenant":  tenant,
	})
}
