// Package audit writes append-only audit entries for system-level
// actions. A failed audit write is logged and swallowed; it must never
// fail the operation being audited.
package audit

import (
	"gym-service/internal/model"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Log records an audit entry from the request context.
func Log(c echo.Context, action, resource, resourceID string, details map[string]interface{}) {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return
	}

	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}

	if err := database.GetDB().Create(&entry).Error; err != nil {
		logger.FromContext(c).Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
