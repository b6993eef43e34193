package middleware

import (
	"errors"
	"strings"

	"gym-service/internal/model"
	"gym-service/internal/rbac"
	"gym-service/pkg/database"
	"gym-service/pkg/jwtutil"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Authenticate validates the bearer access token, loads the caller and
// stores identity, role and gym scope in the request context. The gym
// scope always comes from the stored user record, never from anything
// the caller supplied.
func Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			prometheus.RecordAuthError("missing_token")
			return response.Unauthorized(c, "Authentication required. No token provided.")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			prometheus.RecordAuthError("invalid_auth_format")
			return response.Unauthorized(c, "Invalid authorization format, expected Bearer token")
		}

		claims, err := jwtutil.ValidateToken(parts[1], jwtutil.KindAccess)
		if err != nil {
			if errors.Is(err, jwtutil.ErrTokenExpired) {
				prometheus.RecordAuthError("token_expired")
				return response.Unauthorized(c, "Token expired. Please refresh your token.")
			}
			log.Warn("Invalid access token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return response.Unauthorized(c, "Invalid token.")
		}

		var user model.User
		if err := database.GetDB().First(&user, claims.UserID).Error; err != nil || !user.Active {
			prometheus.RecordAuthError("user_not_found")
			return response.Unauthorized(c, "User not found or inactive.")
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("role", user.Role)
		c.Set("gym_id", user.GymID)

		return next(c)
	}
}

// Authorize gates an operation on coarse role membership. It runs
// after Authenticate and before any side effect.
func Authorize(allowed ...rbac.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(rbac.Role)
			if !ok {
				return response.Unauthorized(c, "Authentication required.")
			}
			if !rbac.Allowed(role, allowed...) {
				prometheus.RecordAuthError("insufficient_role")
				return response.Forbidden(c, "Access denied. Insufficient permissions.")
			}
			return next(c)
		}
	}
}

// RequirePermission gates an operation on a fine-grained capability
// from the static role-permission table.
func RequirePermission(perm rbac.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(rbac.Role)
			if !ok {
				return response.Unauthorized(c, "Authentication required.")
			}
			if !rbac.HasPermission(role, perm) {
				prometheus.RecordAuthError("capability_denied")
				return response.Forbidden(c, "Access denied. Required permission: "+string(perm))
			}
			return next(c)
		}
	}
}
