package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"gym-service/internal/rbac"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
)

// GymContext resolves and enforces the tenant scope for a request.
// Superadmins have no scope and may not use gym-scoped routes; all
// other roles must carry one. A gym identifier supplied by the caller
// in the path, query, header or JSON body is compared against the
// resolved scope and then discarded: the caller can never widen or
// override their own scope. This is the sole isolation boundary; every
// query for gym-scoped entities must filter by the resolved scope.
func GymContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(rbac.Role)
		if !ok {
			return response.Unauthorized(c, "Authentication required.")
		}

		if role == rbac.RoleSuperAdmin {
			prometheus.RecordAuthError("no_gym_context")
			return response.Forbidden(c, "Access denied. Gym context not found.")
		}

		gymID, _ := c.Get("gym_id").(string)
		if gymID == "" {
			prometheus.RecordAuthError("no_gym_context")
			return response.Forbidden(c, "Access denied. Gym context required.")
		}

		// Reject any caller-supplied gym identifier that disagrees with
		// the resolved scope; a match is accepted but ignored.
		for _, supplied := range []string{
			c.Param("gymId"),
			c.QueryParam("gymId"),
			c.Request().Header.Get("X-Gym-ID"),
			bodyGymID(c),
		} {
			if supplied != "" && supplied != gymID {
				prometheus.RecordAuthError("cross_gym_access")
				return response.Forbidden(c, "Access denied. Cannot access data from another gym.")
			}
		}

		return next(c)
	}
}

// bodyGymID peeks at a JSON request body for a gymId field, restoring
// the body so the handler can still bind it.
func bodyGymID(c echo.Context) string {
	req := c.Request()
	if req.Body == nil || req.ContentLength == 0 {
		return ""
	}
	if ct := req.Header.Get(echo.HeaderContentType); ct != "" &&
		!strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		return ""
	}

	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var peek struct {
		GymID string `json:"gymId"`
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		return ""
	}
	return peek.GymID
}

// RequireSuperAdmin restricts a route to the unscoped system role.
func RequireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(rbac.Role)
		if !ok {
			return response.Unauthorized(c, "Authentication required.")
		}
		if role != rbac.RoleSuperAdmin {
			prometheus.RecordAuthError("insufficient_role")
			return response.Forbidden(c, "Access denied. Insufficient permissions.")
		}
		return next(c)
	}
}

// GymScope returns the tenant scope stored by GymContext.
func GymScope(c echo.Context) string {
	gymID, _ := c.Get("gym_id").(string)
	return gymID
}
