package handler

import (
	"time"

	"gym-service/internal/audit"
	"gym-service/internal/middleware"
	"gym-service/internal/model"
	"gym-service/internal/rbac"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListUsers returns the gym's staff accounts.
func ListUsers(c echo.Context) error {
	gymID := middleware.GymScope(c)
	page, limit := response.PageParams(c)

	db := database.GetDB().Model(&model.User{}).Where("gym_id = ?", gymID)
	if role := c.QueryParam("role"); role != "" {
		db = db.Where("role = ?", role)
	}
	if active := c.QueryParam("active"); active != "" {
		db = db.Where("active = ?", active == "true")
	}

	var total int64
	db.Count(&total)
	pagination, offset := response.Paginate(page, limit, total)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		logger.FromContext(c).Error("Failed to list users", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve users")
	}

	return response.OK(c, "Users retrieved successfully", echo.Map{
		"users":      users,
		"pagination": pagination,
	})
}

// GetUser returns a single staff account, scoped to the gym.
func GetUser(c echo.Context) error {
	gymID := middleware.GymScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&user).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.OK(c, "User retrieved successfully", echo.Map{"user": user})
}

// UpdateUser applies a partial update to a staff account. Users cannot
// deactivate themselves, and the gymowner role cannot be granted or
// revoked here.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)
	callerID, _ := c.Get("user_id").(uint)

	var user model.User
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&user).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	var req struct {
		Name   *string    `json:"name"`
		Phone  *string    `json:"phone"`
		Role   *rbac.Role `json:"role"`
		Active *bool      `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil && *req.Role != user.Role {
		if !rbac.Valid(*req.Role) || *req.Role == rbac.RoleSuperAdmin ||
			*req.Role == rbac.RoleGymOwner || user.Role == rbac.RoleGymOwner {
			return response.UnprocessableEntity(c, "Invalid role change")
		}
		user.Role = *req.Role
	}
	if req.Active != nil {
		if user.ID == callerID && !*req.Active {
			return response.UnprocessableEntity(c, "You cannot deactivate your own account")
		}
		deactivated := user.Active && !*req.Active
		user.Active = *req.Active
		if deactivated {
			user.RefreshToken = ""
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&user).Error; err != nil {
		log.Error("Failed to update user", zap.Error(err))
		return response.InternalServerError(c, "Failed to update user")
	}

	audit.Log(c, "update", "user", user.Email, map[string]interface{}{
		"role":   user.Role,
		"active": user.Active,
	})

	return response.OK(c, "User updated successfully", echo.Map{"user": user})
}

// DeleteUser soft-deletes a staff account. Users cannot delete
// themselves.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)
	callerID, _ := c.Get("user_id").(uint)

	var user model.User
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&user).Error; err != nil {
		return response.NotFound(c, "User not found")
	}
	if user.ID == callerID {
		return response.UnprocessableEntity(c, "You cannot delete your own account")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Model(&user).Update("refresh_token", "").Error; err != nil {
		log.Error("Failed to revoke user session", zap.Error(err))
	}
	if err := database.GetDB().Delete(&user).Error; err != nil {
		log.Error("Failed to delete user", zap.Error(err))
		return response.InternalServerError(c, "Failed to delete user")
	}

	audit.Log(c, "delete", "user", user.Email, nil)

	return response.OK(c, "User deleted successfully", nil)
}
