package handler

import (
	"time"

	"gym-service/internal/audit"
	"gym-service/internal/middleware"
	"gym-service/internal/model"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreatePlan adds a membership plan. The name must be unique among the
// gym's active plans; a retired plan's name may be reused.
func CreatePlan(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var req struct {
		Name          string             `json:"name"`
		Description   string             `json:"description"`
		DurationValue int                `json:"durationValue"`
		DurationUnit  model.DurationUnit `json:"durationUnit"`
		Price         float64            `json:"price"`
		Features      []string           `json:"features"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}
	if req.Name == "" || req.DurationValue < 1 {
		return response.UnprocessableEntity(c, "Plan name and a positive duration are required")
	}
	if req.Price < 0 {
		return response.UnprocessableEntity(c, "Price cannot be negative")
	}
	if req.DurationUnit == "" {
		req.DurationUnit = model.DurationMonths
	}
	switch req.DurationUnit {
	case model.DurationDays, model.DurationMonths, model.DurationYears:
	default:
		return response.UnprocessableEntity(c, "Invalid duration unit")
	}

	var count int64
	database.GetDB().Model(&model.Plan{}).
		Where("gym_id = ? AND name = ? AND active = ?", gymID, req.Name, true).
		Count(&count)
	if count > 0 {
		return response.Conflict(c, "An active plan with this name already exists")
	}

	callerID, _ := c.Get("user_id").(uint)
	plan := model.Plan{
		GymID:         gymID,
		Name:          req.Name,
		Description:   req.Description,
		DurationValue: req.DurationValue,
		DurationUnit:  req.DurationUnit,
		Price:         req.Price,
		Features:      req.Features,
		Active:        true,
		CreatedBy:     &callerID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&plan).Error; err != nil {
		log.Error("Failed to create plan", zap.Error(err))
		return response.InternalServerError(c, "Failed to create plan")
	}

	audit.Log(c, "create", "plan", plan.Name, map[string]interface{}{
		"price":    plan.Price,
		"duration": plan.DurationInDays(),
	})

	return response.Created(c, "Plan created successfully", echo.Map{"plan": plan})
}

// ListPlans returns the gym's plans ordered by price. Inactive plans
// are included only when requested.
func ListPlans(c echo.Context) error {
	gymID := middleware.GymScope(c)

	db := database.GetDB().Where("gym_id = ?", gymID)
	if c.QueryParam("includeInactive") != "true" {
		db = db.Where("active = ?", true)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var plans []model.Plan
	if err := db.Order("price ASC").Find(&plans).Error; err != nil {
		logger.FromContext(c).Error("Failed to list plans", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve plans")
	}

	return response.OK(c, "Plans retrieved successfully", echo.Map{"plans": plans})
}

// GetPlan returns a single plan, scoped to the gym.
func GetPlan(c echo.Context) error {
	gymID := middleware.GymScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var plan model.Plan
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&plan).Error; err != nil {
		return response.NotFound(c, "Plan not found")
	}

	return response.OK(c, "Plan retrieved successfully", echo.Map{"plan": plan})
}

// UpdatePlan applies a partial update. Renaming checks active-name
// uniqueness; duration or price changes never touch existing members.
func UpdatePlan(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var plan model.Plan
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&plan).Error; err != nil {
		return response.NotFound(c, "Plan not found")
	}

	var req struct {
		Name          *string             `json:"name"`
		Description   *string             `json:"description"`
		DurationValue *int                `json:"durationValue"`
		DurationUnit  *model.DurationUnit `json:"durationUnit"`
		Price         *float64            `json:"price"`
		Features      *[]string           `json:"features"`
		Active        *bool               `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}

	if req.Name != nil && *req.Name != plan.Name {
		var count int64
		database.GetDB().Model(&model.Plan{}).
			Where("gym_id = ? AND name = ? AND active = ? AND id <> ?", gymID, *req.Name, true, plan.ID).
			Count(&count)
		if count > 0 {
			return response.Conflict(c, "An active plan with this name already exists")
		}
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.DurationValue != nil {
		if *req.DurationValue < 1 {
			return response.UnprocessableEntity(c, "Duration must be positive")
		}
		plan.DurationValue = *req.DurationValue
	}
	if req.DurationUnit != nil {
		switch *req.DurationUnit {
		case model.DurationDays, model.DurationMonths, model.DurationYears:
			plan.DurationUnit = *req.DurationUnit
		default:
			return response.UnprocessableEntity(c, "Invalid duration unit")
		}
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return response.UnprocessableEntity(c, "Price cannot be negative")
		}
		plan.Price = *req.Price
	}
	if req.Features != nil {
		plan.Features = *req.Features
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&plan).Error; err != nil {
		log.Error("Failed to update plan", zap.Error(err))
		return response.InternalServerError(c, "Failed to update plan")
	}

	audit.Log(c, "update", "plan", plan.Name, nil)

	return response.OK(c, "Plan updated successfully", echo.Map{"plan": plan})
}

// DeletePlan soft-deletes a plan. Members already on the plan keep
// their current term; they simply cannot renew onto it.
func DeletePlan(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var plan model.Plan
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&plan).Error; err != nil {
		return response.NotFound(c, "Plan not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&plan).Error; err != nil {
		log.Error("Failed to delete plan", zap.Error(err))
		return response.InternalServerError(c, "Failed to delete plan")
	}

	audit.Log(c, "delete", "plan", plan.Name, nil)

	return response.OK(c, "Plan deleted successfully", nil)
}
