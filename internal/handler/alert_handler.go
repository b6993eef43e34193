package handler

import (
	"time"

	"gym-service/internal/middleware"
	"gym-service/internal/model"
	"gym-service/internal/rbac"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// alertScope narrows alerts to the gym and to those addressed to the
// caller's role. Target roles are stored as a JSON array, so the role
// match is a quoted substring match.
func alertScope(c echo.Context) *gorm.DB {
	gymID := middleware.GymScope(c)
	role, _ := c.Get("role").(rbac.Role)
	return database.GetDB().Model(&model.Alert{}).
		Where("gym_id = ?", gymID).
		Where(`target_roles LIKE ?`, `%"`+string(role)+`"%`)
}

// ListAlerts returns the caller's alerts, newest first.
func ListAlerts(c echo.Context) error {
	page, limit := response.PageParams(c)

	db := alertScope(c)
	if read := c.QueryParam("read"); read != "" {
		db = db.Where("read = ?", read == "true")
	}
	if alertType := c.QueryParam("type"); alertType != "" {
		db = db.Where("type = ?", alertType)
	}
	if priority := c.QueryParam("priority"); priority != "" {
		db = db.Where("priority = ?", priority)
	}

	var total int64
	db.Count(&total)
	pagination, offset := response.Paginate(page, limit, total)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var alerts []model.Alert
	if err := db.Preload("Member").Preload("ReadBy").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&alerts).Error; err != nil {
		logger.FromContext(c).Error("Failed to list alerts", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve alerts")
	}

	return response.OK(c, "Alerts retrieved successfully", echo.Map{
		"alerts":     alerts,
		"pagination": pagination,
	})
}

// MarkAlertRead acknowledges one alert for the caller. Acknowledging
// twice is a no-op, not an error.
func MarkAlertRead(c echo.Context) error {
	log := logger.FromContext(c)
	userID, _ := c.Get("user_id").(uint)

	var alert model.Alert
	if err := alertScope(c).Where("id = ?", c.Param("id")).First(&alert).Error; err != nil {
		return response.NotFound(c, "Alert not found")
	}

	var existing model.AlertRead
	err := database.GetDB().Where("alert_id = ? AND user_id = ?", alert.ID, userID).
		First(&existing).Error
	if err != nil {
		defer prometheus.TrackDBOperation("insert")(time.Now())
		read := model.AlertRead{AlertID: alert.ID, UserID: userID, ReadAt: time.Now()}
		if err := database.GetDB().Create(&read).Error; err != nil {
			log.Error("Failed to mark alert read", zap.Error(err))
			return response.InternalServerError(c, "Failed to mark alert as read")
		}
	}

	if !alert.Read {
		if err := database.GetDB().Model(&alert).Update("read", true).Error; err != nil {
			log.Error("Failed to flag alert read", zap.Error(err))
		}
	}

	return response.OK(c, "Alert marked as read", nil)
}

// MarkAllAlertsRead acknowledges every unread alert addressed to the
// caller.
func MarkAllAlertsRead(c echo.Context) error {
	log := logger.FromContext(c)
	userID, _ := c.Get("user_id").(uint)

	var alerts []model.Alert
	if err := alertScope(c).
		Where("id NOT IN (?)", database.GetDB().Model(&model.AlertRead{}).
			Select("alert_id").Where("user_id = ?", userID)).
		Find(&alerts).Error; err != nil {
		log.Error("Failed to load unread alerts", zap.Error(err))
		return response.InternalServerError(c, "Failed to mark alerts as read")
	}

	now := time.Now()
	defer prometheus.TrackDBOperation("insert")(time.Now())
	for _, alert := range alerts {
		read := model.AlertRead{AlertID: alert.ID, UserID: userID, ReadAt: now}
		if err := database.GetDB().Create(&read).Error; err != nil {
			log.Error("Failed to mark alert read", zap.Uint("alert_id", alert.ID), zap.Error(err))
			continue
		}
		if !alert.Read {
			database.GetDB().Model(&model.Alert{}).Where("id = ?", alert.ID).Update("read", true)
		}
	}

	return response.OK(c, "All alerts marked as read", echo.Map{
		"marked": len(alerts),
	})
}

// UnreadAlertCount returns how many of the caller's alerts they have
// not acknowledged.
func UnreadAlertCount(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	if err := alertScope(c).
		Where("id NOT IN (?)", database.GetDB().Model(&model.AlertRead{}).
			Select("alert_id").Where("user_id = ?", userID)).
		Count(&count).Error; err != nil {
		logger.FromContext(c).Error("Failed to count unread alerts", zap.Error(err))
		return response.InternalServerError(c, "Failed to count alerts")
	}

	return response.OK(c, "Unread count retrieved successfully", echo.Map{
		"unread": count,
	})
}

// DeleteAlert soft-deletes an alert for the whole gym.
func DeleteAlert(c echo.Context) error {
	log := logger.FromContext(c)

	var alert model.Alert
	if err := alertScope(c).Where("id = ?", c.Param("id")).First(&alert).Error; err != nil {
		return response.NotFound(c, "Alert not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&alert).Error; err != nil {
		log.Error("Failed to delete alert", zap.Error(err))
		return response.InternalServerError(c, "Failed to delete alert")
	}

	return response.OK(c, "Alert deleted successfully", nil)
}
