package handler

import (
	"net/http"
	"time"

	"gym-service/pkg/database"

	"github.com/labstack/echo/v4"
)

var startTime = time.Now()

// HealthCheck reports service liveness and database reachability.
func HealthCheck(c echo.Context) error {
	dbStatus := "up"
	if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, echo.Map{
		"status":   "ok",
		"database": dbStatus,
		"uptime":   time.Since(startTime).String(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
