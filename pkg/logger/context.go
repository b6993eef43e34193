package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromContext returns the request-scoped logger stored by Middleware.
// Outside a request pipeline it falls back to the global logger,
// tagged with whatever request ID the request carries.
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}

	requestID, ok := c.Get("X-Request-ID").(string)
	if !ok || requestID == "" {
		requestID = c.Request().Header.Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = "unknown"
	}
	return GetLogger().With(zap.String("request_id", requestID))
}
