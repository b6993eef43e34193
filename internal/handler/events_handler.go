package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"gym-service/internal/bus"
	"gym-service/pkg/jwtutil"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StreamEvents is the real-time notification stream, delivered as
// server-sent events. EventSource cannot set headers, so the access
// token is presented as a query parameter and verified before the
// stream opens. The client is joined to its role's channel; extra
// channels may be named in the channels parameter and are joined as
// requested.
func StreamEvents(c echo.Context) error {
	log := logger.FromContext(c)

	token := c.QueryParam("token")
	if token == "" {
		return response.Unauthorized(c, "Authentication required.")
	}
	claims, err := jwtutil.ValidateToken(token, jwtutil.KindAccess)
	if err != nil {
		if err == jwtutil.ErrTokenExpired {
			return response.Unauthorized(c, "Token expired. Please refresh your token.")
		}
		return response.Unauthorized(c, "Invalid token.")
	}

	channels := []string{bus.RoleChannel(claims.Role)}
	if extra := c.QueryParam("channels"); extra != "" {
		for _, ch := range strings.Split(extra, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				channels = append(channels, ch)
			}
		}
	}

	ctx := c.Request().Context()
	sub, err := bus.GetBroker().Subscribe(ctx, channels...)
	if err != nil {
		log.Error("Failed to subscribe to event channels", zap.Error(err))
		return response.InternalServerError(c, "Failed to open event stream")
	}
	defer sub.Close()

	prometheus.BusSubscribersGauge.Inc()
	defer prometheus.BusSubscribersGauge.Dec()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	log.Info("Event stream opened",
		zap.Uint("user_id", claims.UserID),
		zap.Strings("channels", channels))

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", msg.Channel, msg.Payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
