package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/middleware"
	"go.uber.org/zap"
)

// NotificationHandler streams user-facing notifications
type NotificationHandler struct {
	common    *CommonServices
	keepAlive time.Duration
}

func NewNotificationHandler(common *CommonServices) *NotificationHandler {
	return &NotificationHandler{common: common, keepAlive: 30 * time.Second}
}

// Stream godoc
// @Summary      Notification stream
// @Description  Server-sent events. A "ready" event is sent once the subscription is active,
// @Description  then one "notification" event per notification.
// @Tags         notifications
// @Produce      text/event-stream
// @Success      200
// @Router       /api/v1/notifications [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	notifications, cancel := h.common.session.Notifications.Subscribe()
	defer cancel()

	log := middleware.LogWithCorrelationID(c.Request.Context())
	log.Debug("Notification stream opened")
	defer log.Debug("Notification stream closed")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"connection": h.common.session.Manager.State()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-notifications:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		case <-c.Request.Context().Done():
			log.Debug("Notification client went away", zap.Error(c.Request.Context().Err()))
			return false
		}
	})
}
