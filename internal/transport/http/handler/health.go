package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"apicatalog/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := h.checkDatabase(ctx)
	redisStatus := h.checkRedis(ctx)
	rmqStatus := h.checkRabbitMQ()

	// Optional dependencies only count when they are configured.
	allOK := dbStatus.OK &&
		(!redisStatus.Enabled || redisStatus.OK) &&
		(!rmqStatus.Enabled || rmqStatus.OK)
	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"rabbitmq": rmqStatus,
		},
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.DB.DB()
	if err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{OK: true, Enabled: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{Message: "not configured"}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{OK: true, Enabled: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil {
		return dependencyStatus{Message: "not configured"}
	}
	if h.app.MQConn.IsClosed() {
		return dependencyStatus{Enabled: true, Message: "connection closed"}
	}
	return dependencyStatus{OK: true, Enabled: true}
}
