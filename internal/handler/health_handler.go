package handler

import (
	"invest-ai-go/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler 负责健康检查和欢迎页。
type HealthHandler struct {
	health  service.HealthService
	appName string
	version string
}

// NewHealthHandler 创建一个新的 HealthHandler。
func NewHealthHandler(health service.HealthService, appName, version string) *HealthHandler {
	return &HealthHandler{health: health, appName: appName, version: version}
}

// Check 处理 GET /health/。依赖异常只体现在 status 字段中，HTTP 状态码始终为 200。
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":    report.Status,
		"timestamp": report.Timestamp,
		"version":   report.Version,
		"services":  report.Services,
	})
}

// Simple 处理 GET /health/simple。
func (h *HealthHandler) Simple(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    service.StatusHealthy,
		"timestamp": time.Now().UTC(),
		"service":   h.appName,
	})
}

// Root 处理 GET /。
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + h.appName,
		"version": h.version,
		"health":  "/health/simple",
	})
}
