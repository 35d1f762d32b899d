package middleware

import (
	"invest-ai-go/pkg/metrics"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics 记录每个请求的次数和耗时。path 使用路由模板，未匹配的路由记为 "unmatched"。
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}
