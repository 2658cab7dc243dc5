package middleware

import (
	"strconv"
	"time"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/telemetry"
	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware records request metrics. Unmatched routes share one
// label to keep cardinality bounded.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		telemetry.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
