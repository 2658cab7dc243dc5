package handler

import (
	"net/http"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/telemetry"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports that the process is up. It does not contact the rate
// provider.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": telemetry.ServiceName,
		"version": telemetry.ServiceVersion,
	})
}
