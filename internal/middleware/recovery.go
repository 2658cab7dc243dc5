package middleware

import (
	"fmt"
	"net/http"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 with the generic
// failure body.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.String("panic", fmt.Sprint(recovered)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(RequestIDKey)),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{
			Error: model.MsgConversionFailed,
		})
	})
}
