package rest

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request once the handler chain returns.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// recovery turns a handler panic into a plain 500.
func recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error(c.Request.Context(), "panic in handler", "panic", rec)
		writeError(c, logger, errors.New("panic recovered"))
	})
}
