package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request. Device polling of /api/status and
// scrapes of /metrics are logged at debug to keep the info stream readable.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}

	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
		"client_ip", c.ClientIP(),
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "err", c.Errors.String())
	}

	switch {
	case c.Writer.Status() >= 500:
		h.log.Errorw("http_request", fields...)
	case quietPaths[c.FullPath()]:
		h.log.Debugw("http_request", fields...)
	default:
		h.log.Infow("http_request", fields...)
	}
}

var quietPaths = map[string]bool{
	"/api/status": true,
	"/metrics":    true,
	"/health":     true,
}
