package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/modulegate-backend/internal/platform/ctxutil"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// RequestLogger writes one line per request after the handler chain runs.
// 5xx log at error, 4xx at warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx := c.Request.Context()
		fields := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.LogFields(ctx)...)
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != "" {
			fields = append(fields, "user_id", rd.UserID)
		}
		if sid := c.Param("id"); sid != "" && strings.HasPrefix(route, "/api/sessions/") {
			fields = append(fields, "session_id", sid)
		}
		logAtStatus(log, c.Writer.Status())("HTTP request", fields...)
	}
}

func logAtStatus(log *logger.Logger, status int) func(string, ...interface{}) {
	switch {
	case status >= 500:
		return log.Error
	case status >= 400:
		return log.Warn
	default:
		return log.Info
	}
}
