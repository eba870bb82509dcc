package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/modulegate-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext resolves trace and request ids and echoes them back.
// Trace id precedence is the client header, then the active otel span, then
// a fresh uuid.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var spanTraceID string
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			spanTraceID = sc.TraceID().String()
		}
		td := &ctxutil.TraceData{
			TraceID:   firstNonEmpty(c.GetHeader(headerTraceID), spanTraceID),
			RequestID: firstNonEmpty(c.GetHeader(headerRequestID)),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Header(headerTraceID, td.TraceID)
		c.Header(headerRequestID, td.RequestID)
		c.Next()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return uuid.NewString()
}
