package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext stamps request/trace ids (and the :recordId route param when
// present) onto the request context and echoes the ids back as headers.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		td := &ctxutil.TraceData{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			RecordID:  strings.TrimSpace(c.Param("recordId")),
		}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		if sc := span.SpanContext(); sc.HasTraceID() {
			td.TraceID = sc.TraceID().String()
		} else if hdr := strings.TrimSpace(c.GetHeader(headerTraceID)); hdr != "" {
			td.TraceID = hdr
		} else {
			td.TraceID = uuid.NewString()
		}
		if td.RecordID != "" {
			span.SetAttributes(attribute.String("formation.record_id", td.RecordID))
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}
