// File: internal/middleware/request_logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"engla_backend/internal/requestctx"
)

// RequestLogger assigns the per-request trace ID and logger, binds them to
// the request context and logs completion. Trace ID resolution order: first
// value of the inbound X-Request-ID header, else a fresh ULID. Every
// response echoes the trace ID back in the same header.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		traceID := ""
		if values := c.Request.Header.Values(requestctx.TraceIDHeader); len(values) > 0 {
			traceID = values[0]
		}
		if traceID == "" {
			traceID = requestctx.NewTraceID()
		}
		c.Header(requestctx.TraceIDHeader, traceID)

		reqLogger := logger.With(
			zap.String("trace_id", traceID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		requestctx.Bind(c, &requestctx.Store{TraceID: traceID, Logger: reqLogger})

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zapcore.Field{
			zap.Int("status_code", statusCode),
			zap.String("query", query),
			zap.Duration("latency", latency),
		}

		switch {
		case statusCode >= 500:
			reqLogger.Error("Request handled", fields...)
		case statusCode >= 400:
			reqLogger.Warn("Request handled", fields...)
		default:
			reqLogger.Info("Request handled", fields...)
		}
	}
}
