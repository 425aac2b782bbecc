package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agriconnect/admin-backend/pkg/apperr"
)

// Logger returns a zap-based request logging middleware. Errors attached with c.Error are logged
// with their causes; server errors log at error level.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
		}
		if rid := c.GetString(ContextRequestID); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if id := UserID(c); id != uuid.Nil {
			fields = append(fields, zap.String("user_id", id.String()))
		}
		level := zapcore.InfoLevel
		if err := c.Errors.Last(); err != nil {
			fields = append(fields, zap.Error(err.Err), zap.String("kind", string(apperr.KindOf(err.Err))))
			if status >= 500 {
				level = zapcore.ErrorLevel
			}
		}
		if ce := logger.Check(level, "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}
