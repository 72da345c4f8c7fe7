package middleware

import (
	"strconv"
	"time"

	"judgegate/internal/common/metrics"
	"judgegate/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLevel maps a response status to the level of its access log line.
func AccessLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// AccessLog writes one line per request, leveled by status class, and
// records the latency when m is set.
func AccessLog(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	log = log.Named("access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		if m != nil {
			m.RequestLatency.WithLabelValues(path, strconv.Itoa(status)).Observe(latency.Seconds())
		}
		if ce := logger.WithContext(c.Request.Context(), log).Check(AccessLevel(status), "request completed"); ce != nil {
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.String("client_ip", c.ClientIP()),
			)
		}
	}
}
