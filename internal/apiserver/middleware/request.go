package middleware

import (
	"time"

	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/i18n"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Language stores the negotiated language under cnst.XLang
func Language() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cnst.XLang, i18n.LanguageFromRequest(c.Request))
		c.Next()
	}
}

// RequestID propagates X-Request-ID, generating one when absent
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cnst.XRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(cnst.CtxKeyRequestID, id)
		c.Header(cnst.XRequestID, id)
		c.Next()
	}
}

// Logger logs one line per request; server errors are logged at error level
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(cnst.CtxKeyRequestID)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Info("request rejected", fields...)
		default:
			logger.Debug("request served", fields...)
		}
	}
}
