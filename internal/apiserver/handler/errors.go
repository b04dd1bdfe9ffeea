package handler

import (
	"net/http"

	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler writes translated error replies and logs server failures
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError replies with the status and body matching err
func (h *ErrorHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, body := i18n.Render(i18n.Lang(c), err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", c.GetString(cnst.CtxKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
