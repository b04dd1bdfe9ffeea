package handler

import (
	"errors"
	"net/http"

	"github.com/amoylab/casamento/internal/apiserver/service"
	"github.com/amoylab/casamento/internal/auth/jwt"
	"github.com/amoylab/casamento/internal/common/dto"
	"github.com/amoylab/casamento/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth serves token issuance and the current user
type Auth struct {
	reg        *service.Registry
	jwtService *jwt.Service
	errors     *ErrorHandler
	logger     *zap.Logger
}

// NewAuth creates a new authentication handler
func NewAuth(reg *service.Registry, jwtService *jwt.Service, errs *ErrorHandler, logger *zap.Logger) *Auth {
	return &Auth{
		reg:        reg,
		jwtService: jwtService,
		errors:     errs,
		logger:     logger.Named("auth"),
	}
}

// Login handles POST /auth/login/
func (h *Auth) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.HandleError(c, i18n.ErrorUserNamePasswordRequired)
		return
	}

	user, err := h.reg.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logger.Info("login rejected", zap.String("username", req.Username))
		h.errors.HandleError(c, i18n.ErrorInvalidCredentials)
		return
	}
	if err != nil {
		h.errors.HandleError(c, err)
		return
	}

	token, expires, err := h.jwtService.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires,
		User: dto.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Role:     string(user.Role),
		},
	})
}

// Me handles GET /auth/me/
func (h *Auth) Me(c *gin.Context) {
	p := service.PrincipalFrom(c.Request.Context())
	if p == nil {
		h.errors.HandleError(c, i18n.ErrUnauthorized)
		return
	}
	rec, err := h.reg.Me(c.Request.Context(), p.UserID)
	if err != nil {
		h.errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
