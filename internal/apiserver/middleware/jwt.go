package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/amoylab/casamento/internal/apiserver/service"
	"github.com/amoylab/casamento/internal/auth/jwt"
	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/i18n"
	"github.com/gin-gonic/gin"
)

// PrincipalResolver loads the current state of the user a token names
type PrincipalResolver interface {
	Principal(ctx context.Context, userID uint) (*service.Principal, error)
}

// JWTAuthMiddleware validates bearer tokens. A request without an
// Authorization header proceeds anonymously; a malformed or invalid
// token is rejected with 401. With a resolver the caller's role is read
// from storage, and tokens of deleted users are rejected; without one
// the token claims are trusted until expiry.
func JWTAuthMiddleware(jwtService *jwt.Service, users PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			i18n.RespondWithError(c, i18n.ErrorInvalidToken)
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrorInvalidToken)
			return
		}

		principal := &service.Principal{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}
		if users != nil {
			principal, err = users.Principal(c.Request.Context(), claims.UserID)
			if errors.Is(err, service.ErrUnknownPrincipal) {
				i18n.RespondWithError(c, i18n.ErrorInvalidToken)
				return
			}
			if err != nil {
				_ = c.Error(err)
				i18n.RespondWithError(c, err)
				return
			}
		}

		c.Set(cnst.CtxKeyClaims, claims)
		c.Request = c.Request.WithContext(service.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if service.PrincipalFrom(c.Request.Context()) == nil {
			i18n.RespondWithError(c, i18n.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
