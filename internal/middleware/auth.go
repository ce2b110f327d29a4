package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/identity"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

// TokenVerifier resolves bearer tokens.
type TokenVerifier interface {
	GetUser(ctx context.Context, token string) (*identity.Principal, error)
	IsAnonKey(key string) bool
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate requires a user access token and stores the caller under
// handler.ContextPrincipal.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			handler.Fail(c, apperrors.Unauthorized(nil))
			c.Abort()
			return
		}

		principal, err := m.verifier.GetUser(c.Request.Context(), token)
		if err != nil {
			handler.Fail(c, err)
			c.Abort()
			return
		}

		c.Set(handler.ContextPrincipal, principal)
		c.Next()
	}
}

// RequireAnonKey guards the public routes with the anon key.
func (m *AuthMiddleware) RequireAnonKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok || !m.verifier.IsAnonKey(token) {
			handler.Fail(c, apperrors.Unauthorized(nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
