package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/middleware"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

// Provider is the account backend behind the /auth routes.
type Provider interface {
	CreateUser(ctx context.Context, in model.SignUpInput) (*model.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.TokenResponse, error)
	SignOut(ctx context.Context, token string) error
}

type Handler struct {
	provider  Provider
	auth      *middleware.AuthMiddleware
	validator validator.Validator
}

func NewHandler(provider Provider, auth *middleware.AuthMiddleware, v validator.Validator) *Handler {
	return &Handler{provider: provider, auth: auth, validator: v}
}

// RegisterRoutes puts signup and token behind the anon key; logout takes the
// user's own token.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.auth.RequireAnonKey(), h.SignUp)
		auth.POST("/token", h.auth.RequireAnonKey(), h.Token)
		auth.POST("/logout", h.Logout)
	}
}

func (h *Handler) SignUp(c *gin.Context) {
	var input model.SignUpInput
	if !handler.BindJSON(c, &input) {
		return
	}
	if err := h.validator.Validate(input); err != nil {
		handler.Fail(c, err)
		return
	}

	identity, err := h.provider.CreateUser(c.Request.Context(), input)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.UserEnvelope{User: *identity})
}

func (h *Handler) Token(c *gin.Context) {
	var req model.TokenRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tokens, err := h.provider.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Logout always answers 200; a missing or stale token has nothing to revoke.
func (h *Handler) Logout(c *gin.Context) {
	if token, ok := middleware.BearerToken(c); ok {
		if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
			handler.Fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
