package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/identity"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

// ContextPrincipal is the gin context key holding the authenticated caller.
const ContextPrincipal = "principal"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// Principal returns the caller set by the auth middleware.
func Principal(c *gin.Context) *identity.Principal {
	if v, ok := c.Get(ContextPrincipal); ok {
		if p, ok := v.(*identity.Principal); ok {
			return p
		}
	}
	return nil
}

// UserID is the authenticated caller's id, or "" on public routes.
func UserID(c *gin.Context) string {
	if p := Principal(c); p != nil {
		return p.Identity.ID
	}
	return ""
}

// BindJSON decodes the body into dst, recording a validation error on c when
// the body is malformed.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body", err))
		return false
	}
	return true
}

// Fail records err for the error middleware.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
