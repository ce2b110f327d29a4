package profile

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

// Store reads and patches the caller's identity.
type Store interface {
	Profile(ctx context.Context, userID string) (*model.Identity, error)
	UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Identity, error)
}

type Handler struct {
	store     Store
	validator validator.Validator
}

func NewHandler(store Store, v validator.Validator) *Handler {
	return &Handler{store: store, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/user/profile", h.Get)
	r.PUT("/user/profile", h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	identity, err := h.store.Profile(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProfileEnvelope{Profile: *identity})
}

// Update merges the patch. Email and role are not patchable.
func (h *Handler) Update(c *gin.Context) {
	var patch model.ProfilePatch
	if !handler.BindJSON(c, &patch) {
		return
	}
	if err := h.validator.Validate(patch); err != nil {
		handler.Fail(c, err)
		return
	}

	identity, err := h.store.UpdateProfile(c.Request.Context(), handler.UserID(c), patch)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProfileEnvelope{Profile: *identity})
}
