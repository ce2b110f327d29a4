package family

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

type Handler struct {
	links     repository.OwnedRepository[model.FamilyLink]
	validator validator.Validator
	now       func() time.Time
}

func NewHandler(links repository.OwnedRepository[model.FamilyLink], v validator.Validator) *Handler {
	return &Handler{links: links, validator: v, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	family := r.Group("/family")
	{
		family.POST("/link", h.Link)
		family.GET("/links", h.List)
		family.DELETE("/links/:id", h.Unlink)
	}
}

func (h *Handler) List(c *gin.Context) {
	links, err := h.links.List(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	c.JSON(http.StatusOK, model.FamilyLinksEnvelope{FamilyLinks: links})
}

// Link records a pending invitation; the member accepts out of band.
func (h *Handler) Link(c *gin.Context) {
	var input model.FamilyLinkInput
	if !handler.BindJSON(c, &input) {
		return
	}
	if err := h.validator.Validate(input); err != nil {
		handler.Fail(c, err)
		return
	}

	uid := handler.UserID(c)
	now := h.now().UTC()
	link := model.FamilyLink{
		ID:           model.NewID(now),
		OwnerID:      uid,
		MemberEmail:  strings.ToLower(strings.TrimSpace(input.MemberEmail)),
		Relationship: input.Relationship,
		Permissions:  input.PermissionsOrDefault(),
		Status:       model.FamilyLinkPending,
		CreatedAt:    now,
	}
	if err := h.links.Put(c.Request.Context(), uid, link); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, model.FamilyLinkEnvelope{FamilyLink: link})
}

func (h *Handler) Unlink(c *gin.Context) {
	err := h.links.Delete(c.Request.Context(), handler.UserID(c), c.Param("id"))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
