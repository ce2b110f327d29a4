package notification

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

type Handler struct {
	notifications repository.OwnedRepository[model.Notification]
	validator     validator.Validator
	now           func() time.Time
}

func NewHandler(notifications repository.OwnedRepository[model.Notification], v validator.Validator) *Handler {
	return &Handler{notifications: notifications, validator: v, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.POST("", h.Create)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

// List returns notifications newest first.
func (h *Handler) List(c *gin.Context) {
	items, err := h.notifications.List(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	c.JSON(http.StatusOK, model.NotificationsEnvelope{Notifications: items})
}

func (h *Handler) Create(c *gin.Context) {
	var input model.NotificationInput
	if !handler.BindJSON(c, &input) {
		return
	}
	if err := h.validator.Validate(input); err != nil {
		handler.Fail(c, err)
		return
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	uid := handler.UserID(c)
	now := h.now().UTC()
	n := model.Notification{
		ID:        model.NewID(now),
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Priority:  priority,
		CreatedAt: now,
	}
	if err := h.notifications.Put(c.Request.Context(), uid, n); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, model.NotificationEnvelope{Notification: n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	uid := handler.UserID(c)

	n, err := h.notifications.Get(ctx, uid, c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		handler.Fail(c, apperrors.NotFound("notification", err))
		return
	case err != nil:
		handler.Fail(c, apperrors.Internal(err))
		return
	}

	if !n.Read {
		n.Read = true
		if err := h.notifications.Put(ctx, uid, *n); err != nil {
			handler.Fail(c, apperrors.Internal(err))
			return
		}
	}
	c.JSON(http.StatusOK, model.NotificationEnvelope{Notification: *n})
}
