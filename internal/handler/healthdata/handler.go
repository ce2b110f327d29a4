package healthdata

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
	records   repository.OwnedRepository[model.HealthRecord]
	validator validator.Validator
	now       func() time.Time
}

func NewHandler(records repository.OwnedRepository[model.HealthRecord], v validator.Validator) *Handler {
	return &Handler{records: records, validator: v, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	data := r.Group("/health-data")
	{
		data.GET("", h.List)
		data.POST("", h.Create)
		data.DELETE("/:id", h.Delete)
	}
}

// List returns readings newest first.
func (h *Handler) List(c *gin.Context) {
	records, err := h.records.List(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	c.JSON(http.StatusOK, model.HealthDataEnvelope{HealthData: records})
}

func (h *Handler) Create(c *gin.Context) {
	var input model.HealthRecordInput
	if !handler.BindJSON(c, &input) {
		return
	}
	if err := h.validator.Validate(input); err != nil {
		handler.Fail(c, err)
		return
	}

	uid := handler.UserID(c)
	now := h.now().UTC()
	record := model.HealthRecord{
		ID:         model.NewID(now),
		OwnerID:    uid,
		Type:       input.Type,
		Value:      input.Value,
		Unit:       input.Unit,
		Notes:      input.Notes,
		RecordedAt: now,
		CreatedAt:  now,
	}
	if input.RecordedAt != nil {
		record.RecordedAt = *input.RecordedAt
	}

	if err := h.records.Put(c.Request.Context(), uid, record); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, model.HealthRecordEnvelope{HealthRecord: record})
}

func (h *Handler) Delete(c *gin.Context) {
	err := h.records.Delete(c.Request.Context(), handler.UserID(c), c.Param("id"))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
