package medication

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthplus/internal/adherence"
	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

type Handler struct {
	medications repository.OwnedRepository[model.Medication]
	events      repository.OwnedRepository[model.DoseEvent]
	validator   validator.Validator
	log         *logger.Logger
	now         func() time.Time
}

func NewHandler(
	medications repository.OwnedRepository[model.Medication],
	events repository.OwnedRepository[model.DoseEvent],
	v validator.Validator,
	log *logger.Logger,
) *Handler {
	return &Handler{
		medications: medications,
		events:      events,
		validator:   v,
		log:         log.Named("medications"),
		now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	meds := r.Group("/medications")
	{
		meds.GET("", h.List)
		meds.POST("", h.Create)
		meds.PUT("/:id", h.Update)
		meds.DELETE("/:id", h.Delete)
		meds.POST("/:id/take", h.Take)
	}
}

// List returns the caller's medications, next dose first.
func (h *Handler) List(c *gin.Context) {
	meds, err := h.medications.List(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}

	sort.SliceStable(meds, func(i, j int) bool {
		return meds[i].NextDoseAt.Before(meds[j].NextDoseAt)
	})
	c.JSON(http.StatusOK, model.MedicationsEnvelope{Medications: meds})
}

// Create starts every medication at full adherence.
func (h *Handler) Create(c *gin.Context) {
	var input model.MedicationInput
	if !handler.BindJSON(c, &input) {
		return
	}
	if err := h.validator.Validate(input); err != nil {
		handler.Fail(c, err)
		return
	}

	uid := handler.UserID(c)
	now := h.now().UTC()
	med := model.Medication{
		ID:         model.NewID(now),
		Name:       input.Name,
		Dosage:     input.Dosage,
		Frequency:  input.Frequency,
		NextDoseAt: input.NextDoseAt,
		Adherence:  adherence.Max,
		PillCount:  input.PillCount,
		Notes:      input.Notes,
		OwnerID:    uid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.medications.Put(c.Request.Context(), uid, med); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}

	h.log.Info("medication added", "user_id", uid, "medication_id", med.ID)
	c.JSON(http.StatusOK, model.MedicationEnvelope{Medication: med})
}

func (h *Handler) Update(c *gin.Context) {
	var patch model.MedicationPatch
	if !handler.BindJSON(c, &patch) {
		return
	}
	if err := h.validator.Validate(patch); err != nil {
		handler.Fail(c, err)
		return
	}

	med, ok := h.get(c)
	if !ok {
		return
	}
	patch.Apply(med, h.now().UTC())
	if err := h.medications.Put(c.Request.Context(), med.OwnerID, *med); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, model.MedicationEnvelope{Medication: *med})
}

// Delete succeeds for ids that are already gone.
func (h *Handler) Delete(c *gin.Context) {
	err := h.medications.Delete(c.Request.Context(), handler.UserID(c), c.Param("id"))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Take records a dose event and moves the medication's adherence score.
func (h *Handler) Take(c *gin.Context) {
	var req model.TakeRequest
	if c.Request.ContentLength != 0 && !handler.BindJSON(c, &req) {
		return
	}

	med, ok := h.get(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	uid := med.OwnerID
	now := h.now().UTC()
	takenAt := req.Timestamp
	if takenAt.IsZero() {
		takenAt = now
	}
	event := model.DoseEvent{
		ID:               model.NewID(now),
		MedicationID:     med.ID,
		OwnerID:          uid,
		TakenAt:          takenAt,
		Verified:         len(req.VerificationData) > 0,
		VerificationData: req.VerificationData,
	}
	if err := h.events.Put(ctx, uid, event); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}

	events, err := h.events.List(ctx, uid)
	if err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	summary := adherence.Summarize(events, med.ID)

	med.Adherence = adherence.Next(med.Adherence, summary.Count)
	if med.PillCount > 0 {
		med.PillCount--
	}
	med.LastTakenAt = &takenAt
	med.UpdatedAt = now
	if err := h.medications.Put(ctx, uid, *med); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}

	h.log.Info("dose recorded", "user_id", uid, "medication_id", med.ID, "adherence", med.Adherence)
	c.JSON(http.StatusOK, model.TakeEnvelope{
		Success:         true,
		AdherenceRecord: event,
		NewAdherence:    med.Adherence,
	})
}

func (h *Handler) get(c *gin.Context) (*model.Medication, bool) {
	med, err := h.medications.Get(c.Request.Context(), handler.UserID(c), c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		handler.Fail(c, apperrors.NotFound("medication", err))
		return nil, false
	case err != nil:
		handler.Fail(c, apperrors.Internal(err))
		return nil, false
	}
	return med, true
}
