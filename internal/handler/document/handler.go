package document

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

// Handler stores document metadata only; file bytes never reach the backend.
type Handler struct {
	documents repository.OwnedRepository[model.Document]
	validator validator.Validator
	now       func() time.Time
}

func NewHandler(documents repository.OwnedRepository[model.Document], v validator.Validator) *Handler {
	return &Handler{documents: documents, validator: v, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	docs := r.Group("/documents")
	{
		docs.GET("", h.List)
		docs.POST("/upload", h.Upload)
		docs.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	c.JSON(http.StatusOK, model.DocumentsEnvelope{Documents: docs})
}

func (h *Handler) Upload(c *gin.Context) {
	var input model.DocumentInput
	if !handler.BindJSON(c, &input) {
		return
	}
	if err := h.validator.Validate(input); err != nil {
		handler.Fail(c, err)
		return
	}

	uid := handler.UserID(c)
	now := h.now().UTC()
	doc := model.Document{
		ID:          model.NewID(now),
		OwnerID:     uid,
		FileName:    input.FileName,
		FileType:    input.FileType,
		Category:    input.Category,
		Description: input.Description,
		Status:      model.DocumentStatusUploaded,
		UploadedAt:  now,
		CreatedAt:   now,
	}
	if err := h.documents.Put(c.Request.Context(), uid, doc); err != nil {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, model.DocumentEnvelope{Document: doc})
}

func (h *Handler) Delete(c *gin.Context) {
	err := h.documents.Delete(c.Request.Context(), handler.UserID(c), c.Param("id"))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		handler.Fail(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
