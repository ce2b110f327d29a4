package document

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/internal/handler/handlertest"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository/kvstore"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

func TestUploadListDelete(t *testing.T) {
	h := NewHandler(kvstore.NewOwned[model.Document](memory.New(), kvstore.PrefixDocument), validator.New())
	h.now = func() time.Time { return handlertest.Now }
	s := handlertest.NewServer(t, h)

	var env model.DocumentEnvelope
	handlertest.Decode(t, s.Do(http.MethodPost, "/documents/upload", model.DocumentInput{
		FileName: "lab-report.pdf",
		FileType: "application/pdf",
		Category: "lab_results",
	}), http.StatusOK, &env)
	assert.Equal(t, model.DocumentStatusUploaded, env.Document.Status)
	assert.Equal(t, handlertest.UserID, env.Document.OwnerID)

	var list model.DocumentsEnvelope
	handlertest.Decode(t, s.Do(http.MethodGet, "/documents", nil), http.StatusOK, &list)
	require.Len(t, list.Documents, 1)

	handlertest.Decode(t, s.Do(http.MethodDelete, "/documents/"+env.Document.ID, nil), http.StatusOK, nil)
	handlertest.Decode(t, s.Do(http.MethodGet, "/documents", nil), http.StatusOK, &list)
	assert.Empty(t, list.Documents)
}

func TestUploadRejectsFileType(t *testing.T) {
	h := NewHandler(kvstore.NewOwned[model.Document](memory.New(), kvstore.PrefixDocument), validator.New())
	s := handlertest.NewServer(t, h)

	w := s.Do(http.MethodPost, "/documents/upload", model.DocumentInput{
		FileName: "notes.txt",
		FileType: "text/plain",
		Category: "other",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
