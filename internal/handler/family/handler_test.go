package family

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

func TestLinkDefaultsAndUnlink(t *testing.T) {
	h := NewHandler(kvstore.NewOwned[model.FamilyLink](memory.New(), kvstore.PrefixFamily), validator.New())
	h.now = func() time.Time { return handlertest.Now }
	s := handlertest.NewServer(t, h)

	var env model.FamilyLinkEnvelope
	handlertest.Decode(t, s.Do(http.MethodPost, "/family/link", model.FamilyLinkInput{
		MemberEmail:  "Ravi@Example.com",
		Relationship: "son",
	}), http.StatusOK, &env)
	assert.Equal(t, model.FamilyLinkPending, env.FamilyLink.Status)
	assert.Equal(t, model.DefaultFamilyPermissions, env.FamilyLink.Permissions)
	assert.Equal(t, "ravi@example.com", env.FamilyLink.MemberEmail)
	assert.Equal(t, handlertest.UserID, env.FamilyLink.OwnerID)

	var list model.FamilyLinksEnvelope
	handlertest.Decode(t, s.Do(http.MethodGet, "/family/links", nil), http.StatusOK, &list)
	require.Len(t, list.FamilyLinks, 1)

	handlertest.Decode(t, s.Do(http.MethodDelete, "/family/links/"+env.FamilyLink.ID, nil), http.StatusOK, nil)
	handlertest.Decode(t, s.Do(http.MethodGet, "/family/links", nil), http.StatusOK, &list)
	assert.Empty(t, list.FamilyLinks)
}

func TestLinkRequiresEmail(t *testing.T) {
	h := NewHandler(kvstore.NewOwned[model.FamilyLink](memory.New(), kvstore.PrefixFamily), validator.New())
	s := handlertest.NewServer(t, h)

	w := s.Do(http.MethodPost, "/family/link", model.FamilyLinkInput{MemberEmail: "not-an-email", Relationship: "son"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, handlertest.Error(t, w), "memberEmail must be a valid email")
}
