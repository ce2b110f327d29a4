package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/service/servicetest"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

func seedIdentity(t *testing.T, env *servicetest.Env) model.Identity {
	t.Helper()
	ctx := context.Background()
	identity := model.Identity{ID: "demo-user", Email: "demo@healthcare.plus", Name: "Demo Patient", Role: model.RolePatient, Language: "en"}
	require.NoError(t, env.Store.Identity().SaveIdentity(ctx, &identity))
	require.NoError(t, env.Store.Identity().SaveSession(ctx, &model.Session{AccessToken: model.LocalSessionToken, Identity: identity}))
	return identity
}

func TestUpdate_LocalUpdatesIdentityAndSession(t *testing.T) {
	env := servicetest.NewEnv(nil)
	seedIdentity(t, env)
	svc := NewService(env.Deps, env.Store.Identity())
	ctx := context.Background()

	name, lang := "Asha Patel", "hi"
	updated, err := svc.Update(ctx, model.ProfilePatch{Name: &name, Language: &lang})
	require.NoError(t, err)
	assert.Equal(t, "Asha Patel", updated.Name)
	assert.Equal(t, "demo@healthcare.plus", updated.Email)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Language)

	sess, err := env.Store.Identity().GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha Patel", sess.Identity.Name)
	assert.Equal(t, "Asha Patel", env.Session.Current().Identity.Name)
}

func TestUpdate_RejectsLanguage(t *testing.T) {
	env := servicetest.NewEnv(nil)
	seedIdentity(t, env)
	svc := NewService(env.Deps, env.Store.Identity())

	lang := "fr"
	_, err := svc.Update(context.Background(), model.ProfilePatch{Language: &lang})
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdate_NoIdentityIsNotFound(t *testing.T) {
	env := servicetest.NewEnv(nil)
	svc := NewService(env.Deps, env.Store.Identity())

	name := "x"
	_, err := svc.Update(context.Background(), model.ProfilePatch{Name: &name})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGet_Remote(t *testing.T) {
	ex := servicetest.Always(servicetest.JSON(model.ProfileEnvelope{Profile: model.Identity{ID: "u1", Name: "Remote"}}))
	env := servicetest.NewEnv(ex)
	svc := NewService(env.Deps, env.Store.Identity())

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Remote", got.Name)
}
