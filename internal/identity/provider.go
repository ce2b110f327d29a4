// Package identity is the backend's account provider: user creation, password
// sign-in, bearer token verification and sign-out.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/pkg/auth"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/security"
)

const identityCacheTTL = 5 * time.Minute

// Principal is the verified caller behind a bearer token.
type Principal struct {
	Identity model.Identity
	TokenID  string
}

type Provider struct {
	users   repository.UserRepository
	tokens  repository.TokenRepository
	jwt     auth.TokenService
	hasher  security.PasswordHasher
	anonKey string
	cache   *cache.Cache
	log     *logger.Logger
	now     func() time.Time
}

type Config struct {
	AnonKey string
	Users   repository.UserRepository
	Tokens  repository.TokenRepository
	JWT     auth.TokenService
	Hasher  security.PasswordHasher
	Logger  *logger.Logger
	Now     func() time.Time
}

func NewProvider(cfg Config) *Provider {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Hasher == nil {
		cfg.Hasher = security.NewBcryptHasher(0)
	}
	return &Provider{
		users:   cfg.Users,
		tokens:  cfg.Tokens,
		jwt:     cfg.JWT,
		hasher:  cfg.Hasher,
		anonKey: cfg.AnonKey,
		cache:   cache.New(identityCacheTTL, 2*identityCacheTTL),
		log:     cfg.Logger.Named("identity"),
		now:     cfg.Now,
	}
}

// IsAnonKey reports whether key is the public anon key. An unset anon key
// accepts nothing.
func (p *Provider) IsAnonKey(key string) bool {
	if p.anonKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(p.anonKey)) == 1
}

// CreateUser registers a confirmed account.
func (p *Provider) CreateUser(ctx context.Context, in model.SignUpInput) (*model.Identity, error) {
	hash, err := p.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation(err)
		}
		return nil, apperrors.Internal(err)
	}

	language := in.Language
	if language == "" {
		language = "en"
	}
	now := p.now().UTC()
	identity := model.Identity{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Name:      in.Name,
		Role:      in.Role,
		Phone:     in.Phone,
		Age:       in.Age,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = p.users.Create(ctx, repository.UserRecord{Identity: identity, PasswordHash: hash})
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		return nil, apperrors.BadRequest(model.ErrEmailTaken.Error(), err)
	case err != nil:
		return nil, apperrors.Internal(err)
	}

	p.log.Info("user created", "user_id", identity.ID, "role", string(identity.Role))
	return &identity, nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	record, err := p.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	case err != nil:
		return nil, apperrors.Internal(err)
	}

	if err := p.hasher.Compare(record.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	token, _, err := p.jwt.Issue(record.Identity)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	p.cache.SetDefault(record.Identity.ID, record.Identity)

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(p.jwt.Expiry() / time.Second),
		User:        record.Identity,
	}, nil
}

// GetUser resolves a bearer token. Invalid, expired and revoked tokens all
// yield an Unauthorized error.
func (p *Provider) GetUser(ctx context.Context, token string) (*Principal, error) {
	claims, err := p.jwt.Parse(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	revoked, err := p.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.Unauthorized(model.ErrInvalidToken)
	}

	if cached, ok := p.cache.Get(claims.UserID); ok {
		return &Principal{Identity: cached.(model.Identity), TokenID: claims.ID}, nil
	}

	identity, err := p.users.GetByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Unauthorized(model.ErrInvalidToken)
	case err != nil:
		return nil, apperrors.Internal(err)
	}
	p.cache.SetDefault(identity.ID, *identity)
	return &Principal{Identity: *identity, TokenID: claims.ID}, nil
}

// Profile returns the stored identity of userID.
func (p *Provider) Profile(ctx context.Context, userID string) (*model.Identity, error) {
	identity, err := p.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NotFound("profile", err)
	case err != nil:
		return nil, apperrors.Internal(err)
	}
	return identity, nil
}

// UpdateProfile applies patch to the caller's stored identity.
func (p *Provider) UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Identity, error) {
	identity, err := p.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch.Apply(identity, p.now().UTC())
	if err := p.users.UpdateProfile(ctx, *identity); err != nil {
		return nil, apperrors.Internal(err)
	}
	p.cache.SetDefault(identity.ID, *identity)
	return identity, nil
}

// SignOut revokes the token. Revoking an invalid token is a no-op.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.jwt.Parse(token)
	if err != nil {
		return nil
	}
	if err := p.tokens.Revoke(ctx, claims.ID); err != nil {
		return apperrors.Internal(err)
	}
	p.log.Debug("token revoked", "user_id", claims.UserID)
	return nil
}
