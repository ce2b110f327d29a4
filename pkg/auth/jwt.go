package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/healthplus/internal/model"
)

// TokenService issues and verifies access tokens.
type TokenService interface {
	Issue(identity model.Identity) (token string, claims *model.TokenClaims, err error)
	Parse(token string) (*model.TokenClaims, error)
	Expiry() time.Duration
}

type hmacTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTService signs HS256 tokens. Every token carries a random jti so a
// single token can be revoked.
func NewJWTService(secret string, expiry time.Duration, issuer string) TokenService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &hmacTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

func (s *hmacTokenService) Expiry() time.Duration { return s.expiry }

func (s *hmacTokenService) Issue(identity model.Identity) (string, *model.TokenClaims, error) {
	now := s.now()
	claims := &model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// Parse returns model.ErrInvalidToken for anything that is not a valid,
// unexpired token signed with this service's secret.
func (s *hmacTokenService) Parse(token string) (*model.TokenClaims, error) {
	claims := &model.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(model.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}
