package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

type AuthClientConfig struct {
	BaseURL string
	AnonKey string
	Timeout time.Duration
}

// AuthClient is the HTTP AuthProvider for the backend's /auth endpoints.
// The remote session lives in memory for the process lifetime.
type AuthClient struct {
	http    *resty.Client
	anonKey string
	log     *logger.Logger
	now     func() time.Time

	mu        sync.Mutex
	session   *model.Session
	expiresAt time.Time
}

var _ AuthProvider = (*AuthClient)(nil)

func NewAuthClient(cfg AuthClientConfig, log *logger.Logger) *AuthClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &AuthClient{
		http:    client,
		anonKey: cfg.AnonKey,
		log:     log.Named("auth-client"),
		now:     time.Now,
	}
}

func (c *AuthClient) GetSession(_ context.Context) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, nil
	}
	if !c.expiresAt.IsZero() && !c.now().Before(c.expiresAt) {
		c.session = nil
		return nil, nil
	}
	cp := *c.session
	return &cp, nil
}

func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	var tokens model.TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.anonKey).
		SetBody(model.TokenRequest{Email: email, Password: password}).
		SetResult(&tokens).
		Post("/auth/token")
	if err != nil {
		return nil, fmt.Errorf("failed to call auth provider: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusBadRequest:
		return nil, model.ErrInvalidCredentials
	case resp.IsError():
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode())
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("auth provider returned no access token")
	}

	s := &model.Session{AccessToken: tokens.AccessToken, Identity: tokens.User}

	c.mu.Lock()
	c.session = s
	c.expiresAt = time.Time{}
	if tokens.ExpiresIn > 0 {
		c.expiresAt = c.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}
	c.mu.Unlock()

	c.log.Info("signed in", "user_id", s.Identity.ID)
	cp := *s
	return &cp, nil
}

// SignOut always forgets the local copy of the session; the returned error only
// reports whether the backend acknowledged the revocation.
func (c *AuthClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	if s == nil {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(s.AccessToken).
		Post("/auth/logout")
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return fmt.Errorf("auth provider returned status %d on logout", resp.StatusCode())
	}
	return nil
}
