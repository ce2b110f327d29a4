// Package executor wraps every call to the remote backend. A call either
// succeeds, resolves to a domain error, or resolves to a fallback sentinel
// telling the caller to use the local store; it never panics and never retries.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jwalitptl/healthplus/internal/session"
	"github.com/jwalitptl/healthplus/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/metrics"
)

const (
	EndpointHealth = "/health"
	EndpointSignup = "/auth/signup"

	DefaultTimeout = 5 * time.Second
)

type Config struct {
	BaseURL string
	AnonKey string
	// Timeout bounds each call; expiry counts as unreachable.
	Timeout time.Duration
}

type Request struct {
	Method   string
	Endpoint string
	Body     interface{}

	// Target marks a call addressed to one record by id. Only then does a
	// 404 mean the record is missing; elsewhere it is a server fault.
	Target bool
}

// OnTarget marks r as addressed to a single record.
func (r Request) OnTarget() Request {
	r.Target = true
	return r
}

func Get(endpoint string) Request {
	return Request{Method: http.MethodGet, Endpoint: endpoint}
}

func Post(endpoint string, body interface{}) Request {
	return Request{Method: http.MethodPost, Endpoint: endpoint, Body: body}
}

func Put(endpoint string, body interface{}) Request {
	return Request{Method: http.MethodPut, Endpoint: endpoint, Body: body}
}

func Delete(endpoint string) Request {
	return Request{Method: http.MethodDelete, Endpoint: endpoint}
}

type Executor struct {
	http    *resty.Client
	session *session.Context
	anonKey string
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     *logger.Logger
}

type Option func(*Executor)

// WithBreaker short-circuits calls to fallback while the backend keeps failing.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(e *Executor) { e.breaker = cb }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l.Named("executor") }
}

func New(cfg Config, sc *session.Context, opts ...Option) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	e := &Executor{
		http:    client,
		session: sc,
		anonKey: cfg.AnonKey,
		timeout: cfg.Timeout,
		metrics: metrics.Nop(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func isPublic(endpoint string) bool {
	return endpoint == EndpointHealth || endpoint == EndpointSignup
}

// Execute runs one remote call under the fallback policy:
//  1. a local-only session never touches the network, except for /health;
//  2. public endpoints carry the anon key, all others the session token, and
//     a missing token falls back;
//  3. an open breaker falls back;
//  4. 401/403, other non-2xx and transport failures fall back. A 404 is a
//     domain error only for id-addressed calls, 400/422 only for writes.
func (e *Executor) Execute(ctx context.Context, req Request) Result {
	if e.session.LocalOnly() && req.Endpoint != EndpointHealth {
		return e.fallback(req, Fallback(ReasonLocalOnly, nil))
	}

	token := e.session.AccessToken()
	if isPublic(req.Endpoint) {
		token = e.anonKey
	}
	if token == "" {
		return e.fallback(req, Fallback(ReasonNoToken, nil))
	}

	if e.breaker != nil && !e.breaker.Allow() {
		return e.fallback(req, Fallback(ReasonCircuitOpen, circuitbreaker.ErrOpen))
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	r := e.http.R().
		SetContext(callCtx).
		SetAuthToken(token)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Endpoint)
	e.metrics.RemoteLatency.WithLabelValues(req.Endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		e.record(false)
		return e.fallback(req, Fallback(ReasonUnreachable, err))
	}

	status := resp.StatusCode()
	result := classify(req, status, resp.Body())
	e.record(status < http.StatusInternalServerError)

	if result.IsFallback() {
		return e.fallback(req, result)
	}
	e.metrics.RemoteCalls.WithLabelValues(req.Endpoint, result.Kind.String()).Inc()
	return result
}

func classify(req Request, status int, body []byte) Result {
	switch {
	case status >= 200 && status < 300:
		return Ok(status, body)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Fallback(ReasonAuthFailure, fmt.Errorf("status %d", status))
	case status == http.StatusNotFound && req.Target:
		return DomainError(status, apperrors.NotFound("resource", errors.New(errorMessage(body))))
	case (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) && req.Method != http.MethodGet:
		return DomainError(status, apperrors.Validation(errors.New(errorMessage(body))))
	default:
		return Fallback(ReasonServerError, fmt.Errorf("status %d: %s", status, errorMessage(body)))
	}
}

// errorMessage extracts {"error": "..."} when present.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func (e *Executor) record(success bool) {
	if e.breaker != nil {
		e.breaker.Record(success)
	}
}

func (e *Executor) fallback(req Request, r Result) Result {
	e.metrics.RemoteCalls.WithLabelValues(req.Endpoint, r.Kind.String()).Inc()
	e.metrics.Fallbacks.WithLabelValues(string(r.Reason)).Inc()

	if r.Reason == ReasonLocalOnly {
		e.log.Debug("local-only session, using local store", "endpoint", req.Endpoint)
		return r
	}
	cause := ""
	if r.Err != nil {
		cause = r.Err.Error()
	}
	e.log.Info("remote call fell back to local store",
		"method", req.Method,
		"endpoint", req.Endpoint,
		"reason", string(r.Reason),
		"cause", cause,
	)
	return r
}
