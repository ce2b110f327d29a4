package executor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags a Result.
type Kind int

const (
	KindOK Kind = iota
	KindFallback
	KindDomainError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindFallback:
		return "fallback"
	case KindDomainError:
		return "domain_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reason says why a call fell back. Callers only branch on Kind; the reason
// is for logs and metrics.
type Reason string

const (
	ReasonLocalOnly   Reason = "local_only"
	ReasonNoToken     Reason = "no_token"
	ReasonCircuitOpen Reason = "circuit_open"
	ReasonAuthFailure Reason = "auth_failure"
	ReasonServerError Reason = "server_error"
	ReasonUnreachable Reason = "unreachable"
)

// Result is Ok | Fallback | DomainError.
type Result struct {
	Kind   Kind
	Status int
	Body   []byte
	Reason Reason
	// Err is the domain error for KindDomainError, and the underlying cause
	// (if any) for KindFallback.
	Err error
}

func Ok(status int, body []byte) Result {
	return Result{Kind: KindOK, Status: status, Body: body}
}

func Fallback(reason Reason, cause error) Result {
	return Result{Kind: KindFallback, Reason: reason, Err: cause}
}

func DomainError(status int, err error) Result {
	return Result{Kind: KindDomainError, Status: status, Err: err}
}

func (r Result) IsOK() bool       { return r.Kind == KindOK }
func (r Result) IsFallback() bool { return r.Kind == KindFallback }

// ErrMalformed reports an Ok body that does not carry the expected envelope.
var ErrMalformed = errors.New("malformed response body")

// Decode unmarshals the named field of an Ok envelope into dst. An empty key
// decodes the whole body.
func Decode(r Result, key string, dst interface{}) error {
	if r.Kind != KindOK {
		return fmt.Errorf("decode %s result", r.Kind)
	}
	raw := json.RawMessage(r.Body)
	if key != "" {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(r.Body, &envelope); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		field, ok := envelope[key]
		if !ok {
			return fmt.Errorf("%w: missing %q", ErrMalformed, key)
		}
		raw = field
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
