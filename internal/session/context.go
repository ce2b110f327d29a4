package session

import (
	"sync"

	"github.com/jwalitptl/healthplus/internal/model"
)

// Context is the single explicit holder of the active session. It is created
// once per application, filled by bootstrap and emptied by sign-out.
type Context struct {
	mu      sync.RWMutex
	current *model.Session
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Set(s *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.current = nil
		return
	}
	cp := *s
	c.current = &cp
}

// Current returns a copy of the active session, or nil.
func (c *Context) Current() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

func (c *Context) Clear() {
	c.Set(nil)
}

func (c *Context) LocalOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil && c.current.LocalOnly
}

// AccessToken is empty when no session is active.
func (c *Context) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.AccessToken
}

// OwnerID is the active identity's id, or "" with no session.
func (c *Context) OwnerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Identity.ID
}

// UpdateIdentity replaces the identity carried by the active session.
func (c *Context) UpdateIdentity(identity model.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Identity = identity
	}
}
