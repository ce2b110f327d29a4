// Package handlertest serves a single handler through the error middleware
// with a fixed caller.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/identity"
	"github.com/jwalitptl/healthplus/internal/middleware"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

// UserID is the caller every request is made as.
const UserID = "user-1"

// Now is a fixed clock for handler tests.
var Now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type Registrar interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Server struct {
	t      *testing.T
	engine *gin.Engine
}

func NewServer(t *testing.T, h Registrar) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.ErrorHandler(logger.Nop()))
	group := engine.Group("")
	group.Use(func(c *gin.Context) {
		c.Set(handler.ContextPrincipal, &identity.Principal{
			Identity: model.Identity{ID: UserID, Email: "priya@example.com", Role: model.RolePatient},
			TokenID:  "jti-1",
		})
		c.Next()
	})
	h.RegisterRoutes(group)
	return &Server{t: t, engine: engine}
}

// Do sends body as JSON (nil sends no body) and returns the recorder.
func (s *Server) Do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the recorded body, failing the test on a bad status.
func Decode(t *testing.T, w *httptest.ResponseRecorder, status int, dst interface{}) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
	}
}

// Error returns the {"error"} message of a failed response.
func Error(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}
