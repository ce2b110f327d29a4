package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("update medication: %w", NotFound("medication", nil))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, "update medication: medication not found", err.Error())
}

func TestValidationKeepsCause(t *testing.T) {
	cause := stderrors.New("name is required")
	err := Validation(cause)

	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("document", nil).StatusCode())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized(nil).StatusCode())
	assert.Equal(t, http.StatusForbidden, Forbidden(nil).StatusCode())
	assert.Equal(t, http.StatusInternalServerError, Internal(stderrors.New("boom")).StatusCode())
	assert.Equal(t, ErrorCode(0), CodeOf(stderrors.New("plain")))
}
