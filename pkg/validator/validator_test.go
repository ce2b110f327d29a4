package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=patient family doctor asha"`
	Age   int    `json:"age" validate:"omitempty,min=0,max=150"`
}

func TestValidatePasses(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(signup{Email: "a@b.co", Role: "asha", Age: 40}))
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(&signup{Email: "not-an-email", Role: "nurse"})

	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "role must be one of [patient family doctor asha]")
}
