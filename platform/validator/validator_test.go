package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contact struct {
	Email string `validate:"required,email"`
	Phone string `validate:"omitempty,phone"`
}

func TestFieldErrors(t *testing.T) {
	v := New()

	err := v.Struct(contact{Email: "nope", Phone: "12"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "email", fields["Email"])
	assert.Equal(t, "phone", fields["Phone"])
}

type request struct {
	ClientEmail string `json:"clientEmail" validate:"required,email"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	err := New().Struct(request{ClientEmail: "x"})
	assert.Equal(t, map[string]string{"clientEmail": "email"}, FieldErrors(err))
}

func TestPhoneRuleAcceptsFrenchNumbers(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(contact{Email: "a@b.fr", Phone: "06 12 34 56 78"}))
	assert.Nil(t, FieldErrors(assert.AnError))
}
