package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func TestCustomValidator(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&sample{Email: "ana@velure.dev", Password: "secret1"}))

	err := v.Validate(&sample{Email: "nope", Password: "short"})
	require.Error(t, err)

	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "email: email; password: min=6", Describe(errs))
}
