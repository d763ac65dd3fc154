package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,is-signup-role"`
	Category string `json:"category" validate:"is-category"`
}

type listQuery struct {
	Status    string `form:"status" validate:"is-request-status"`
	Sentiment string `form:"sentiment" validate:"is-sentiment"`
	Sort      string `form:"sort" validate:"is-directory-sort"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	err := New().Validate(&signup{Email: "nope", Role: "admin", Category: "astronaut"})
	require.Error(t, err)

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Must be a valid email address", vErr.Errors["email"])
	assert.Equal(t, "Must be a valid role", vErr.Errors["role"])
	assert.Equal(t, "Must be a valid service category", vErr.Errors["category"])
}

func TestValidate_Passes(t *testing.T) {
	assert.NoError(t, New().Validate(&signup{Email: "a@b.co", Role: "professional", Category: "dj"}))
}

func TestValidate_FormNamesAndEmptyEnums(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&listQuery{}))

	err := v.Validate(&listQuery{Status: "lost", Sentiment: "angry", Sort: "random"})
	require.Error(t, err)
	vErr := err.(*ValidationError)
	assert.Len(t, vErr.Errors, 3)
	assert.Contains(t, vErr.Errors, "status")
	assert.Contains(t, vErr.Errors, "sentiment")
	assert.Contains(t, vErr.Errors, "sort")
}

func TestValidationError_MessageIsStable(t *testing.T) {
	e := &ValidationError{Errors: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "validation failed: field 'a': one; field 'b': two", e.Error())
}
