package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_OrNil(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("title", "too short")
	err := v.OrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title: too short")
}

func TestValidationError_ErrorIsSorted(t *testing.T) {
	v := NewValidationError()
	v.Add("year", "out of range")
	v.Add("author", "required")
	v.Add("author", "too short")

	assert.Equal(t, "validation failed: author: required, too short; year: out of range", v.Error())
}

func TestIsValidation_Wrapped(t *testing.T) {
	err := fmt.Errorf("create book: %w", Invalid("status", "unknown status"))

	v, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"unknown status"}, v.Fields["status"])

	_, ok = IsValidation(errors.New("boom"))
	assert.False(t, ok)
}

func TestConflict_UnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("create genre: %w", Conflict("name", "genre already exists"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "name", fe.Field)
}
