package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  NotFound("NOT_FOUND", "line not found"),
			want: "NOT_FOUND: line not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), KindInternal, "DB_ERROR", "database failure"),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, KindInternal, "CODE", "msg")

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsMatchesKindSentinels(t *testing.T) {
	wrapped := fmt.Errorf("submitting: %w", ErrForbiddenf("cancel progress"))

	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.True(t, errors.Is(ErrCrossProjectf("stage", "s1"), ErrInconsistent))
	assert.True(t, errors.Is(ErrNotFoundf("work", "w1"), ErrNotFound))
}

func TestIsAppError(t *testing.T) {
	appErr := Validation(CodeValidationFailed, "bad input")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeValidationFailed, got.Code)

	_, ok = IsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestErrExceedsRemainingCapacity_CarriesBoundary(t *testing.T) {
	err := ErrExceedsRemainingCapacityf(37.5)

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, 37.5, err.Params["max_registrable"])
	assert.Contains(t, err.Message, "37.50%")
	assert.True(t, HasCode(err, CodeExceedsRemainingCapacity))
	assert.True(t, IsKind(err, KindValidation))
}

func TestWithParams_EmptyKeepsNil(t *testing.T) {
	err := Validation("X", "y").WithParams(nil)
	assert.Nil(t, err.Params)

	var nilErr *AppError
	assert.Nil(t, nilErr.WithParams(map[string]interface{}{"a": 1}))
}

func TestWithFieldErrors(t *testing.T) {
	err := Validation(CodeValidationFailed, "invalid").WithFieldErrors([]FieldError{
		{Field: "PercentDelta", Code: "lte"},
	})
	require.Len(t, err.FieldErrors, 1)
	assert.Equal(t, "PercentDelta", err.FieldErrors[0].Field)
}
