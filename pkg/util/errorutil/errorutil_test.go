package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrappedDomainError(t *testing.T) {
	original := NewAlreadyProcessed("Application has already been processed")
	wrapped := fmt.Errorf("approve: %w", original)

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeAlreadyProcessed, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
}

func TestToDomainError_MapsNoRowsToNotFound(t *testing.T) {
	got := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestToDomainError_HidesUnexpectedCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	got := ToDomainError(cause)

	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestToDomainError_FiberErrors(t *testing.T) {
	cases := map[int]string{
		http.StatusNotFound:        CodeNotFound,
		http.StatusForbidden:       CodeForbidden,
		http.StatusUnauthorized:    CodeUnauthorized,
		http.StatusTooManyRequests: CodeTooManyRequests,
		http.StatusBadRequest:      CodeValidation,
		http.StatusBadGateway:      CodeInternal,
	}
	for status, code := range cases {
		got := ToDomainError(fiber.NewError(status, "boom"))
		assert.Equal(t, code, got.Code, "status %d", status)
	}
}

func TestNewValidationError_UsesFirstFieldMessage(t *testing.T) {
	err := NewValidationError("", []FieldError{
		{Field: "contact", Message: "Contact number must be exactly 10 digits"},
		{Field: "email", Message: "Please enter a valid email address"},
	})

	got := ToDomainError(err)
	assert.Equal(t, "Contact number must be exactly 10 digits", got.Message)
	assert.Len(t, got.Fields, 2)
	assert.True(t, IsCode(err, CodeValidation))
	assert.False(t, IsCode(err, CodeNotFound))
}
