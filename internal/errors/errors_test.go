package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", Wrap(ErrDuplicateEmail, errors.New("unique constraint")))

	assert.ErrorIs(t, wrapped, ErrDuplicateEmail)
	assert.NotErrorIs(t, wrapped, ErrInvalidInput)

	var appErr *AppError
	if assert.True(t, errors.As(wrapped, &appErr)) {
		assert.Equal(t, "User already exists", appErr.Message)
		assert.EqualError(t, appErr.Internal, "unique constraint")
	}
}

func TestAppError_SentinelCodesAreDistinct(t *testing.T) {
	sentinels := []*AppError{
		ErrUnauthorized, ErrInvalidCredentials, ErrTokenInvalid, ErrTokenExpired, ErrOAuthInvalid, ErrInvalidAPIKey,
		ErrInvalidInput, ErrNotFound, ErrInternalServer,
		ErrUserNotFound, ErrDuplicateEmail, ErrAlreadyVerified, ErrInvalidOrExpiredToken, ErrEmailDelivery, ErrMissingPasswordHash,
		ErrPackageNotFound, ErrUnknownTier, ErrSubscriptionNotFound,
	}

	seen := make(map[string]bool, len(sentinels))
	for _, e := range sentinels {
		assert.False(t, seen[e.Code], "duplicate code %s", e.Code)
		seen[e.Code] = true
	}
}

func TestUnknownTierIsNotPackageNotFound(t *testing.T) {
	assert.NotErrorIs(t, ErrUnknownTier, ErrPackageNotFound)
	assert.NotErrorIs(t, Wrap(ErrPackageNotFound, errors.New("catalog empty")), ErrUnknownTier)
	assert.Equal(t, http.StatusNotFound, ErrUnknownTier.StatusCode)
	assert.Equal(t, http.StatusInternalServerError, ErrPackageNotFound.StatusCode)
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "password must be at most 72 bytes")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "password must be at most 72 bytes", err.Error())
}
