// Package errors provides custom error types for the ku-money API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies of a sentinel still match it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors. ErrInvalidCredentials is shared by unknown emails,
// wrong passwords and OAuth-only accounts.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials", StatusCode: http.StatusBadRequest}
	ErrTokenInvalid       = &AppError{Code: "TOKEN_INVALID", Message: "Invalid token", StatusCode: http.StatusUnauthorized}
	ErrTokenExpired       = &AppError{Code: "TOKEN_EXPIRED", Message: "Token has expired", StatusCode: http.StatusUnauthorized}
	ErrOAuthInvalid       = &AppError{Code: "OAUTH_INVALID", Message: "Google authentication failed", StatusCode: http.StatusBadRequest}
	ErrInvalidAPIKey      = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound          = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail        = &AppError{Code: "DUPLICATE_EMAIL", Message: "User already exists", StatusCode: http.StatusBadRequest}
	ErrAlreadyVerified       = &AppError{Code: "ALREADY_VERIFIED", Message: "Email already verified", StatusCode: http.StatusBadRequest}
	ErrInvalidOrExpiredToken = &AppError{Code: "INVALID_OR_EXPIRED_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusBadRequest}
	ErrEmailDelivery         = &AppError{Code: "EMAIL_DELIVERY_FAILED", Message: "Error sending verification email. Please try again later.", StatusCode: http.StatusInternalServerError}
	ErrMissingPasswordHash   = &AppError{Code: "MISSING_PASSWORD_HASH", Message: "Credential accounts require a password hash", StatusCode: http.StatusInternalServerError}
)

// Package and subscription errors. ErrPackageNotFound is a catalog
// misconfiguration; ErrUnknownTier is a client asking for a tier the catalog
// does not offer.
var (
	ErrPackageNotFound      = &AppError{Code: "PACKAGE_NOT_FOUND", Message: "Subscription package not found", StatusCode: http.StatusInternalServerError}
	ErrUnknownTier          = &AppError{Code: "UNKNOWN_TIER", Message: "Subscription package not found", StatusCode: http.StatusNotFound}
	ErrSubscriptionNotFound = &AppError{Code: "SUBSCRIPTION_NOT_FOUND", Message: "Subscription not found", StatusCode: http.StatusNotFound}
)
