package services

import (
	"errors"
	"fmt"
)

// Conversation errors. Handlers map these onto HTTP statuses.
var (
	ErrValidation         = errors.New("input validation failed") // Generic validation error
	ErrModerationRejected = errors.New("message rejected by moderation")
	ErrMessageTooLong     = errors.New("message too long")
	ErrBackendUnavailable = errors.New("completion backend unavailable")
	ErrStorage            = errors.New("storage failure")
)

// Account errors.
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrNotVerified        = errors.New("email not verified")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrSendingMail        = errors.New("failed to send OTP email")
)

// Guest and feedback errors.
var (
	ErrGuestNotFound    = errors.New("guest not found")
	ErrFeedbackTooShort = errors.New("feedback is too short")
	ErrFeedbackExists   = errors.New("feedback already submitted")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
