package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeStorage      ErrorCode = "STORAGE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrAccountNotFound      = NewError(ErrCodeNotFound, "account not found")
	ErrTaskNotFound         = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound      = NewError(ErrCodeNotFound, "session not found")
	ErrInvalidCredentials   = NewError(ErrCodeUnauthorized, "email or password is incorrect")
	ErrNoAccountsRegistered = NewError(ErrCodeUnauthorized, "no accounts registered on this device")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidFormat        = NewError(ErrCodeInvalid, "imported document has no tasks array")
	ErrNoHistory            = NewError(ErrCodeNotFound, "no profile history to restore")
	ErrVersionNotFound      = NewError(ErrCodeNotFound, "profile history version not found")
	ErrResetTokenInvalid    = NewError(ErrCodeInvalid, "password reset token is invalid")
	ErrResetTokenExpired    = NewError(ErrCodeInvalid, "password reset token has expired")
	ErrStorageUnavailable   = NewError(ErrCodeStorage, "durable store unavailable")
	ErrStorageWriteFailed   = NewError(ErrCodeStorage, "durable store write failed")
)

// NewValidationError reports a violated registration or profile rule.
func NewValidationError(message string) *Error {
	return NewError(ErrCodeInvalid, message)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
