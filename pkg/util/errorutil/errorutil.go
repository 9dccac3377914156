package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for the authentication and data-protection flows. Credential
// and OTP failures share deliberately generic outward messages; the code is
// preserved for logging and metrics only.
const (
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeOtpInvalid        = "OTP_INVALID"
	CodeOtpExpired        = "OTP_EXPIRED"
	CodeOtpExhausted      = "OTP_EXHAUSTED"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeTokenInvalid      = "TOKEN_INVALID"
	CodeDecryptionError   = "DECRYPTION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewInvalidCredential reports a failed password check. The message never
// identifies which of username, role, or password was wrong.
func NewInvalidCredential() error {
	return NewDomainError(CodeInvalidCredential, "invalid credentials", http.StatusUnauthorized, nil)
}

// NewOtpInvalid covers wrong codes and replays against consumed challenges.
func NewOtpInvalid() error {
	return NewDomainError(CodeOtpInvalid, "invalid or expired code", http.StatusUnauthorized, nil)
}

func NewOtpExpired() error {
	return NewDomainError(CodeOtpExpired, "invalid or expired code", http.StatusUnauthorized, nil)
}

func NewOtpExhausted() error {
	return NewDomainError(CodeOtpExhausted, "invalid or expired code", http.StatusUnauthorized, nil)
}

func NewTokenExpired() error {
	return NewDomainError(CodeTokenExpired, "token expired", http.StatusUnauthorized, nil)
}

func NewTokenInvalid() error {
	return NewDomainError(CodeTokenInvalid, "invalid token", http.StatusUnauthorized, nil)
}

// NewDecryptionError indicates corrupt stored data or a key mismatch. It is
// surfaced to operators through logs only; clients see a generic 500.
func NewDecryptionError(err error) error {
	return &DomainError{
		Code:       CodeDecryptionError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf extracts the domain error code from err, or empty string.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	// pgx.ErrNoRows is a standalone error; it does not wrap sql.ErrNoRows.
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
