package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestCredentialAndOtpFailuresShareGenericMessages(t *testing.T) {
	assert.Equal(t, "invalid credentials", NewInvalidCredential().Error())

	// A caller cannot distinguish the OTP failure kinds from the message.
	assert.Equal(t, NewOtpInvalid().Error(), NewOtpExpired().Error())
	assert.Equal(t, NewOtpInvalid().Error(), NewOtpExhausted().Error())
}

func TestConstructorsCarryDistinctCodes(t *testing.T) {
	cases := map[string]error{
		CodeInvalidCredential: NewInvalidCredential(),
		CodeOtpInvalid:        NewOtpInvalid(),
		CodeOtpExpired:        NewOtpExpired(),
		CodeOtpExhausted:      NewOtpExhausted(),
		CodeTokenExpired:      NewTokenExpired(),
		CodeTokenInvalid:      NewTokenInvalid(),
		CodeUnauthorized:      NewUnauthorized("x"),
		CodeForbidden:         NewForbidden("x"),
		CodeDecryptionError:   NewDecryptionError(errors.New("bad tag")),
	}
	for code, err := range cases {
		assert.Equal(t, code, CodeOf(err))
	}
}

func TestDecryptionErrorHidesDetailFromClients(t *testing.T) {
	err := NewDecryptionError(errors.New("cipher: message authentication failed"))
	domainErr := ToDomainError(err)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.Equal(t, "internal server error", domainErr.Message)
	// The cause survives for operator logs.
	assert.ErrorContains(t, domainErr.Err, "authentication failed")
}

func TestCodeOfUnwrapsNestedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewForbidden("nope"))
	assert.Equal(t, CodeForbidden, CodeOf(wrapped))
	assert.Empty(t, CodeOf(errors.New("plain")))
}

func TestToDomainErrorMapsUnknowns(t *testing.T) {
	domainErr := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)

	notFound := ToDomainError(sql.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", notFound.Code)

	assert.Nil(t, ToDomainError(nil))
}

// pgx returns its own ErrNoRows, which does not wrap sql.ErrNoRows; a
// repository miss must still surface as 404, not 500.
func TestToDomainErrorMapsPgxNoRows(t *testing.T) {
	notFound := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	wrapped := ToDomainError(fmt.Errorf("registration lookup: %w", pgx.ErrNoRows))
	assert.Equal(t, "NOT_FOUND", wrapped.Code)
}
