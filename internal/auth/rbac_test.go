package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/registration-portal/internal/domain"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

func TestAuthorizeMissingPrincipal(t *testing.T) {
	err := Authorize(nil, domain.RoleFinance)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))
}

func TestAuthorizeForbiddenRole(t *testing.T) {
	principal := &Principal{SubjectID: "subject-1", Role: domain.RoleInstructor}

	err := Authorize(principal, domain.RoleFinance)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestAuthorizeAllowedRoleSet(t *testing.T) {
	principal := &Principal{SubjectID: "subject-1", Role: domain.RoleInstructor}

	assert.NoError(t, Authorize(principal, domain.RoleInstructor, domain.RoleRegistrationAdmin))
}

func TestAuthorizeEmptySetAdmitsAnyRole(t *testing.T) {
	principal := &Principal{SubjectID: "subject-1", Role: domain.RoleManagement}

	assert.NoError(t, Authorize(principal))
}
