package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/repository"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectID string
	Role      domain.Role
	User      *domain.User
	TokenID   string
	ExpiresAt time.Time
	RawToken  string
}

// Denylist reports whether a token id has been revoked before its natural
// expiry. A nil Denylist disables revocation checks.
type Denylist interface {
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// Middleware validates bearer tokens, consults the revocation denylist, and
// loads the principal for downstream role gates.
type Middleware struct {
	tokens   *TokenManager
	users    repository.UserRepository
	denylist Denylist
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository, denylist Denylist) *Middleware {
	return &Middleware{tokens: tokens, users: users, denylist: denylist}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.Verify(raw)
	if err != nil {
		return err
	}

	if m.denylist != nil && claims.ID != "" {
		revoked, err := m.denylist.Contains(c.Context(), claims.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if revoked {
			return apperrors.NewTokenInvalid()
		}
	}

	user, err := m.users.GetByID(c.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("unknown subject")
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return apperrors.NewUnauthorized("account deactivated")
	}

	principal := &Principal{
		SubjectID: claims.SubjectID,
		Role:      claims.Role,
		User:      user,
		TokenID:   claims.ID,
		RawToken:  raw,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}
