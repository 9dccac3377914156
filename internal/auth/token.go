package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/registration-portal/internal/domain"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

// TokenManager issues and verifies RS256 session tokens. The private key
// stays inside the issuing process; holders of the public key can verify
// tokens without being able to mint them. Issued tokens are not stored:
// validity is purely signature plus expiry at verification time.
type TokenManager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenManager builds a manager from PEM-encoded key material.
func NewTokenManager(privateKeyPEM, publicKeyPEM []byte, ttl time.Duration) (*TokenManager, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// NewVerifier builds a verify-only manager from a public key. Issue fails.
func NewVerifier(publicKeyPEM []byte, ttl time.Duration) (*TokenManager, error) {
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	return &TokenManager{publicKey: publicKey, ttl: ttl, now: time.Now}, nil
}

// Claims describes the signed session token payload.
type Claims struct {
	SubjectID string      `json:"sub"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token binding subject and role. Any post-signing mutation
// of the claims invalidates the signature.
func (tm *TokenManager) Issue(subjectID string, role domain.Role) (string, time.Time, error) {
	if tm.privateKey == nil {
		return "", time.Time{}, errors.New("token manager has no signing key")
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(tm.privateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature integrity first, then expiry, and returns the
// bound claims. Tampered tokens fail as TokenInvalid, stale ones as
// TokenExpired.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodRS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.publicKey, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewTokenExpired()
		}
		return nil, apperrors.NewTokenInvalid()
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.NewTokenInvalid()
	}
	if _, valid := domain.ParseRole(string(claims.Role)); !valid {
		return nil, apperrors.NewTokenInvalid()
	}
	return claims, nil
}
