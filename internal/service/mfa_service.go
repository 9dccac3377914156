package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/registration-portal/internal/config"
	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/repository"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

// MfaService issues and validates one-time passcodes. Challenge state is
// judged lazily against the wall clock at verification time; expired rows
// are rejected, not swept.
type MfaService struct {
	challenges  repository.ChallengeRepository
	ttl         time.Duration
	codeLength  int
	maxAttempts int
	now         func() time.Time
}

// NewMfaService builds the service from auth configuration.
func NewMfaService(cfg config.AuthConfig, challenges repository.ChallengeRepository) *MfaService {
	ttl := cfg.OtpTTL()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	codeLength := cfg.OtpLength
	if codeLength <= 0 {
		codeLength = 6
	}
	maxAttempts := cfg.OtpMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &MfaService{
		challenges:  challenges,
		ttl:         ttl,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue creates a fresh challenge for the subject. Any pre-existing pending
// challenge is superseded wholesale by the repository upsert, so at most
// one challenge is live per subject even under concurrent logins.
func (s *MfaService) Issue(ctx context.Context, subjectID string) (*domain.MfaChallenge, error) {
	code, err := generateNumericCode(s.codeLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	challenge := &domain.MfaChallenge{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.challenges.Put(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Verify checks a submitted code against the subject's live challenge.
// Terminal states are checked before the code comparison, so a correct
// code against an exhausted or expired challenge still fails. Success is
// single-use: the consumed flag flips atomically and replays fail.
func (s *MfaService) Verify(ctx context.Context, subjectID, submittedCode string) error {
	challenge, err := s.challenges.GetBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewOtpInvalid()
		}
		return err
	}

	switch challenge.StateAt(s.now(), s.maxAttempts) {
	case domain.ChallengeConsumed:
		return apperrors.NewOtpInvalid()
	case domain.ChallengeExhausted:
		return apperrors.NewOtpExhausted()
	case domain.ChallengeExpired:
		return apperrors.NewOtpExpired()
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(submittedCode)) != 1 {
		attempts, err := s.challenges.IncrementAttempts(ctx, challenge.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if attempts >= s.maxAttempts {
			return apperrors.NewOtpExhausted()
		}
		return apperrors.NewOtpInvalid()
	}

	consumed, err := s.challenges.MarkConsumed(ctx, challenge.ID)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost the race to a concurrent verification of the same code.
		return apperrors.NewOtpInvalid()
	}
	return nil
}

// MaxAttempts exposes the lockout threshold for callers classifying outcomes.
func (s *MfaService) MaxAttempts() int {
	return s.maxAttempts
}

// generateNumericCode draws each digit from crypto/rand.
func generateNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
