package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/registration-portal/internal/config"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

func newTestMfaService(repo *fakeChallengeRepo) *MfaService {
	return NewMfaService(config.AuthConfig{
		OtpTTLMinutes:  5,
		OtpLength:      6,
		OtpMaxAttempts: 5,
	}, repo)
}

func TestMfaIssueGeneratesNumericCode(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())

	challenge, err := svc.Issue(context.Background(), "subject-1")
	require.NoError(t, err)
	assert.Len(t, challenge.Code, 6)
	for _, r := range challenge.Code {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.WithinDuration(t, challenge.CreatedAt.Add(5*time.Minute), challenge.ExpiresAt, time.Second)
}

func TestMfaIssueSupersedesPendingChallenge(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())
	ctx := context.Background()

	first, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	if first.Code != second.Code {
		err = svc.Verify(ctx, "subject-1", first.Code)
		assert.Equal(t, apperrors.CodeOtpInvalid, apperrors.CodeOf(err))
	}
	assert.NoError(t, svc.Verify(ctx, "subject-1", second.Code))
}

func TestMfaVerifyIsSingleUse(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())
	ctx := context.Background()

	challenge, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, "subject-1", challenge.Code))

	err = svc.Verify(ctx, "subject-1", challenge.Code)
	assert.Equal(t, apperrors.CodeOtpInvalid, apperrors.CodeOf(err))
}

func TestMfaVerifyExpiredChallenge(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())
	ctx := context.Background()

	challenge, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return challenge.CreatedAt.Add(6 * time.Minute) }

	err = svc.Verify(ctx, "subject-1", challenge.Code)
	assert.Equal(t, apperrors.CodeOtpExpired, apperrors.CodeOf(err))
}

func TestMfaVerifyLockout(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())
	ctx := context.Background()

	challenge, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == challenge.Code {
		wrong = "000001"
	}

	for i := 0; i < 4; i++ {
		err = svc.Verify(ctx, "subject-1", wrong)
		assert.Equal(t, apperrors.CodeOtpInvalid, apperrors.CodeOf(err), "attempt %d", i+1)
	}
	err = svc.Verify(ctx, "subject-1", wrong)
	assert.Equal(t, apperrors.CodeOtpExhausted, apperrors.CodeOf(err))

	// The correct code is refused once the challenge is exhausted.
	err = svc.Verify(ctx, "subject-1", challenge.Code)
	assert.Equal(t, apperrors.CodeOtpExhausted, apperrors.CodeOf(err))
}

func TestMfaVerifyAfterLockoutRequiresReissue(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())
	ctx := context.Background()

	challenge, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)

	wrong := "999999"
	if wrong == challenge.Code {
		wrong = "999998"
	}
	for i := 0; i < 5; i++ {
		_ = svc.Verify(ctx, "subject-1", wrong)
	}

	fresh, err := svc.Issue(ctx, "subject-1")
	require.NoError(t, err)
	assert.NoError(t, svc.Verify(ctx, "subject-1", fresh.Code))
}

func TestMfaVerifyUnknownSubject(t *testing.T) {
	svc := newTestMfaService(newFakeChallengeRepo())

	err := svc.Verify(context.Background(), "nobody", "123456")
	assert.Equal(t, apperrors.CodeOtpInvalid, apperrors.CodeOf(err))
}
