package domain

import "time"

// ChallengeState captures the MFA state machine:
// NONE -> PENDING -> {CONSUMED | EXPIRED | EXHAUSTED}.
type ChallengeState string

const (
	ChallengePending   ChallengeState = "PENDING"
	ChallengeConsumed  ChallengeState = "CONSUMED"
	ChallengeExpired   ChallengeState = "EXPIRED"
	ChallengeExhausted ChallengeState = "EXHAUSTED"
)

// MfaChallenge is the short-lived one-time-passcode record issued after a
// successful password check. At most one exists per subject; issuing a new
// one supersedes the old.
type MfaChallenge struct {
	ID           string
	SubjectID    string
	Code         string
	AttemptCount int
	Consumed     bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// StateAt derives the challenge state lazily from the wall clock; there is
// no background sweep, stale rows are rejected at verification time.
func (c *MfaChallenge) StateAt(now time.Time, maxAttempts int) ChallengeState {
	switch {
	case c.Consumed:
		return ChallengeConsumed
	case c.AttemptCount >= maxAttempts:
		return ChallengeExhausted
	case now.After(c.ExpiresAt):
		return ChallengeExpired
	}
	return ChallengePending
}
