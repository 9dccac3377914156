package domain

import "time"

// LoginOutcome is the terminal result of an MFA verification attempt.
type LoginOutcome string

const (
	LoginOutcomeSuccess   LoginOutcome = "SUCCESS"
	LoginOutcomeExpired   LoginOutcome = "OTP_EXPIRED"
	LoginOutcomeExhausted LoginOutcome = "OTP_EXHAUSTED"
)

// LoginHistoryEntry is an append-only audit fingerprint of a completed
// authentication attempt. Entries are never mutated after creation.
type LoginHistoryEntry struct {
	ID        string
	SubjectID string
	IP        string
	UserAgent string
	Outcome   LoginOutcome
	CreatedAt time.Time
}
