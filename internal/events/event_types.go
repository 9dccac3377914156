package events

import (
	"time"

	"github.com/spec-kit/registration-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginOtpIssued      EventType = "login_otp_issued"
	EventLoginSucceeded      EventType = "login_succeeded"
	EventLoginFailed         EventType = "login_failed"
	EventRegistrationCreated EventType = "registration_created"
)

// Event represents a domain event emitted by services. Payloads never carry
// OTP codes or decrypted PII beyond what the subscribing collaborator needs
// for delivery.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginOtpIssuedPayload carries what the delivery collaborator needs to
// send the code out-of-band.
type LoginOtpIssuedPayload struct {
	Email string      `json:"email"`
	Code  string      `json:"-"`
	Role  domain.Role `json:"role"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role      domain.Role `json:"role"`
	IP        string      `json:"ip"`
	UserAgent string      `json:"user_agent"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Outcome   domain.LoginOutcome `json:"outcome"`
	IP        string              `json:"ip"`
	UserAgent string              `json:"user_agent"`
}

// RegistrationCreatedPayload payload.
type RegistrationCreatedPayload struct {
	RegistrationID string `json:"registration_id"`
	ProgramLevel   string `json:"program_level"`
	Region         string `json:"region"`
}
