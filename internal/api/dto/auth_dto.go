package dto

import "time"

// LoginRequest is step one of the two-step flow.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse acknowledges the password check and demands an OTP.
type LoginResponse struct {
	MfaRequired bool   `json:"mfa_required"`
	UserID      string `json:"user_id"`
	ChallengeID string `json:"challenge_id"`
	EmailMasked string `json:"email_masked"`
	// DevOtp is populated only when the dev echo affordance is enabled.
	DevOtp string `json:"dev_otp,omitempty"`
}

// VerifyOtpRequest is step two.
type VerifyOtpRequest struct {
	UserID string `json:"user_id"`
	Otp    string `json:"otp"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public shape of an identity.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// CreateUserRequest provisions an operator.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// LoginHistoryEntryResponse is one audit fingerprint.
type LoginHistoryEntryResponse struct {
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}
