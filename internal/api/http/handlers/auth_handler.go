package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-portal/internal/api/dto"
	"github.com/spec-kit/registration-portal/internal/auth"
	"github.com/spec-kit/registration-portal/internal/service"
)

// AuthHandler exposes the two-step login flow and account management.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login (step one: password check).
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" || req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "username, password, and role required")
	}

	challenge, err := h.auth.Login(c.Context(), req.Username, req.Role, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			MfaRequired: true,
			UserID:      challenge.SubjectID,
			ChallengeID: challenge.ChallengeID,
			EmailMasked: challenge.MaskedEmail,
			DevOtp:      challenge.DevOtp,
		},
	})
}

// VerifyOtp handles POST /auth/verify-otp (step two: code check).
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req dto.VerifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.UserID == "" || req.Otp == "" {
		return fiber.NewError(http.StatusBadRequest, "user_id and otp required")
	}

	meta := service.LoginMetadata{IP: c.IP(), UserAgent: c.Get("User-Agent")}
	token, expiresAt, user, err := h.auth.VerifyOtp(c.Context(), req.UserID, req.Otp, meta)
	if err != nil {
		return err
	}

	email, err := h.auth.DecryptEmail(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.UserResponse{
				ID:       user.ID,
				Username: user.Username,
				FullName: user.FullName,
				Email:    email,
				Role:     string(user.Role),
				Active:   user.Active,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// Verify handles GET /auth/verify. Reaching it means the middleware
// accepted the token.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"valid":   true,
			"subject": principal.SubjectID,
			"role":    string(principal.Role),
		},
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	email, err := h.auth.DecryptEmail(principal.User)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.UserResponse{
			ID:       principal.User.ID,
			Username: principal.User.Username,
			FullName: principal.User.FullName,
			Email:    email,
			Role:     string(principal.User.Role),
			Active:   principal.User.Active,
		},
	})
}

// Logout handles POST /auth/logout: the token is denylisted for its
// remaining lifetime.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.auth.Logout(c.Context(), principal.TokenID, principal.ExpiresAt); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// CreateUser handles POST /auth/users (registration_admin only).
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" || req.Role == "" || req.FullName == "" || req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "all fields are required")
	}

	user, err := h.auth.CreateUser(c.Context(), service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			FullName: user.FullName,
			Role:     string(user.Role),
			Active:   user.Active,
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "current and new password required")
	}

	if err := h.auth.ChangePassword(c.Context(), principal.SubjectID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	// The response never reveals whether the email exists; the token is
	// delivered out-of-band.
	_, _ = h.auth.RequestPasswordReset(c.Context(), req.Email)
	return c.JSON(fiber.Map{"data": fiber.Map{"requested": true}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "token and new password required")
	}

	if err := h.auth.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

// LoginHistory handles GET /auth/me/logins.
func (h *AuthHandler) LoginHistory(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	entries, err := h.auth.LoginHistory(c.Context(), principal.SubjectID, c.QueryInt("limit", 50))
	if err != nil {
		return err
	}

	out := make([]dto.LoginHistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.LoginHistoryEntryResponse{
			IP:        entry.IP,
			UserAgent: entry.UserAgent,
			Outcome:   string(entry.Outcome),
			Timestamp: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}
