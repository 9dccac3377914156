package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/registration-portal/internal/auth"
	"github.com/spec-kit/registration-portal/internal/config"
	"github.com/spec-kit/registration-portal/internal/crypto"
	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/events"
	"github.com/spec-kit/registration-portal/internal/repository"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

// dummyHash is compared against when the username lookup misses, keeping
// the failure path's timing profile aligned with a real bcrypt comparison.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService coordinates credential verification, the two-step MFA flow,
// token issuance, and login fingerprinting.
type AuthService struct {
	users      repository.UserRepository
	history    repository.LoginHistoryRepository
	resets     repository.PasswordResetRepository
	denylist   repository.DenylistRepository
	mfa        *MfaService
	tokens     *auth.TokenManager
	cipher     *crypto.FieldCipher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	devOtpEcho bool
	resetTTL   time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	LoginHistoryRepo  repository.LoginHistoryRepository
	PasswordResetRepo repository.PasswordResetRepository
	DenylistRepo      repository.DenylistRepository
	Mfa               *MfaService
	Tokens            *auth.TokenManager
	Cipher            *crypto.FieldCipher
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		history:    deps.LoginHistoryRepo,
		resets:     deps.PasswordResetRepo,
		denylist:   deps.DenylistRepo,
		mfa:        deps.Mfa,
		tokens:     deps.Tokens,
		cipher:     deps.Cipher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: cfg.BcryptCost,
		devOtpEcho: cfg.DevOtpEcho,
		resetTTL:   cfg.PasswordResetTTL(),
	}
}

// LoginChallenge is the outcome of a successful password check: the caller
// must now complete the OTP round-trip.
type LoginChallenge struct {
	SubjectID   string
	ChallengeID string
	MaskedEmail string
	// DevOtp echoes the code when the dev affordance is enabled; empty
	// otherwise.
	DevOtp string
}

// Login verifies username+role+password jointly and issues an MFA
// challenge. Every mismatch, including a correct password under the wrong
// role or a deactivated account, fails with the same InvalidCredential.
func (s *AuthService) Login(ctx context.Context, username, roleStr, password string) (*LoginChallenge, error) {
	normalizedUsername := strings.ToLower(strings.TrimSpace(username))
	role, roleOK := domain.ParseRole(roleStr)

	user, err := s.users.GetByUsername(ctx, normalizedUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, apperrors.NewInvalidCredential()
		}
		return nil, err
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if passwordErr != nil || !roleOK || user.Role != role || !user.Active {
		return nil, apperrors.NewInvalidCredential()
	}

	challenge, err := s.mfa.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	email, err := s.cipher.Decrypt(user.Email)
	if err != nil {
		// Key mismatch or corrupt row: operators only, client sees 500.
		s.logger.Error("stored email failed to decrypt",
			zap.String("subject_id", user.ID), zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoginOtpIssued,
		SubjectID: user.ID,
		Timestamp: time.Now(),
		Payload:   events.LoginOtpIssuedPayload{Email: email, Code: challenge.Code, Role: user.Role},
	})

	result := &LoginChallenge{
		SubjectID:   user.ID,
		ChallengeID: challenge.ID,
		MaskedEmail: MaskEmail(email),
	}
	if s.devOtpEcho {
		result.DevOtp = challenge.Code
	}
	return result, nil
}

// LoginMetadata carries the request fingerprint for the audit trail.
type LoginMetadata struct {
	IP        string
	UserAgent string
}

// VerifyOtp completes the second authentication step. Exactly one login
// history entry is appended per completed attempt: on success, and on the
// terminal failures (expired or exhausted challenge). A plain wrong code
// leaves the challenge pending and records nothing.
func (s *AuthService) VerifyOtp(ctx context.Context, subjectID, code string, meta LoginMetadata) (string, time.Time, *domain.User, error) {
	verifyErr := s.mfa.Verify(ctx, subjectID, code)
	if verifyErr != nil {
		switch apperrors.CodeOf(verifyErr) {
		case apperrors.CodeOtpExpired:
			s.recordFingerprint(ctx, subjectID, meta, domain.LoginOutcomeExpired)
		case apperrors.CodeOtpExhausted:
			s.recordFingerprint(ctx, subjectID, meta, domain.LoginOutcomeExhausted)
		}
		return "", time.Time{}, nil, verifyErr
	}

	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	s.recordFingerprint(ctx, user.ID, meta, domain.LoginOutcomeSuccess)
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoginSucceeded,
		SubjectID: user.ID,
		Timestamp: time.Now(),
		Payload:   events.LoginSucceededPayload{Role: user.Role, IP: meta.IP, UserAgent: meta.UserAgent},
	})
	return token, expiresAt, user, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.denylist == nil || tokenID == "" {
		return nil
	}
	return s.denylist.Add(ctx, tokenID, time.Until(expiresAt))
}

// CreateUserInput describes a provisioning request.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
	FullName string
	Email    string
}

// CreateUser provisions a new operator identity with an encrypted contact
// email and a freshly salted password hash.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	emailHash := s.cipher.ComputeLookupHash(input.Email)

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username or email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.GetByEmailHash(ctx, emailHash); err == nil {
		return nil, apperrors.NewConflict("username or email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	encryptedEmail, err := s.cipher.Encrypt(crypto.Normalize(input.Email))
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		FullName:     input.FullName,
		Email:        encryptedEmail,
		EmailHash:    emailHash,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword re-hashes with a fresh random salt. No other state changes.
func (s *AuthService) SetPassword(ctx context.Context, subjectID, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, subjectID, hash)
}

// ChangePassword verifies the current password before updating.
func (s *AuthService) ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredential()
	}
	return s.SetPassword(ctx, subjectID, newPassword)
}

// RequestPasswordReset issues a reset token resolved through the email
// lookup hash, so the encrypted collection is never scanned.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	user, err := s.users.GetByEmailHash(ctx, s.cipher.ComputeLookupHash(email))
	if err != nil {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectID: user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}
	if err := s.SetPassword(ctx, token.SubjectID, newPassword); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// FindUserByEmail resolves an identity by contact email without decrypting
// the collection.
func (s *AuthService) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmailHash(ctx, s.cipher.ComputeLookupHash(email))
}

// LoginHistory returns the most recent fingerprints for a subject.
func (s *AuthService) LoginHistory(ctx context.Context, subjectID string, limit int) ([]domain.LoginHistoryEntry, error) {
	return s.history.ListBySubject(ctx, subjectID, limit)
}

// DecryptEmail reveals a user's contact email for display to an authorized
// caller.
func (s *AuthService) DecryptEmail(user *domain.User) (string, error) {
	return s.cipher.Decrypt(user.Email)
}

func (s *AuthService) recordFingerprint(ctx context.Context, subjectID string, meta LoginMetadata, outcome domain.LoginOutcome) {
	entry := &domain.LoginHistoryEntry{
		SubjectID: subjectID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Outcome:   outcome,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append login history",
			zap.String("subject_id", subjectID), zap.Error(err))
	}
	if outcome != domain.LoginOutcomeSuccess {
		s.publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventLoginFailed,
			SubjectID: subjectID,
			Timestamp: time.Now(),
			Payload:   events.LoginFailedPayload{Outcome: outcome, IP: meta.IP, UserAgent: meta.UserAgent},
		})
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// MaskEmail keeps the first two characters and the domain, e.g. "re...@example.com".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 2 {
		return email
	}
	return email[:2] + "..." + email[at:]
}
