package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/registration-portal/internal/crypto"
	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/events"
	"github.com/spec-kit/registration-portal/internal/repository"
	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

// RegistrationService owns the participant write and read paths. It is the
// primary consumer of the field-level encryption engine: email and phone
// are sealed before they reach the repository and opened only on reveal.
type RegistrationService struct {
	registrations repository.RegistrationRepository
	cipher        *crypto.FieldCipher
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewRegistrationService builds the service.
func NewRegistrationService(registrations repository.RegistrationRepository, cipher *crypto.FieldCipher, dispatcher events.Dispatcher, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		cipher:        cipher,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// CreateRegistrationInput is the public submission payload.
type CreateRegistrationInput struct {
	FullName     string
	Email        string
	Phone        string
	CityCountry  string
	Region       domain.Region
	ProgramLevel string
	Mode         domain.TrainingMode
}

// RegistrationView is a registration with PII revealed for an authorized
// reader.
type RegistrationView struct {
	ID            string
	FullName      string
	Email         string
	Phone         string
	CityCountry   string
	Region        domain.Region
	ProgramLevel  string
	Mode          domain.TrainingMode
	PaymentStatus domain.PaymentStatus
	CreatedAt     time.Time
}

// Create encrypts the PII fields, stores the lookup hash for the email, and
// persists the record. Duplicate submissions for the same email are
// rejected through the hash, without decrypting anything.
func (s *RegistrationService) Create(ctx context.Context, input CreateRegistrationInput) (*RegistrationView, error) {
	emailHash := s.cipher.ComputeLookupHash(input.Email)
	if _, err := s.registrations.GetByEmailHash(ctx, emailHash); err == nil {
		return nil, apperrors.NewConflict("registration already exists for this email", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	email := crypto.Normalize(input.Email)
	encryptedEmail, err := s.cipher.Encrypt(email)
	if err != nil {
		return nil, err
	}
	encryptedPhone, err := s.cipher.Encrypt(input.Phone)
	if err != nil {
		return nil, err
	}

	reg := &domain.Registration{
		FullName:      input.FullName,
		Email:         encryptedEmail,
		EmailHash:     emailHash,
		Phone:         encryptedPhone,
		CityCountry:   input.CityCountry,
		Region:        input.Region,
		ProgramLevel:  input.ProgramLevel,
		Mode:          input.Mode,
		PaymentStatus: domain.PaymentPending,
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRegistrationCreated,
			SubjectID: reg.ID,
			Timestamp: time.Now(),
			Payload: events.RegistrationCreatedPayload{
				RegistrationID: reg.ID,
				ProgramLevel:   reg.ProgramLevel,
				Region:         string(reg.Region),
			},
		})
	}

	return s.reveal(reg)
}

// GetByID fetches and reveals a single registration.
func (s *RegistrationService) GetByID(ctx context.Context, id string) (*RegistrationView, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reveal(reg)
}

// FindByEmail resolves a registration by equality on the lookup hash.
func (s *RegistrationService) FindByEmail(ctx context.Context, email string) (*RegistrationView, error) {
	reg, err := s.registrations.GetByEmailHash(ctx, s.cipher.ComputeLookupHash(email))
	if err != nil {
		return nil, err
	}
	return s.reveal(reg)
}

// List returns a page of registrations with PII revealed.
func (s *RegistrationService) List(ctx context.Context, limit, offset int) ([]RegistrationView, error) {
	regs, err := s.registrations.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]RegistrationView, 0, len(regs))
	for i := range regs {
		view, err := s.reveal(&regs[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// UpdatePaymentStatus records the finance decision for a registration.
func (s *RegistrationService) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	switch status {
	case domain.PaymentPending, domain.PaymentPaid, domain.PaymentOverride:
	default:
		return apperrors.NewValidationError("invalid payment status", map[string]any{"status": string(status)})
	}
	return s.registrations.UpdatePaymentStatus(ctx, id, status)
}

func (s *RegistrationService) reveal(reg *domain.Registration) (*RegistrationView, error) {
	email, err := s.cipher.Decrypt(reg.Email)
	if err != nil {
		s.logger.Error("stored email failed to decrypt",
			zap.String("registration_id", reg.ID), zap.Error(err))
		return nil, err
	}
	phone, err := s.cipher.Decrypt(reg.Phone)
	if err != nil {
		s.logger.Error("stored phone failed to decrypt",
			zap.String("registration_id", reg.ID), zap.Error(err))
		return nil, err
	}

	return &RegistrationView{
		ID:            reg.ID,
		FullName:      reg.FullName,
		Email:         email,
		Phone:         phone,
		CityCountry:   reg.CityCountry,
		Region:        reg.Region,
		ProgramLevel:  reg.ProgramLevel,
		Mode:          reg.Mode,
		PaymentStatus: reg.PaymentStatus,
		CreatedAt:     reg.CreatedAt,
	}, nil
}
