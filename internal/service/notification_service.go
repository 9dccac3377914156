package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/registration-portal/internal/config"
	"github.com/spec-kit/registration-portal/internal/events"
)

// NotificationService is the OTP and audit delivery collaborator. Actual
// email/SMS transport is out of scope; handlers log through zap without
// ever writing the code or a full address.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLoginOtpIssued, n.handleLoginOtpIssued)
	n.dispatcher.Subscribe(events.EventLoginFailed, n.handleLoginFailed)
	n.dispatcher.Subscribe(events.EventRegistrationCreated, n.handleRegistrationCreated)
}

func (n *NotificationService) handleLoginOtpIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LoginOtpIssuedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("LoginOtpIssued",
		zap.String("subject_id", event.SubjectID),
		zap.String("email", MaskEmail(payload.Email)))
	n.sendEmailStub(ctx, MaskEmail(payload.Email), "login verification code")
	return nil
}

func (n *NotificationService) handleLoginFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn("LoginFailed",
		zap.String("subject_id", event.SubjectID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleRegistrationCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("RegistrationCreated",
		zap.String("registration_id", event.SubjectID),
		zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, maskedRecipient, subject string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", maskedRecipient),
		zap.String("subject", subject))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
