package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-portal/internal/api/dto"
	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/service"
)

// RegistrationsHandler exposes the participant CRUD surface. PII leaves
// storage only through these role-gated read paths.
type RegistrationsHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationsHandler constructs handler.
func NewRegistrationsHandler(registrations *service.RegistrationService) *RegistrationsHandler {
	return &RegistrationsHandler{registrations: registrations}
}

// Create handles POST /api/registrations (public submission form).
func (h *RegistrationsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.FullName == "" || req.Email == "" || req.Phone == "" || req.ProgramLevel == "" || req.Mode == "" {
		return fiber.NewError(http.StatusBadRequest, "full_name, email, phone, program_level, mode required")
	}

	region := domain.Region(req.Region)
	if region == "" {
		region = domain.RegionIndia
	}

	view, err := h.registrations.Create(c.Context(), service.CreateRegistrationInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		CityCountry:  req.CityCountry,
		Region:       region,
		ProgramLevel: req.ProgramLevel,
		Mode:         domain.TrainingMode(req.Mode),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toRegistrationResponse(view)})
}

// Get handles GET /api/registrations/:id.
func (h *RegistrationsHandler) Get(c *fiber.Ctx) error {
	view, err := h.registrations.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRegistrationResponse(view)})
}

// FindByEmail handles GET /api/registrations/search?email=... by equality
// on the lookup hash, without decrypting the collection.
func (h *RegistrationsHandler) FindByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return fiber.NewError(http.StatusBadRequest, "email query parameter required")
	}

	view, err := h.registrations.FindByEmail(c.Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRegistrationResponse(view)})
}

// List handles GET /api/registrations.
func (h *RegistrationsHandler) List(c *fiber.Ctx) error {
	views, err := h.registrations.List(c.Context(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	out := make([]dto.RegistrationResponse, 0, len(views))
	for i := range views {
		out = append(out, toRegistrationResponse(&views[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// UpdatePayment handles PATCH /api/registrations/:id/payment.
func (h *RegistrationsHandler) UpdatePayment(c *fiber.Ctx) error {
	var req dto.UpdatePaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.registrations.UpdatePaymentStatus(c.Context(), c.Params("id"), domain.PaymentStatus(req.PaymentStatus)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": true}})
}

func toRegistrationResponse(view *service.RegistrationView) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:            view.ID,
		FullName:      view.FullName,
		Email:         view.Email,
		Phone:         view.Phone,
		CityCountry:   view.CityCountry,
		Region:        string(view.Region),
		ProgramLevel:  view.ProgramLevel,
		Mode:          string(view.Mode),
		PaymentStatus: string(view.PaymentStatus),
		CreatedAt:     view.CreatedAt,
	}
}
