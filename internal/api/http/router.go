package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/registration-portal/internal/api/http/handlers"
	"github.com/spec-kit/registration-portal/internal/auth"
	"github.com/spec-kit/registration-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Registrations  *handlers.RegistrationsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes and their role gates.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/verify-otp", cfg.Auth.VerifyOtp)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authed := auth.RequireAuthenticated()
	authGroup.Get("/verify", cfg.AuthMiddleware.Handle, authed, cfg.Auth.Verify)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, authed, cfg.Auth.Me)
	authGroup.Get("/me/logins", cfg.AuthMiddleware.Handle, authed, cfg.Auth.LoginHistory)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, authed, cfg.Auth.Logout)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, authed, cfg.Auth.ChangePassword)

	adminGate := auth.RequireRole(domain.RoleRegistrationAdmin)
	authGroup.Post("/users", cfg.AuthMiddleware.Handle, adminGate, cfg.Auth.CreateUser)

	api := app.Group("/api")
	api.Post("/registrations", cfg.Registrations.Create)

	// Role gates are attached per route: a group-level gate would apply to
	// every method under the prefix and lock finance out of the payment route.
	readGate := auth.RequireRole(domain.RoleRegistrationAdmin, domain.RoleManagement, domain.RoleInstructor)
	api.Get("/registrations/search", cfg.AuthMiddleware.Handle, readGate, cfg.Registrations.FindByEmail)
	api.Get("/registrations/:id", cfg.AuthMiddleware.Handle, readGate, cfg.Registrations.Get)
	api.Get("/registrations", cfg.AuthMiddleware.Handle, readGate, cfg.Registrations.List)

	financeGate := auth.RequireRole(domain.RoleFinance, domain.RoleRegistrationAdmin)
	api.Patch("/registrations/:id/payment", cfg.AuthMiddleware.Handle, financeGate, cfg.Registrations.UpdatePayment)
}
