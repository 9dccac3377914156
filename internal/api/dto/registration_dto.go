package dto

import "time"

// CreateRegistrationRequest is the public submission payload.
type CreateRegistrationRequest struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CityCountry  string `json:"city_country"`
	Region       string `json:"region"`
	ProgramLevel string `json:"program_level"`
	Mode         string `json:"mode"`
}

// RegistrationResponse reveals a registration to an authorized caller.
type RegistrationResponse struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	CityCountry   string    `json:"city_country"`
	Region        string    `json:"region"`
	ProgramLevel  string    `json:"program_level"`
	Mode          string    `json:"mode"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// UpdatePaymentStatusRequest records the finance decision.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}
