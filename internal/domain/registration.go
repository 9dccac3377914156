package domain

import (
	"time"

	"github.com/spec-kit/registration-portal/internal/crypto"
)

// Region groups registrations for pricing and reporting.
type Region string

const (
	RegionIndia Region = "INDIA"
	RegionUSA   Region = "USA"
	RegionUAE   Region = "UAE"
)

// PaymentStatus tracks the finance workflow for a registration.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentOverride PaymentStatus = "Emergency Override"
)

// TrainingMode distinguishes delivery formats.
type TrainingMode string

const (
	ModeOnline  TrainingMode = "Online Training"
	ModeOffline TrainingMode = "Offline"
)

// Registration is a participant record. Email and phone are PII: both are
// encrypted at rest, and the email additionally carries a lookup hash so
// equality search never requires decrypting the collection.
type Registration struct {
	ID            string
	FullName      string
	Email         crypto.EncryptedField
	EmailHash     crypto.LookupHash
	Phone         crypto.EncryptedField
	CityCountry   string
	Region        Region
	ProgramLevel  string
	Mode          TrainingMode
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}
