package customer

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AddressKind distinguishes billing from delivery addresses
type AddressKind string

const (
	AddressKindBilling  AddressKind = "billing"
	AddressKindDelivery AddressKind = "delivery"
)

// IsValid checks if the kind is a known address kind
func (k AddressKind) IsValid() bool {
	return k == AddressKindBilling || k == AddressKindDelivery
}

// Address is an entity owned by the Customer aggregate. Coordinates
// are optional and used for trip routing when present.
type Address struct {
	ID         uuid.UUID
	Label      string
	Kind       AddressKind
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	Latitude   *float64
	Longitude  *float64
	IsPrimary  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the address fields
func (a *Address) Validate() error {
	if !a.Kind.IsValid() {
		return shared.NewDomainError("INVALID_ADDRESS_KIND", "Address kind must be billing or delivery")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Address line 1 cannot be empty")
	}
	if strings.TrimSpace(a.City) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Address city cannot be empty")
	}
	if a.Country != "" && len(a.Country) != 2 {
		return shared.NewDomainError("INVALID_ADDRESS", "Country must be a two-letter ISO code")
	}
	if (a.Latitude == nil) != (a.Longitude == nil) {
		return shared.NewDomainError("INVALID_ADDRESS", "Latitude and longitude must be set together")
	}
	if a.Latitude != nil && (*a.Latitude < -90 || *a.Latitude > 90) {
		return shared.NewDomainError("INVALID_ADDRESS", "Latitude out of range")
	}
	if a.Longitude != nil && (*a.Longitude < -180 || *a.Longitude > 180) {
		return shared.NewDomainError("INVALID_ADDRESS", "Longitude out of range")
	}
	return nil
}
