package customer

import (
	"fmt"
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a customer by the nature of their consumption
type Kind string

const (
	KindResidential Kind = "residential"
	KindCommercial  Kind = "commercial"
	KindIndustrial  Kind = "industrial"
)

// IsValid checks if the kind is a known customer kind
func (k Kind) IsValid() bool {
	switch k {
	case KindResidential, KindCommercial, KindIndustrial:
		return true
	}
	return false
}

// Status represents the lifecycle status of a customer
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is a known customer status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Contact holds the primary contact person details
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Customer is the aggregate root for an LPG customer account.
// Addresses are owned by the aggregate; at most one address may be
// the primary billing address at any time.
type Customer struct {
	shared.TenantAggregateRoot
	Code            string
	Name            string
	Kind            Kind
	Status          Status
	Contact         Contact
	TaxID           string
	PaymentTermDays int
	CreditLimit     decimal.Decimal // zero means unlimited
	Balance         decimal.Decimal // outstanding receivable balance
	PriceListID     *uuid.UUID
	Notes           string
	Addresses       []Address
}

// NewCustomer creates a new active customer
func NewCustomer(tenantID uuid.UUID, code, name string, kind Kind) (*Customer, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 30 {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 30 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown customer kind %q", kind))
	}

	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Kind:                kind,
		Status:              StatusActive,
		CreditLimit:         decimal.Zero,
		Balance:             decimal.Zero,
		Addresses:           make([]Address, 0),
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// Rename updates the display name
func (c *Customer) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	c.Name = strings.TrimSpace(name)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetContact updates the contact person details
func (c *Customer) SetContact(name, phone, email string) {
	c.Contact = Contact{Name: name, Phone: phone, Email: strings.ToLower(email)}
	c.UpdatedAt = time.Now().UTC()
}

// SetTaxID sets the tax identification number
func (c *Customer) SetTaxID(taxID string) {
	c.TaxID = strings.TrimSpace(taxID)
	c.UpdatedAt = time.Now().UTC()
}

// SetPaymentTerms sets the invoice payment terms in days
func (c *Customer) SetPaymentTerms(days int) error {
	if days < 0 || days > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms must be between 0 and 365 days")
	}
	c.PaymentTermDays = days
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetCreditLimit sets the credit limit. Zero means unlimited credit.
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// AssignPriceList assigns a dedicated price list to the customer
func (c *Customer) AssignPriceList(priceListID uuid.UUID) error {
	if priceListID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRICE_LIST", "Price list ID cannot be empty")
	}
	c.PriceListID = &priceListID
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearPriceList removes the dedicated price list assignment
func (c *Customer) ClearPriceList() {
	c.PriceListID = nil
	c.UpdatedAt = time.Now().UTC()
}

// SetNotes sets free-form notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.UpdatedAt = time.Now().UTC()
}

// Activate moves the customer to active status
func (c *Customer) Activate() error {
	if c.Status == StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Customer is already active")
	}
	c.Status = StatusActive
	c.UpdatedAt = time.Now().UTC()
	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, StatusActive))
	return nil
}

// Deactivate moves the customer to inactive status
func (c *Customer) Deactivate() error {
	if c.Status == StatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Customer is already inactive")
	}
	c.Status = StatusInactive
	c.UpdatedAt = time.Now().UTC()
	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, StatusInactive))
	return nil
}

// Suspend suspends the customer, blocking new orders
func (c *Customer) Suspend() error {
	if c.Status == StatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Customer is already suspended")
	}
	c.Status = StatusSuspended
	c.UpdatedAt = time.Now().UTC()
	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, StatusSuspended))
	return nil
}

// IsActive returns true if the customer can place orders
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

// CanAcceptCharge reports whether a new charge fits within the credit
// limit. A zero limit means unlimited credit.
func (c *Customer) CanAcceptCharge(amount decimal.Decimal) bool {
	if c.CreditLimit.IsZero() {
		return true
	}
	return c.Balance.Add(amount).LessThanOrEqual(c.CreditLimit)
}

// AddToBalance increases the outstanding balance (invoice issued)
func (c *Customer) AddToBalance(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Balance charge must be positive")
	}
	c.Balance = c.Balance.Add(amount)
	c.UpdatedAt = time.Now().UTC()
	c.AddDomainEvent(NewCustomerBalanceChangedEvent(c, amount))
	return nil
}

// SettleBalance decreases the outstanding balance (payment received
// or invoice voided)
func (c *Customer) SettleBalance(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Settlement amount must be positive")
	}
	if amount.GreaterThan(c.Balance) {
		return shared.NewDomainError("INVALID_AMOUNT", "Settlement amount exceeds outstanding balance")
	}
	c.Balance = c.Balance.Sub(amount)
	c.UpdatedAt = time.Now().UTC()
	c.AddDomainEvent(NewCustomerBalanceChangedEvent(c, amount.Neg()))
	return nil
}

// AddAddress adds an address to the customer. Setting a new primary
// address unsets the previous one.
func (c *Customer) AddAddress(addr Address) (*Address, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	now := time.Now().UTC()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	if addr.IsPrimary {
		c.unsetPrimary()
	}
	c.Addresses = append(c.Addresses, addr)
	c.UpdatedAt = now
	return &c.Addresses[len(c.Addresses)-1], nil
}

// UpdateAddress replaces the mutable fields of an existing address
func (c *Customer) UpdateAddress(addressID uuid.UUID, addr Address) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	for i := range c.Addresses {
		if c.Addresses[i].ID == addressID {
			if addr.IsPrimary && !c.Addresses[i].IsPrimary {
				c.unsetPrimary()
			}
			addr.ID = addressID
			addr.CreatedAt = c.Addresses[i].CreatedAt
			addr.UpdatedAt = time.Now().UTC()
			c.Addresses[i] = addr
			c.UpdatedAt = addr.UpdatedAt
			return nil
		}
	}
	return shared.NewDomainError("ADDRESS_NOT_FOUND", "Address not found on customer")
}

// RemoveAddress removes an address. Removing the primary address
// leaves the customer without a primary, which is allowed.
func (c *Customer) RemoveAddress(addressID uuid.UUID) error {
	for i := range c.Addresses {
		if c.Addresses[i].ID == addressID {
			c.Addresses = append(c.Addresses[:i], c.Addresses[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return shared.NewDomainError("ADDRESS_NOT_FOUND", "Address not found on customer")
}

// SetPrimaryAddress marks the given address as the primary billing
// address and unsets any other
func (c *Customer) SetPrimaryAddress(addressID uuid.UUID) error {
	var found bool
	for i := range c.Addresses {
		if c.Addresses[i].ID == addressID {
			found = true
			break
		}
	}
	if !found {
		return shared.NewDomainError("ADDRESS_NOT_FOUND", "Address not found on customer")
	}
	c.unsetPrimary()
	for i := range c.Addresses {
		if c.Addresses[i].ID == addressID {
			c.Addresses[i].IsPrimary = true
			c.Addresses[i].UpdatedAt = time.Now().UTC()
		}
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// PrimaryAddress returns the primary billing address, or nil
func (c *Customer) PrimaryAddress() *Address {
	for i := range c.Addresses {
		if c.Addresses[i].IsPrimary {
			return &c.Addresses[i]
		}
	}
	return nil
}

// GetAddress returns an address by ID, or nil
func (c *Customer) GetAddress(addressID uuid.UUID) *Address {
	for i := range c.Addresses {
		if c.Addresses[i].ID == addressID {
			return &c.Addresses[i]
		}
	}
	return nil
}

func (c *Customer) unsetPrimary() {
	for i := range c.Addresses {
		c.Addresses[i].IsPrimary = false
	}
}
