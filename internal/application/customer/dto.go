package customer

import (
	"time"

	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest creates a new customer account
type CreateCustomerRequest struct {
	Code            string           `json:"code" binding:"required,max=30"`
	Name            string           `json:"name" binding:"required,max=200"`
	Kind            string           `json:"kind" binding:"required,oneof=residential commercial industrial"`
	ContactName     string           `json:"contact_name"`
	ContactPhone    string           `json:"contact_phone"`
	ContactEmail    string           `json:"contact_email" binding:"omitempty,email"`
	TaxID           string           `json:"tax_id"`
	PaymentTermDays *int             `json:"payment_term_days"`
	CreditLimit     *decimal.Decimal `json:"credit_limit"`
	Notes           string           `json:"notes"`
	CreatedBy       *uuid.UUID       `json:"-"`
}

// UpdateCustomerRequest updates the mutable customer fields
type UpdateCustomerRequest struct {
	Name            *string          `json:"name"`
	ContactName     *string          `json:"contact_name"`
	ContactPhone    *string          `json:"contact_phone"`
	ContactEmail    *string          `json:"contact_email" binding:"omitempty,email"`
	TaxID           *string          `json:"tax_id"`
	PaymentTermDays *int             `json:"payment_term_days"`
	CreditLimit     *decimal.Decimal `json:"credit_limit"`
	Notes           *string          `json:"notes"`
}

// AddressRequest is the write shape of a customer address
type AddressRequest struct {
	Label      string   `json:"label"`
	Kind       string   `json:"kind" binding:"required,oneof=billing delivery"`
	Line1      string   `json:"line1" binding:"required"`
	Line2      string   `json:"line2"`
	City       string   `json:"city" binding:"required"`
	Region     string   `json:"region"`
	PostalCode string   `json:"postal_code"`
	Country    string   `json:"country"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	IsPrimary  bool     `json:"is_primary"`
}

// ListFilter narrows customer listings
type ListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Kind     string `form:"kind"`
}

// AddressResponse is the read shape of a customer address
type AddressResponse struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label"`
	Kind       string    `json:"kind"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	Region     string    `json:"region,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Country    string    `json:"country,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	IsPrimary  bool      `json:"is_primary"`
}

// CustomerResponse is the read shape of a customer
type CustomerResponse struct {
	ID              uuid.UUID         `json:"id"`
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	Kind            string            `json:"kind"`
	Status          string            `json:"status"`
	ContactName     string            `json:"contact_name,omitempty"`
	ContactPhone    string            `json:"contact_phone,omitempty"`
	ContactEmail    string            `json:"contact_email,omitempty"`
	TaxID           string            `json:"tax_id,omitempty"`
	PaymentTermDays int               `json:"payment_term_days"`
	CreditLimit     decimal.Decimal   `json:"credit_limit"`
	Balance         decimal.Decimal   `json:"balance"`
	PriceListID     *uuid.UUID        `json:"price_list_id,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Addresses       []AddressResponse `json:"addresses"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *customer.Customer) *CustomerResponse {
	resp := &CustomerResponse{
		ID:              c.ID,
		Code:            c.Code,
		Name:            c.Name,
		Kind:            string(c.Kind),
		Status:          string(c.Status),
		ContactName:     c.Contact.Name,
		ContactPhone:    c.Contact.Phone,
		ContactEmail:    c.Contact.Email,
		TaxID:           c.TaxID,
		PaymentTermDays: c.PaymentTermDays,
		CreditLimit:     c.CreditLimit,
		Balance:         c.Balance,
		PriceListID:     c.PriceListID,
		Notes:           c.Notes,
		Addresses:       make([]AddressResponse, 0, len(c.Addresses)),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	for i := range c.Addresses {
		resp.Addresses = append(resp.Addresses, *toAddressResponse(&c.Addresses[i]))
	}
	return resp
}

func toAddressResponse(a *customer.Address) *AddressResponse {
	return &AddressResponse{
		ID:         a.ID,
		Label:      a.Label,
		Kind:       string(a.Kind),
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
		IsPrimary:  a.IsPrimary,
	}
}

// toDomainAddress converts the request shape to the domain value
func toDomainAddress(req AddressRequest) customer.Address {
	return customer.Address{
		Label:      req.Label,
		Kind:       customer.AddressKind(req.Kind),
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		IsPrimary:  req.IsPrimary,
	}
}
