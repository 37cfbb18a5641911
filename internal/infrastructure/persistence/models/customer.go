package models

import (
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the GORM model for customers
type CustomerModel struct {
	TenantAggregateModel
	Code            string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_customer_tenant_code,priority:2"`
	Name            string          `gorm:"type:varchar(255);not null"`
	Kind            string          `gorm:"type:varchar(20);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName     string          `gorm:"type:varchar(255)"`
	ContactPhone    string          `gorm:"type:varchar(50)"`
	ContactEmail    string          `gorm:"type:varchar(255)"`
	TaxID           string          `gorm:"type:varchar(50)"`
	PaymentTermDays int             `gorm:"not null;default:0"`
	CreditLimit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Balance         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceListID     *uuid.UUID      `gorm:"type:uuid"`
	Notes           string          `gorm:"type:text"`

	Addresses []CustomerAddressModel `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string { return "customers" }

// CustomerAddressModel is the GORM model for customer addresses
type CustomerAddressModel struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Label      string    `gorm:"type:varchar(100)"`
	Kind       string    `gorm:"type:varchar(20);not null"`
	Line1      string    `gorm:"type:varchar(255);not null"`
	Line2      string    `gorm:"type:varchar(255)"`
	City       string    `gorm:"type:varchar(100);not null"`
	Region     string    `gorm:"type:varchar(100)"`
	PostalCode string    `gorm:"type:varchar(20)"`
	Country    string    `gorm:"type:varchar(2)"`
	Latitude   *float64  `gorm:"type:double precision"`
	Longitude  *float64  `gorm:"type:double precision"`
	IsPrimary  bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CustomerAddressModel) TableName() string { return "customer_addresses" }

// ToDomain converts the model to a domain Customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	c := &customer.Customer{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Kind:                customer.Kind(m.Kind),
		Status:              customer.Status(m.Status),
		Contact: customer.Contact{
			Name:  m.ContactName,
			Phone: m.ContactPhone,
			Email: m.ContactEmail,
		},
		TaxID:           m.TaxID,
		PaymentTermDays: m.PaymentTermDays,
		CreditLimit:     m.CreditLimit,
		Balance:         m.Balance,
		PriceListID:     m.PriceListID,
		Notes:           m.Notes,
		Addresses:       make([]customer.Address, 0, len(m.Addresses)),
	}
	for _, a := range m.Addresses {
		c.Addresses = append(c.Addresses, a.ToDomain())
	}
	return c
}

// FromDomain populates the model from a domain Customer
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Kind = string(c.Kind)
	m.Status = string(c.Status)
	m.ContactName = c.Contact.Name
	m.ContactPhone = c.Contact.Phone
	m.ContactEmail = c.Contact.Email
	m.TaxID = c.TaxID
	m.PaymentTermDays = c.PaymentTermDays
	m.CreditLimit = c.CreditLimit
	m.Balance = c.Balance
	m.PriceListID = c.PriceListID
	m.Notes = c.Notes
	m.Addresses = make([]CustomerAddressModel, 0, len(c.Addresses))
	for _, a := range c.Addresses {
		var am CustomerAddressModel
		am.FromDomain(&a, c.ID, c.TenantID)
		m.Addresses = append(m.Addresses, am)
	}
}

// ToDomain converts the model to a domain Address
func (m *CustomerAddressModel) ToDomain() customer.Address {
	return customer.Address{
		ID:         m.ID,
		Label:      m.Label,
		Kind:       customer.AddressKind(m.Kind),
		Line1:      m.Line1,
		Line2:      m.Line2,
		City:       m.City,
		Region:     m.Region,
		PostalCode: m.PostalCode,
		Country:    m.Country,
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		IsPrimary:  m.IsPrimary,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain Address
func (m *CustomerAddressModel) FromDomain(a *customer.Address, customerID, tenantID uuid.UUID) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.CustomerID = customerID
	m.TenantID = tenantID
	m.Label = a.Label
	m.Kind = string(a.Kind)
	m.Line1 = a.Line1
	m.Line2 = a.Line2
	m.City = a.City
	m.Region = a.Region
	m.PostalCode = a.PostalCode
	m.Country = a.Country
	m.Latitude = a.Latitude
	m.Longitude = a.Longitude
	m.IsPrimary = a.IsPrimary
}
