// Package customer manages customer accounts, their delivery and
// billing addresses, and their credit standing.
package customer

import (
	"context"
	"fmt"

	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements customer account use cases
type Service struct {
	customers customer.Repository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new customer service
func NewService(customers customer.Repository, publisher shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		customers: customers,
		publisher: publisher,
		logger:    logger,
	}
}

// Create registers a new customer. Codes are unique per tenant.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	c, err := customer.NewCustomer(tenantID, req.Code, req.Name, customer.Kind(req.Kind))
	if err != nil {
		return nil, err
	}

	exists, err := s.customers.ExistsByCode(ctx, tenantID, c.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Customer with code %q already exists", c.Code)
	}

	c.SetContact(req.ContactName, req.ContactPhone, req.ContactEmail)
	c.SetTaxID(req.TaxID)
	if req.PaymentTermDays != nil {
		if err := c.SetPaymentTerms(*req.PaymentTermDays); err != nil {
			return nil, err
		}
	}
	if req.CreditLimit != nil {
		if err := c.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		c.SetNotes(req.Notes)
	}
	c.CreatedBy = req.CreatedBy

	if err := s.customers.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	s.publishEvents(ctx, c)

	s.logger.Info("customer created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", c.ID.String()),
		zap.String("code", c.Code),
	)
	return ToCustomerResponse(c), nil
}

// Update applies partial changes to the customer master data
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := c.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.ContactName != nil || req.ContactPhone != nil || req.ContactEmail != nil {
		contact := c.Contact
		if req.ContactName != nil {
			contact.Name = *req.ContactName
		}
		if req.ContactPhone != nil {
			contact.Phone = *req.ContactPhone
		}
		if req.ContactEmail != nil {
			contact.Email = *req.ContactEmail
		}
		c.SetContact(contact.Name, contact.Phone, contact.Email)
	}
	if req.TaxID != nil {
		c.SetTaxID(*req.TaxID)
	}
	if req.PaymentTermDays != nil {
		if err := c.SetPaymentTerms(*req.PaymentTermDays); err != nil {
			return nil, err
		}
	}
	if req.CreditLimit != nil {
		if err := c.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		c.SetNotes(*req.Notes)
	}

	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// Get returns a customer with its addresses
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// GetByCode returns a customer by its business code
func (s *Service) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*CustomerResponse, error) {
	c, err := s.customers.FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// List returns a page of customers
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*shared.Paginated[CustomerResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Kind != "" {
		f.Filters["kind"] = filter.Kind
	}
	f.Normalize()

	customers, err := s.customers.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	total, err := s.customers.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = *ToCustomerResponse(&customers[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Activate restores an inactive or suspended customer
func (s *Service) Activate(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	return s.transition(ctx, tenantID, id, (*customer.Customer).Activate)
}

// Deactivate retires a customer account
func (s *Service) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	return s.transition(ctx, tenantID, id, (*customer.Customer).Deactivate)
}

// Suspend blocks new orders for the customer
func (s *Service) Suspend(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	return s.transition(ctx, tenantID, id, (*customer.Customer).Suspend)
}

func (s *Service) transition(ctx context.Context, tenantID, id uuid.UUID, apply func(*customer.Customer) error) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(c); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, c)
	return ToCustomerResponse(c), nil
}

// AddAddress adds an address to the customer
func (s *Service) AddAddress(ctx context.Context, tenantID, id uuid.UUID, req AddressRequest) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := c.AddAddress(toDomainAddress(req)); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// UpdateAddress replaces an existing address
func (s *Service) UpdateAddress(ctx context.Context, tenantID, id, addressID uuid.UUID, req AddressRequest) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateAddress(addressID, toDomainAddress(req)); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// RemoveAddress removes an address from the customer
func (s *Service) RemoveAddress(ctx context.Context, tenantID, id, addressID uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveAddress(addressID); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// SetPrimaryAddress marks the address as the primary billing address
func (s *Service) SetPrimaryAddress(ctx context.Context, tenantID, id, addressID uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.SetPrimaryAddress(addressID); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// AssignPriceList gives the customer a dedicated price list
func (s *Service) AssignPriceList(ctx context.Context, tenantID, id, priceListID uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.AssignPriceList(priceListID); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// ClearPriceList removes the dedicated price list, falling back to the
// tenant default at pricing time
func (s *Service) ClearPriceList(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	c.ClearPriceList()
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

func (s *Service) publishEvents(ctx context.Context, c *customer.Customer) {
	events := c.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish customer events",
			zap.String("customer_id", c.ID.String()),
			zap.Error(err),
		)
	}
	c.ClearDomainEvents()
}
