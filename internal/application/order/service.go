// Package order implements the order lifecycle: draft capture with
// price resolution and bundle explosion, confirmation with credit,
// quota and stock reservation checks, and cancellation.
package order

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	pricingapp "github.com/gasflow/backend/internal/application/pricing"
	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceResolver resolves a unit price for a variant at a quantity and
// pricing date
type PriceResolver interface {
	Resolve(ctx context.Context, cust *customer.Customer, variant *catalog.Variant, qty decimal.Decimal, at time.Time) (*pricingapp.ResolvedPrice, error)
}

// OrderQuota guards order confirmation against the tenant's monthly
// plan limit
type OrderQuota interface {
	CheckOrderQuota(ctx context.Context, tenantID uuid.UUID, at time.Time) error
}

// Service implements order use cases
type Service struct {
	orders         order.Repository
	customers      customer.Repository
	variants       catalog.VariantRepository
	resolver       PriceResolver
	quota          OrderQuota
	scope          TransactionScope
	reservationTTL time.Duration
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new order service
func NewService(
	orders order.Repository,
	customers customer.Repository,
	variants catalog.VariantRepository,
	resolver PriceResolver,
	quota OrderQuota,
	scope TransactionScope,
	reservationTTL time.Duration,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:         orders,
		customers:      customers,
		variants:       variants,
		resolver:       resolver,
		quota:          quota,
		scope:          scope,
		reservationTTL: reservationTTL,
		publisher:      publisher,
		logger:         logger,
	}
}

// Create opens a draft order for a customer
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	cust, err := s.customers.FindByID(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !cust.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Customer cannot place orders in its current status")
	}
	if req.DeliveryAddressID != nil && cust.GetAddress(*req.DeliveryAddressID) == nil {
		return nil, shared.NewDomainError("ADDRESS_NOT_FOUND", "Delivery address not found on customer")
	}

	var o *order.Order
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := inventoryapp.NextDocNumber(ctx, repos.Sequences(), tenantID, inventoryapp.NumberKindOrder, time.Now())
		if err != nil {
			return err
		}
		o, err = order.NewOrder(tenantID, number, req.CustomerID, req.WarehouseID, req.Currency)
		if err != nil {
			return err
		}
		if err := o.UpdateHeader(req.DeliveryAddressID, req.RequestedDate, req.Notes); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	s.logger.Info("order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("customer_id", req.CustomerID.String()),
	)
	return ToOrderResponse(o), nil
}

// UpdateHeader changes the mutable header fields of a draft order
func (s *Service) UpdateHeader(ctx context.Context, tenantID, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.DeliveryAddressID != nil {
		cust, err := s.customers.FindByID(ctx, tenantID, o.CustomerID)
		if err != nil {
			return nil, err
		}
		if cust.GetAddress(*req.DeliveryAddressID) == nil {
			return nil, shared.NewDomainError("ADDRESS_NOT_FOUND", "Delivery address not found on customer")
		}
	}
	if err := o.UpdateHeader(req.DeliveryAddressID, req.RequestedDate, req.Notes); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// AddLine adds a line to a draft order. Bundles explode into
// zero-priced component lines; prices resolve through the price lists
// unless the request carries a manual override.
func (s *Service) AddLine(ctx context.Context, tenantID, id uuid.UUID, req AddLineRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	variant, err := s.variants.FindByID(ctx, tenantID, req.VariantID)
	if err != nil {
		return nil, err
	}

	in := order.LineInput{
		Variant:  variant,
		Quantity: req.Quantity,
	}
	if req.UnitPrice != nil {
		in.UnitPrice = *req.UnitPrice
		in.PriceSource = order.PriceSourceManual
	} else {
		cust, err := s.customers.FindByID(ctx, tenantID, o.CustomerID)
		if err != nil {
			return nil, err
		}
		resolved, err := s.resolver.Resolve(ctx, cust, variant, req.Quantity, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		in.UnitPrice = resolved.UnitPrice
		in.PriceSource = order.PriceSource(resolved.Source)
	}

	var components []catalog.ComponentQuantity
	var componentVariants map[uuid.UUID]*catalog.Variant
	if variant.IsBundle() {
		components, err = variant.Explode(req.Quantity)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(components))
		for _, c := range components {
			ids = append(ids, c.VariantID)
		}
		resolved, err := s.variants.FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bundle components: %w", err)
		}
		componentVariants = make(map[uuid.UUID]*catalog.Variant, len(resolved))
		for i := range resolved {
			componentVariants[resolved[i].ID] = &resolved[i]
		}
	}

	line, err := o.AddLine(in, components)
	if err != nil {
		return nil, err
	}
	if variant.IsBundle() {
		o.SetComponentDetails(line.ID, componentVariants)
	}
	if req.Discount != nil {
		if err := o.UpdateLine(line.ID, nil, nil, req.Discount); err != nil {
			return nil, err
		}
	}

	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// UpdateLine changes quantity, price or discount on a draft line
func (s *Service) UpdateLine(ctx context.Context, tenantID, id, lineID uuid.UUID, req UpdateLineRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := o.UpdateLine(lineID, req.Quantity, req.UnitPrice, req.Discount); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// RemoveLine removes a draft line together with its component lines
func (s *Service) RemoveLine(ctx context.Context, tenantID, id, lineID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := o.RemoveLine(lineID); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// Confirm transitions a draft to confirmed: the customer must be
// active and within credit, the monthly quota must allow one more
// order, and on-hand stock is reserved for every stock-tracked line.
func (s *Service) Confirm(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	now := time.Now().UTC()

	var o *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		o, err = repos.Orders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}

		cust, err := s.customers.FindByID(ctx, tenantID, o.CustomerID)
		if err != nil {
			return err
		}
		if !cust.IsActive() {
			return shared.NewDomainError("INVALID_STATE", "Customer cannot place orders in its current status")
		}
		if !cust.CanAcceptCharge(o.TotalAmount) {
			return shared.ErrCreditLimitExceeded
		}
		if err := s.quota.CheckOrderQuota(ctx, tenantID, now); err != nil {
			return err
		}

		if err := o.Confirm(); err != nil {
			return err
		}

		demands := make([]inventoryapp.StockDemand, 0)
		for variantID, qty := range o.StockDemand() {
			demands = append(demands, inventoryapp.StockDemand{VariantID: variantID, Quantity: qty})
		}
		var expiresAt *time.Time
		if s.reservationTTL > 0 {
			t := now.Add(s.reservationTTL)
			expiresAt = &t
		}
		if err := inventoryapp.ReserveForOrder(ctx, repos.StockLevels(), repos.Reservations(), tenantID, o.ID, o.WarehouseID, demands, expiresAt); err != nil {
			return err
		}

		if err := repos.Usage().Increment(ctx, tenantID, tenant.MetricOrdersCreated, now, 1); err != nil {
			return fmt.Errorf("failed to record order usage: %w", err)
		}
		return repos.Orders().SaveWithLock(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	s.logger.Info("order confirmed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.TotalAmount.String()),
	)
	return ToOrderResponse(o), nil
}

// Cancel cancels an order and releases its reservations
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	var o *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		o, err = repos.Orders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := o.Cancel(req.Reason); err != nil {
			return err
		}
		if err := inventoryapp.ReleaseOrderReservations(ctx, repos.StockLevels(), repos.Reservations(), tenantID, o.ID); err != nil {
			return err
		}
		return repos.Orders().SaveWithLock(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	s.logger.Info("order cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("reason", req.Reason),
	)
	return ToOrderResponse(o), nil
}

// Get returns an order with its lines
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// List returns a page of orders
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*shared.Paginated[OrderResponse], error) {
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
	if filter.CustomerID != "" {
		f.Filters["customer_id"] = filter.CustomerID
	}
	if filter.DateFrom != nil {
		f.Filters["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		f.Filters["date_to"] = *filter.DateTo
	}
	f.Normalize()

	orders, err := s.orders.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	total, err := s.orders.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = *ToOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

func (s *Service) publishEvents(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish order events",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
	}
	o.ClearDomainEvents()
}
