// Package finance implements receivables: invoices generated from
// delivered orders, payments against them and the customer balance
// they move.
package finance

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	"github.com/gasflow/backend/internal/domain/finance"
	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service implements invoicing and payment use cases
type Service struct {
	invoices       finance.InvoiceRepository
	payments       finance.PaymentRepository
	orders         order.Repository
	deliveries     logistics.DeliveryRepository
	scope          TransactionScope
	defaultTaxRate decimal.Decimal
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new finance service
func NewService(
	invoices finance.InvoiceRepository,
	payments finance.PaymentRepository,
	orders order.Repository,
	deliveries logistics.DeliveryRepository,
	scope TransactionScope,
	defaultTaxRate decimal.Decimal,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		invoices:       invoices,
		payments:       payments,
		orders:         orders,
		deliveries:     deliveries,
		scope:          scope,
		defaultTaxRate: defaultTaxRate,
		publisher:      publisher,
		logger:         logger,
	}
}

// Generate raises a draft invoice from a delivered order. Quantities
// come from the recorded deliveries; a line delivered short is billed
// short, with its discount prorated. Each order is invoiced once.
func (s *Service) Generate(ctx context.Context, tenantID uuid.UUID, req GenerateInvoiceRequest) (*InvoiceResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusDelivered {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Cannot invoice an order in %s status", o.Status)
	}
	existing, err := s.invoices.FindByOrder(ctx, tenantID, o.ID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Status != finance.InvoiceStatusVoid {
			return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Order %s is already invoiced as %s", o.OrderNumber, existing[i].InvoiceNumber)
		}
	}

	delivered, err := s.deliveredQuantities(ctx, tenantID, o.ID)
	if err != nil {
		return nil, err
	}
	lines := buildInvoiceLines(o, delivered)
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Nothing was delivered to invoice")
	}

	taxRate := s.defaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	var inv *finance.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := inventoryapp.NextDocNumber(ctx, repos.Sequences(), tenantID, inventoryapp.NumberKindInvoice, time.Now())
		if err != nil {
			return err
		}
		inv, err = finance.NewInvoice(tenantID, number, o.CustomerID, &o.ID, o.Currency, taxRate, lines)
		if err != nil {
			return err
		}
		inv.Notes = req.Notes
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", inv.TotalAmount.String()),
	)
	return ToInvoiceResponse(inv), nil
}

// Issue finalizes a draft invoice, sets the due date from the
// customer's payment terms and charges the customer balance
func (s *Service) Issue(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	var inv *finance.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		cust, err := repos.Customers().FindByID(ctx, tenantID, inv.CustomerID)
		if err != nil {
			return err
		}
		if err := inv.Issue(cust.PaymentTermDays); err != nil {
			return err
		}
		if err := cust.AddToBalance(inv.TotalAmount); err != nil {
			return err
		}
		if err := repos.Customers().SaveWithLock(ctx, cust); err != nil {
			return err
		}
		return repos.Invoices().SaveWithLock(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inv)

	s.logger.Info("invoice issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Timep("due_date", inv.DueDate),
	)
	return ToInvoiceResponse(inv), nil
}

// Void cancels an unpaid invoice; an issued one releases its charge
// from the customer balance
func (s *Service) Void(ctx context.Context, tenantID, id uuid.UUID, req VoidInvoiceRequest) (*InvoiceResponse, error) {
	var inv *finance.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		wasIssued := inv.Status == finance.InvoiceStatusIssued
		if err := inv.Void(req.Reason); err != nil {
			return err
		}
		if wasIssued {
			cust, err := repos.Customers().FindByID(ctx, tenantID, inv.CustomerID)
			if err != nil {
				return err
			}
			if err := cust.SettleBalance(inv.TotalAmount); err != nil {
				return err
			}
			if err := repos.Customers().SaveWithLock(ctx, cust); err != nil {
				return err
			}
		}
		return repos.Invoices().SaveWithLock(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inv)

	s.logger.Info("invoice voided",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("reason", req.Reason),
	)
	return ToInvoiceResponse(inv), nil
}

// Get returns an invoice with its lines
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// List returns a page of invoices
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.CustomerID != "" {
		f.Filters["customer_id"] = filter.CustomerID
	}
	if filter.Overdue {
		f.Filters["overdue"] = true
	}
	f.Normalize()

	invoices, err := s.invoices.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoices.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}
	items := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = *ToInvoiceResponse(&invoices[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// RecordPayment books money received against an invoice and settles
// the customer balance by the same amount
func (s *Service) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	var p *finance.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.Invoices().FindByID(ctx, tenantID, req.InvoiceID)
		if err != nil {
			return err
		}
		number, err := inventoryapp.NextDocNumber(ctx, repos.Sequences(), tenantID, inventoryapp.NumberKindPayment, time.Now())
		if err != nil {
			return err
		}
		p, err = finance.NewPayment(tenantID, number, inv.ID, inv.CustomerID, finance.PaymentMethod(req.Method), req.Amount, inv.Currency, req.Reference)
		if err != nil {
			return err
		}
		p.Notes = req.Notes
		if err := inv.ApplyPayment(req.Amount); err != nil {
			return err
		}
		cust, err := repos.Customers().FindByID(ctx, tenantID, inv.CustomerID)
		if err != nil {
			return err
		}
		if err := cust.SettleBalance(req.Amount); err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		return repos.Customers().SaveWithLock(ctx, cust)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)

	s.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_number", p.PaymentNumber),
		zap.String("amount", p.Amount.String()),
		zap.String("method", string(p.Method)),
	)
	return ToPaymentResponse(p), nil
}

// VoidPayment reverses a payment, restoring the invoice and the
// customer balance
func (s *Service) VoidPayment(ctx context.Context, tenantID, id uuid.UUID, req VoidPaymentRequest) (*PaymentResponse, error) {
	var p *finance.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.Payments().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := p.Void(req.Reason); err != nil {
			return err
		}
		inv, err := repos.Invoices().FindByID(ctx, tenantID, p.InvoiceID)
		if err != nil {
			return err
		}
		if err := inv.UnapplyPayment(p.Amount); err != nil {
			return err
		}
		cust, err := repos.Customers().FindByID(ctx, tenantID, p.CustomerID)
		if err != nil {
			return err
		}
		if err := cust.AddToBalance(p.Amount); err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		return repos.Customers().SaveWithLock(ctx, cust)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment voided",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_number", p.PaymentNumber),
		zap.String("reason", req.Reason),
	)
	return ToPaymentResponse(p), nil
}

// GetPayment returns a payment by ID
func (s *Service) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.payments.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponse(p), nil
}

// ListPayments returns a page of payments
func (s *Service) ListPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) (*shared.Paginated[PaymentResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  map[string]interface{}{},
	}
	if filter.InvoiceID != "" {
		f.Filters["invoice_id"] = filter.InvoiceID
	}
	if filter.CustomerID != "" {
		f.Filters["customer_id"] = filter.CustomerID
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Method != "" {
		f.Filters["method"] = filter.Method
	}
	f.Normalize()

	payments, err := s.payments.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.payments.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = *ToPaymentResponse(&payments[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Aging returns the receivables aging report as of a date
func (s *Service) Aging(ctx context.Context, tenantID uuid.UUID, filter AgingFilter) (*AgingReportResponse, error) {
	asOf := time.Now().UTC()
	if filter.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", filter.AsOf)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "as_of must be a YYYY-MM-DD date")
		}
		asOf = parsed
	}
	var customerID *uuid.UUID
	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "customer_id must be a UUID")
		}
		customerID = &id
	}

	rows, err := s.invoices.Aging(ctx, tenantID, asOf, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to build aging report: %w", err)
	}
	resp := &AgingReportResponse{
		AsOf: asOf,
		Rows: make([]AgingRowResponse, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Rows = append(resp.Rows, AgingRowResponse{
			CustomerID: r.CustomerID,
			Bucket:     string(r.Bucket),
			Amount:     r.Amount,
			Count:      r.Count,
		})
	}
	return resp, nil
}

// deliveredQuantities sums the delivered quantity per order line over
// every delivery recorded for the order
func (s *Service) deliveredQuantities(ctx context.Context, tenantID, orderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	deliveries, err := s.deliveries.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	delivered := make(map[uuid.UUID]decimal.Decimal)
	for i := range deliveries {
		for _, l := range deliveries[i].Lines {
			delivered[l.OrderLineID] = delivered[l.OrderLineID].Add(l.DeliveredQty)
		}
	}
	return delivered, nil
}

// buildInvoiceLines converts an order's billable lines into invoice
// line inputs. Delivered quantities win over ordered when a delivery
// covered the line; a short line bills short with its discount
// prorated. Bundle component lines carry no price and are not billed.
func buildInvoiceLines(o *order.Order, delivered map[uuid.UUID]decimal.Decimal) []finance.InvoiceLineInput {
	lines := make([]finance.InvoiceLineInput, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		if l.IsComponent() {
			continue
		}
		qty := l.Quantity
		discount := l.DiscountAmount
		if deliveredQty, ok := delivered[l.ID]; ok {
			if !deliveredQty.IsPositive() {
				continue
			}
			if deliveredQty.LessThan(l.Quantity) {
				discount = discount.Mul(deliveredQty).Div(l.Quantity).Round(2)
			}
			qty = deliveredQty
		}
		lineID := l.ID
		lines = append(lines, finance.InvoiceLineInput{
			OrderLineID: &lineID,
			VariantID:   l.VariantID,
			SKU:         l.SKU,
			Description: l.Name,
			Quantity:    qty,
			UnitPrice:   l.UnitPrice,
			Discount:    discount,
		})
	}
	return lines
}

type eventCarrier interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func (s *Service) publishEvents(ctx context.Context, carriers ...eventCarrier) {
	for _, c := range carriers {
		events := c.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish finance events", zap.Error(err))
		}
		c.ClearDomainEvents()
	}
}
