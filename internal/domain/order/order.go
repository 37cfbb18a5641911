package order

import (
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of an order
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusScheduled Status = "scheduled"
	StatusEnRoute   Status = "en_route"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a known order status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusScheduled, StatusEnRoute, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks the order state machine
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusScheduled || target == StatusCancelled
	case StatusScheduled:
		return target == StatusEnRoute || target == StatusConfirmed || target == StatusCancelled
	case StatusEnRoute:
		return target == StatusDelivered || target == StatusConfirmed
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// PriceSource records where a line's unit price came from
type PriceSource string

const (
	PriceSourceCustomerList PriceSource = "customer_list"
	PriceSourceDefaultList  PriceSource = "default_list"
	PriceSourceVariant      PriceSource = "variant_default"
	PriceSourceBundle       PriceSource = "bundle_component"
	PriceSourceManual       PriceSource = "manual"
)

// Line is one order line. Bundle lines explode into zero-priced
// component lines that carry ParentLineID and follow their parent.
type Line struct {
	ID             uuid.UUID
	VariantID      uuid.UUID
	SKU            string
	Name           string
	Kind           catalog.VariantKind
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
	ParentLineID   *uuid.UUID
	PriceSource    PriceSource
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsComponent returns true for exploded bundle component lines
func (l *Line) IsComponent() bool {
	return l.ParentLineID != nil
}

func (l *Line) recalc() {
	gross := l.Quantity.Mul(l.UnitPrice)
	l.LineTotal = gross.Sub(l.DiscountAmount).Round(2)
}

// Order is the aggregate root for an LPG customer order
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber       string
	CustomerID        uuid.UUID
	DeliveryAddressID *uuid.UUID
	WarehouseID       uuid.UUID
	RequestedDate     *time.Time
	Status            Status
	Currency          string
	TotalAmount       decimal.Decimal
	Notes             string
	TripID            *uuid.UUID
	ConfirmedAt       *time.Time
	DeliveredAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
	Lines             []Line
}

// NewOrder creates a draft order
func NewOrder(tenantID uuid.UUID, orderNumber string, customerID, warehouseID uuid.UUID, currency string) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a three-letter ISO code")
	}

	o := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		WarehouseID:         warehouseID,
		Status:              StatusDraft,
		Currency:            currency,
		TotalAmount:         decimal.Zero,
		Lines:               make([]Line, 0),
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// UpdateHeader changes the mutable header fields of a draft order
func (o *Order) UpdateHeader(deliveryAddressID *uuid.UUID, requestedDate *time.Time, notes string) error {
	if o.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft orders can be edited")
	}
	o.DeliveryAddressID = deliveryAddressID
	o.RequestedDate = requestedDate
	o.Notes = notes
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// LineInput carries the resolved variant data needed to add a line
type LineInput struct {
	Variant     *catalog.Variant
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	PriceSource PriceSource
}

// AddLine adds an order line for the given variant. Adding the same
// variant again merges by incrementing quantity. Bundle variants
// explode into zero-priced component lines; components carries the
// resolved component variants when the input is a bundle.
func (o *Order) AddLine(in LineInput, components []catalog.ComponentQuantity) (*Line, error) {
	if o.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft orders")
	}
	if in.Variant == nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant is required")
	}
	if !in.Variant.IsActive() {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant is discontinued")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.Variant.IsBundle() && len(components) == 0 {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Bundle lines require exploded components")
	}

	// Merge with an existing top-level line for the same variant
	for i := range o.Lines {
		if o.Lines[i].VariantID == in.Variant.ID && !o.Lines[i].IsComponent() {
			return o.mergeLine(i, in, components)
		}
	}

	now := time.Now().UTC()
	line := Line{
		ID:             uuid.New(),
		VariantID:      in.Variant.ID,
		SKU:            in.Variant.SKU,
		Name:           in.Variant.Name,
		Kind:           in.Variant.Kind,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		DiscountAmount: decimal.Zero,
		PriceSource:    in.PriceSource,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	line.recalc()
	o.Lines = append(o.Lines, line)

	for _, comp := range components {
		compLine := Line{
			ID:             uuid.New(),
			VariantID:      comp.VariantID,
			Kind:           catalog.KindConsumable, // overwritten below when kind known
			Quantity:       comp.Quantity,
			UnitPrice:      decimal.Zero,
			DiscountAmount: decimal.Zero,
			ParentLineID:   &line.ID,
			PriceSource:    PriceSourceBundle,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		compLine.recalc()
		o.Lines = append(o.Lines, compLine)
	}

	o.recalculateTotal()
	o.UpdatedAt = now
	return &o.Lines[o.indexOfLine(line.ID)], nil
}

// SetComponentDetails fills SKU/name/kind snapshots on exploded
// component lines after the caller resolved the component variants
func (o *Order) SetComponentDetails(parentLineID uuid.UUID, variants map[uuid.UUID]*catalog.Variant) {
	for i := range o.Lines {
		if o.Lines[i].ParentLineID == nil || *o.Lines[i].ParentLineID != parentLineID {
			continue
		}
		if v, ok := variants[o.Lines[i].VariantID]; ok {
			o.Lines[i].SKU = v.SKU
			o.Lines[i].Name = v.Name
			o.Lines[i].Kind = v.Kind
		}
	}
}

func (o *Order) mergeLine(idx int, in LineInput, components []catalog.ComponentQuantity) (*Line, error) {
	parent := &o.Lines[idx]
	parent.Quantity = parent.Quantity.Add(in.Quantity)
	parent.recalc()
	parent.UpdatedAt = time.Now().UTC()

	// Scale component lines along with the parent
	for _, comp := range components {
		for i := range o.Lines {
			if o.Lines[i].ParentLineID != nil && *o.Lines[i].ParentLineID == parent.ID &&
				o.Lines[i].VariantID == comp.VariantID {
				o.Lines[i].Quantity = o.Lines[i].Quantity.Add(comp.Quantity)
				o.Lines[i].recalc()
				o.Lines[i].UpdatedAt = parent.UpdatedAt
			}
		}
	}
	o.recalculateTotal()
	o.UpdatedAt = parent.UpdatedAt
	return parent, nil
}

// UpdateLine changes quantity, price or discount of a top-level draft
// line. Component lines follow their parent and cannot be edited.
func (o *Order) UpdateLine(lineID uuid.UUID, quantity, unitPrice, discount *decimal.Decimal) error {
	if o.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be edited on draft orders")
	}
	idx := o.indexOfLine(lineID)
	if idx < 0 {
		return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}
	line := &o.Lines[idx]
	if line.IsComponent() {
		return shared.NewDomainError("INVALID_STATE", "Bundle component lines cannot be edited directly")
	}

	oldQty := line.Quantity
	if quantity != nil {
		if quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
		}
		line.Quantity = *quantity
	}
	if unitPrice != nil {
		if unitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		line.UnitPrice = *unitPrice
		line.PriceSource = PriceSourceManual
	}
	if discount != nil {
		if discount.IsNegative() {
			return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
		}
		if discount.GreaterThan(line.Quantity.Mul(line.UnitPrice)) {
			return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the line gross amount")
		}
		line.DiscountAmount = *discount
	}
	// Discount may now exceed gross after a quantity/price change
	if line.DiscountAmount.GreaterThan(line.Quantity.Mul(line.UnitPrice)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the line gross amount")
	}
	line.recalc()
	line.UpdatedAt = time.Now().UTC()

	// Rescale exploded component quantities from the exact per-unit
	// amount. Multiplying by a new/old ratio would truncate on
	// non-terminating ratios like 1/3 and drift components off their
	// per-unit multiple.
	if quantity != nil && !oldQty.IsZero() {
		for i := range o.Lines {
			if o.Lines[i].ParentLineID != nil && *o.Lines[i].ParentLineID == lineID {
				perUnit := o.Lines[i].Quantity.Div(oldQty)
				o.Lines[i].Quantity = perUnit.Mul(line.Quantity)
				o.Lines[i].recalc()
				o.Lines[i].UpdatedAt = line.UpdatedAt
			}
		}
	}

	o.recalculateTotal()
	o.UpdatedAt = line.UpdatedAt
	return nil
}

// RemoveLine removes a top-level line and its component lines
func (o *Order) RemoveLine(lineID uuid.UUID) error {
	if o.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be removed from draft orders")
	}
	idx := o.indexOfLine(lineID)
	if idx < 0 {
		return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
	}
	if o.Lines[idx].IsComponent() {
		return shared.NewDomainError("INVALID_STATE", "Bundle component lines cannot be removed directly")
	}

	kept := o.Lines[:0]
	for i := range o.Lines {
		l := o.Lines[i]
		if l.ID == lineID {
			continue
		}
		if l.ParentLineID != nil && *l.ParentLineID == lineID {
			continue
		}
		kept = append(kept, l)
	}
	o.Lines = kept
	o.recalculateTotal()
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirm transitions draft to confirmed. The application service
// performs customer, credit, quota and stock reservation checks.
func (o *Order) Confirm() error {
	if !o.Status.CanTransitionTo(StatusConfirmed) || o.Status != StatusDraft {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot confirm an order in %s status", o.Status)
	}
	if len(o.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot confirm an order without lines")
	}
	now := time.Now().UTC()
	o.Status = StatusConfirmed
	o.ConfirmedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderConfirmedEvent(o))
	return nil
}

// Schedule attaches the order to a trip
func (o *Order) Schedule(tripID uuid.UUID) error {
	if !o.Status.CanTransitionTo(StatusScheduled) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot schedule an order in %s status", o.Status)
	}
	if tripID == uuid.Nil {
		return shared.NewDomainError("INVALID_TRIP", "Trip ID cannot be empty")
	}
	o.Status = StatusScheduled
	o.TripID = &tripID
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Unschedule detaches the order from its trip, returning it to
// confirmed
func (o *Order) Unschedule() error {
	if o.Status != StatusScheduled {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot unschedule an order in %s status", o.Status)
	}
	o.Status = StatusConfirmed
	o.TripID = nil
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkEnRoute marks the order as out for delivery
func (o *Order) MarkEnRoute() error {
	if !o.Status.CanTransitionTo(StatusEnRoute) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot dispatch an order in %s status", o.Status)
	}
	o.Status = StatusEnRoute
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkDelivered marks the order as delivered
func (o *Order) MarkDelivered() error {
	if !o.Status.CanTransitionTo(StatusDelivered) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot deliver an order in %s status", o.Status)
	}
	now := time.Now().UTC()
	o.Status = StatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderDeliveredEvent(o))
	return nil
}

// MarkUndelivered returns an en-route order to confirmed after its
// stop failed or was skipped. The order detaches from the trip and can
// be rescheduled.
func (o *Order) MarkUndelivered() error {
	if o.Status != StatusEnRoute {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot return an order in %s status to confirmed", o.Status)
	}
	o.Status = StatusConfirmed
	o.TripID = nil
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel cancels the order. Reservations are released by the
// application service.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot cancel an order in %s status", o.Status)
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	now := time.Now().UTC()
	wasReserved := o.Status != StatusDraft
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.TripID = nil
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCancelledEvent(o, wasReserved))
	return nil
}

// StockDemand aggregates the stock-tracked quantities per variant
// needed to fulfil this order
func (o *Order) StockDemand() map[uuid.UUID]decimal.Decimal {
	demand := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range o.Lines {
		if l.Kind != catalog.KindAsset && l.Kind != catalog.KindConsumable {
			continue
		}
		demand[l.VariantID] = demand[l.VariantID].Add(l.Quantity)
	}
	return demand
}

// GetLine returns a line by ID, or nil
func (o *Order) GetLine(lineID uuid.UUID) *Line {
	idx := o.indexOfLine(lineID)
	if idx < 0 {
		return nil
	}
	return &o.Lines[idx]
}

// IsTerminal returns true for delivered or cancelled orders
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

func (o *Order) indexOfLine(lineID uuid.UUID) int {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// recalculateTotal keeps total_amount = sum of line totals
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.LineTotal)
	}
	o.TotalAmount = total
}

// String implements fmt.Stringer for log output
func (o *Order) String() string {
	return fmt.Sprintf("%s (%s)", o.OrderNumber, o.Status)
}
