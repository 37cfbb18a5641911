package inventory

import (
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType identifies the movement semantics of a stock document
type DocumentType string

const (
	DocTypeReceipt         DocumentType = "receipt"
	DocTypeIssue           DocumentType = "issue"
	DocTypeTransfer        DocumentType = "transfer"
	DocTypeTransferReceipt DocumentType = "transfer_receipt"
	DocTypeAdjustment      DocumentType = "adjustment"
	DocTypeReclassify      DocumentType = "reclassify"
	DocTypeLoad            DocumentType = "load"
	DocTypeUnload          DocumentType = "unload"
)

// IsValid checks if the type is a known document type
func (t DocumentType) IsValid() bool {
	switch t {
	case DocTypeReceipt, DocTypeIssue, DocTypeTransfer, DocTypeTransferReceipt,
		DocTypeAdjustment, DocTypeReclassify, DocTypeLoad, DocTypeUnload:
		return true
	}
	return false
}

// RequiresDestination reports whether the type moves stock toward a
// second warehouse
func (t DocumentType) RequiresDestination() bool {
	return t == DocTypeTransfer || t == DocTypeTransferReceipt
}

// DocumentStatus represents the lifecycle status of a stock document
type DocumentStatus string

const (
	DocStatusDraft     DocumentStatus = "draft"
	DocStatusPosted    DocumentStatus = "posted"
	DocStatusCancelled DocumentStatus = "cancelled"
)

// DocumentRef links a stock document to the business document that
// caused it
type DocumentRef struct {
	TripID     *uuid.UUID
	OrderID    *uuid.UUID
	DocumentID *uuid.UUID // reversal target or transfer being received
}

// StockDocumentLine is one movement line. Quantity is positive for
// every type except adjustment, which allows a signed delta.
type StockDocumentLine struct {
	ID         uuid.UUID
	VariantID  uuid.UUID
	Quantity   decimal.Decimal
	FromBucket *Bucket
	ToBucket   *Bucket
	UnitCost   *decimal.Decimal
}

// StockDocument is the stock movement journal entry. Posting applies
// the movement to stock levels in one transaction; a posted document
// is cancelled by posting an automatic reversal that refs it.
type StockDocument struct {
	shared.TenantAggregateRoot
	DocNumber       string
	Type            DocumentType
	Status          DocumentStatus
	WarehouseID     uuid.UUID
	DestWarehouseID *uuid.UUID
	Ref             DocumentRef
	Reason          string
	PostedAt        *time.Time
	CancelledAt     *time.Time
	Lines           []StockDocumentLine
}

// NewStockDocument creates a draft stock document
func NewStockDocument(tenantID uuid.UUID, docNumber string, docType DocumentType, warehouseID uuid.UUID) (*StockDocument, error) {
	if docNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOC_NUMBER", "Document number cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", fmt.Sprintf("Unknown document type %q", docType))
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	return &StockDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DocNumber:           docNumber,
		Type:                docType,
		Status:              DocStatusDraft,
		WarehouseID:         warehouseID,
		Lines:               make([]StockDocumentLine, 0),
	}, nil
}

// SetDestination sets the destination warehouse for transfer types
func (d *StockDocument) SetDestination(warehouseID uuid.UUID) error {
	if !d.Type.RequiresDestination() {
		return shared.NewDomainError("INVALID_STATE", "Only transfer documents have a destination warehouse")
	}
	if warehouseID == uuid.Nil || warehouseID == d.WarehouseID {
		return shared.NewDomainError("INVALID_WAREHOUSE", "Destination must be a different warehouse")
	}
	d.DestWarehouseID = &warehouseID
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// SetReason records the human reason for the movement. Required for
// adjustments.
func (d *StockDocument) SetReason(reason string) {
	d.Reason = reason
	d.UpdatedAt = time.Now().UTC()
}

// SetRef links the document to its originating business document
func (d *StockDocument) SetRef(ref DocumentRef) {
	d.Ref = ref
	d.UpdatedAt = time.Now().UTC()
}

// AddLine appends a movement line, validating it against the document
// type. Lines are mutable only in draft.
func (d *StockDocument) AddLine(line StockDocumentLine) error {
	if d.Status != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be added to draft documents")
	}
	if line.VariantID == uuid.Nil {
		return shared.NewDomainError("INVALID_VARIANT", "Line variant ID cannot be empty")
	}
	if err := d.validateLineQuantity(line); err != nil {
		return err
	}
	if err := d.validateLineBuckets(line); err != nil {
		return err
	}
	if line.UnitCost != nil && line.UnitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	d.Lines = append(d.Lines, line)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveLine deletes a line from a draft document
func (d *StockDocument) RemoveLine(lineID uuid.UUID) error {
	if d.Status != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be removed from draft documents")
	}
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "Document line not found")
}

// MarkPosted transitions draft to posted. The application service
// applies the stock level movements in the same transaction.
func (d *StockDocument) MarkPosted() error {
	if d.Status != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot post a %s document", d.Status))
	}
	if len(d.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot post a document without lines")
	}
	if d.Type.RequiresDestination() && d.DestWarehouseID == nil {
		return shared.NewDomainError("INVALID_STATE", "Transfer documents require a destination warehouse")
	}
	if d.Type == DocTypeAdjustment && d.Reason == "" {
		return shared.NewDomainError("INVALID_STATE", "Adjustments require a reason")
	}
	now := time.Now().UTC()
	d.Status = DocStatusPosted
	d.PostedAt = &now
	d.UpdatedAt = now
	d.AddDomainEvent(NewStockDocumentPostedEvent(d))
	return nil
}

// MarkCancelled cancels a draft in place, or finalizes the cancel of
// a posted document after its reversal has been posted.
func (d *StockDocument) MarkCancelled() error {
	if d.Status == DocStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Document is already cancelled")
	}
	now := time.Now().UTC()
	d.Status = DocStatusCancelled
	d.CancelledAt = &now
	d.UpdatedAt = now
	return nil
}

// IsPosted returns true when the movement has been applied
func (d *StockDocument) IsPosted() bool {
	return d.Status == DocStatusPosted
}

// TotalQuantity returns the sum of absolute line quantities
func (d *StockDocument) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.Quantity.Abs())
	}
	return total
}

func (d *StockDocument) validateLineQuantity(line StockDocumentLine) error {
	if d.Type == DocTypeAdjustment {
		if line.Quantity.IsZero() {
			return shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
		}
		return nil
	}
	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	return nil
}

func (d *StockDocument) validateLineBuckets(line StockDocumentLine) error {
	if line.FromBucket != nil && !line.FromBucket.IsValid() {
		return shared.NewDomainError("INVALID_BUCKET", "Unknown from-bucket")
	}
	if line.ToBucket != nil && !line.ToBucket.IsValid() {
		return shared.NewDomainError("INVALID_BUCKET", "Unknown to-bucket")
	}
	switch d.Type {
	case DocTypeReclassify:
		if line.FromBucket == nil || line.ToBucket == nil {
			return shared.NewDomainError("INVALID_BUCKET", "Reclassify lines require from and to buckets")
		}
		if *line.FromBucket == *line.ToBucket {
			return shared.NewDomainError("INVALID_BUCKET", "Reclassify buckets must differ")
		}
	case DocTypeAdjustment:
		if line.ToBucket == nil {
			return shared.NewDomainError("INVALID_BUCKET", "Adjustment lines require a target bucket")
		}
	case DocTypeUnload:
		if line.ToBucket == nil {
			return shared.NewDomainError("INVALID_BUCKET", "Unload lines require a target bucket")
		}
		if *line.ToBucket != BucketOnHand && *line.ToBucket != BucketQuarantine {
			return shared.NewDomainError("INVALID_BUCKET", "Unload targets on_hand or quarantine")
		}
	}
	return nil
}
