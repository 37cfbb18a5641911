// Package inventory implements warehouse and stock use cases: bucketed
// stock levels, the stock document journal with its movement engine,
// and order reservations.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarehouseQuota guards warehouse creation against the tenant's plan
// limits
type WarehouseQuota interface {
	CheckWarehouseQuota(ctx context.Context, tenantID uuid.UUID) error
}

// Service implements inventory use cases
type Service struct {
	warehouses   inventory.WarehouseRepository
	levels       inventory.StockLevelRepository
	documents    inventory.StockDocumentRepository
	reservations inventory.ReservationRepository
	variants     catalog.VariantRepository
	scope        TransactionScope
	quota        WarehouseQuota
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewService creates a new inventory service
func NewService(
	warehouses inventory.WarehouseRepository,
	levels inventory.StockLevelRepository,
	documents inventory.StockDocumentRepository,
	reservations inventory.ReservationRepository,
	variants catalog.VariantRepository,
	scope TransactionScope,
	quota WarehouseQuota,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		warehouses:   warehouses,
		levels:       levels,
		documents:    documents,
		reservations: reservations,
		variants:     variants,
		scope:        scope,
		quota:        quota,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateWarehouse registers a new depot, subject to the plan's
// warehouse quota
func (s *Service) CreateWarehouse(ctx context.Context, tenantID uuid.UUID, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	if err := s.quota.CheckWarehouseQuota(ctx, tenantID); err != nil {
		return nil, err
	}

	w, err := inventory.NewWarehouse(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Address != "" {
		if err := w.Update(w.Name, req.Address); err != nil {
			return nil, err
		}
	}

	exists, err := s.warehouses.ExistsByCode(ctx, tenantID, w.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Warehouse with code %q already exists", w.Code)
	}

	if err := s.warehouses.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}
	s.logger.Info("warehouse created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("warehouse_id", w.ID.String()),
		zap.String("code", w.Code),
	)
	return ToWarehouseResponse(w), nil
}

// UpdateWarehouse changes the mutable warehouse fields
func (s *Service) UpdateWarehouse(ctx context.Context, tenantID, id uuid.UUID, req UpdateWarehouseRequest) (*WarehouseResponse, error) {
	w, err := s.warehouses.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := w.Update(req.Name, req.Address); err != nil {
		return nil, err
	}
	if err := s.warehouses.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}
	return ToWarehouseResponse(w), nil
}

// DeactivateWarehouse retires a warehouse that holds no stock
func (s *Service) DeactivateWarehouse(ctx context.Context, tenantID, id uuid.UUID) (*WarehouseResponse, error) {
	w, err := s.warehouses.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	hasStock, err := s.levels.HasStock(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check remaining stock: %w", err)
	}
	if hasStock {
		return nil, shared.NewDomainError("INVALID_STATE", "Warehouse still holds stock or reservations")
	}
	if err := w.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.warehouses.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}
	return ToWarehouseResponse(w), nil
}

// ActivateWarehouse re-enables a warehouse
func (s *Service) ActivateWarehouse(ctx context.Context, tenantID, id uuid.UUID) (*WarehouseResponse, error) {
	w, err := s.warehouses.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := w.Activate(); err != nil {
		return nil, err
	}
	if err := s.warehouses.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}
	return ToWarehouseResponse(w), nil
}

// GetWarehouse returns one warehouse
func (s *Service) GetWarehouse(ctx context.Context, tenantID, id uuid.UUID) (*WarehouseResponse, error) {
	w, err := s.warehouses.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToWarehouseResponse(w), nil
}

// ListWarehouses returns a page of warehouses
func (s *Service) ListWarehouses(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[WarehouseResponse], error) {
	filter.Normalize()
	warehouses, err := s.warehouses.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	total, err := s.warehouses.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count warehouses: %w", err)
	}
	items := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		items[i] = *ToWarehouseResponse(&warehouses[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListStockLevels returns a page of bucketed stock rows
func (s *Service) ListStockLevels(ctx context.Context, tenantID uuid.UUID, filter StockLevelFilter) (*shared.Paginated[StockLevelResponse], error) {
	query := inventory.StockLevelQuery{NonZeroOnly: filter.NonZeroOnly}
	if filter.WarehouseID != "" {
		id, err := uuid.Parse(filter.WarehouseID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid warehouse ID")
		}
		query.WarehouseID = &id
	}
	if filter.VariantID != "" {
		id, err := uuid.Parse(filter.VariantID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid variant ID")
		}
		query.VariantID = &id
	}
	if filter.Bucket != "" {
		b := inventory.Bucket(filter.Bucket)
		if !b.IsValid() {
			return nil, shared.NewDomainErrorf("INVALID_BUCKET", "Unknown stock bucket %q", filter.Bucket)
		}
		query.Bucket = &b
	}

	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}
	f.Normalize()

	rows, err := s.levels.List(ctx, tenantID, query, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock levels: %w", err)
	}
	total, err := s.levels.CountList(ctx, tenantID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count stock levels: %w", err)
	}
	items := make([]StockLevelResponse, len(rows))
	for i := range rows {
		items[i] = *ToStockLevelResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// CreateDocument creates a draft stock document, optionally with lines
func (s *Service) CreateDocument(ctx context.Context, tenantID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	var resp *DocumentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doc, err := s.buildDocument(ctx, repos, tenantID, inventory.DocumentType(req.Type), req.WarehouseID, req.DestWarehouseID, req.Reason, req.RefDocumentID, req.Lines)
		if err != nil {
			return err
		}
		if err := repos.StockDocuments().Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		resp = ToDocumentResponse(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AddDocumentLine appends a line to a draft document
func (s *Service) AddDocumentLine(ctx context.Context, tenantID, id uuid.UUID, req DocumentLineRequest) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateTrackedVariants(ctx, tenantID, []DocumentLineRequest{req}); err != nil {
		return nil, err
	}
	if err := doc.AddLine(toDomainLine(req)); err != nil {
		return nil, err
	}
	if err := s.documents.SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

// RemoveDocumentLine removes a line from a draft document
func (s *Service) RemoveDocumentLine(ctx context.Context, tenantID, id, lineID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := doc.RemoveLine(lineID); err != nil {
		return nil, err
	}
	if err := s.documents.SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

// PostDocument applies a draft document's movements and marks it
// posted, all in one transaction
func (s *Service) PostDocument(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	var doc *inventory.StockDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.StockDocuments().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := doc.MarkPosted(); err != nil {
			return err
		}
		if err := ApplyDocument(ctx, repos.StockLevels(), doc); err != nil {
			return err
		}
		return repos.StockDocuments().SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	s.logger.Info("stock document posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("doc_number", doc.DocNumber),
		zap.String("type", string(doc.Type)),
	)
	return ToDocumentResponse(doc), nil
}

// CancelDocument cancels a document. Drafts cancel in place; posted
// documents cancel by posting an automatic reversal that refs the
// original.
func (s *Service) CancelDocument(ctx context.Context, tenantID, id uuid.UUID, reason string) (*DocumentResponse, error) {
	var doc *inventory.StockDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.StockDocuments().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		switch doc.Status {
		case inventory.DocStatusDraft:
			if err := doc.MarkCancelled(); err != nil {
				return err
			}
			return repos.StockDocuments().SaveWithLock(ctx, doc)

		case inventory.DocStatusPosted:
			reversal, err := s.buildReversal(ctx, repos, doc, reason)
			if err != nil {
				return err
			}
			if err := ApplyReversal(ctx, repos.StockLevels(), doc); err != nil {
				return err
			}
			if err := repos.StockDocuments().Save(ctx, reversal); err != nil {
				return fmt.Errorf("failed to save reversal: %w", err)
			}
			if err := doc.MarkCancelled(); err != nil {
				return err
			}
			return repos.StockDocuments().SaveWithLock(ctx, doc)

		default:
			return shared.NewDomainError("INVALID_STATE", "Document is already cancelled")
		}
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock document cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("doc_number", doc.DocNumber),
	)
	return ToDocumentResponse(doc), nil
}

// buildReversal creates the posted reversal document for a posted
// original. Type and lines are preserved; posting applies the opposite
// movements.
func (s *Service) buildReversal(ctx context.Context, repos TransactionalRepositories, original *inventory.StockDocument, reason string) (*inventory.StockDocument, error) {
	number, err := NextDocNumber(ctx, repos.Sequences(), original.TenantID, NumberKindStockDoc, time.Now())
	if err != nil {
		return nil, err
	}
	reversal, err := inventory.NewStockDocument(original.TenantID, number, original.Type, original.WarehouseID)
	if err != nil {
		return nil, err
	}
	if original.DestWarehouseID != nil {
		if err := reversal.SetDestination(*original.DestWarehouseID); err != nil {
			return nil, err
		}
	}
	if reason == "" {
		reason = fmt.Sprintf("Reversal of %s", original.DocNumber)
	}
	reversal.SetReason(reason)
	reversal.SetRef(inventory.DocumentRef{DocumentID: &original.ID})
	for _, line := range original.Lines {
		line.ID = uuid.Nil
		if err := reversal.AddLine(line); err != nil {
			return nil, err
		}
	}
	if err := reversal.MarkPosted(); err != nil {
		return nil, err
	}
	return reversal, nil
}

// GetDocument returns one document with its lines
func (s *Service) GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

// ListDocuments returns a page of stock documents
func (s *Service) ListDocuments(ctx context.Context, tenantID uuid.UUID, filter DocumentListFilter) (*shared.Paginated[DocumentResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if filter.Type != "" {
		f.Filters["type"] = filter.Type
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.WarehouseID != "" {
		f.Filters["warehouse_id"] = filter.WarehouseID
	}
	f.Normalize()

	docs, err := s.documents.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	total, err := s.documents.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = *ToDocumentResponse(&docs[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Receive builds and posts a receipt in one step
func (s *Service) Receive(ctx context.Context, tenantID uuid.UUID, req DirectMovementRequest) (*DocumentResponse, error) {
	return s.buildAndPost(ctx, tenantID, inventory.DocTypeReceipt, req)
}

// Issue builds and posts an issue in one step (counter sales, losses)
func (s *Service) Issue(ctx context.Context, tenantID uuid.UUID, req DirectMovementRequest) (*DocumentResponse, error) {
	return s.buildAndPost(ctx, tenantID, inventory.DocTypeIssue, req)
}

// Transfer builds and posts a transfer toward another warehouse
func (s *Service) Transfer(ctx context.Context, tenantID uuid.UUID, req DirectMovementRequest) (*DocumentResponse, error) {
	return s.buildAndPost(ctx, tenantID, inventory.DocTypeTransfer, req)
}

// ReceiveTransfer builds and posts a transfer receipt for in-transit
// stock. Partial receives are allowed; the remainder stays in transit.
func (s *Service) ReceiveTransfer(ctx context.Context, tenantID uuid.UUID, req DirectMovementRequest) (*DocumentResponse, error) {
	return s.buildAndPost(ctx, tenantID, inventory.DocTypeTransferReceipt, req)
}

// Adjust builds and posts a signed adjustment. A reason is required.
func (s *Service) Adjust(ctx context.Context, tenantID uuid.UUID, req DirectMovementRequest) (*DocumentResponse, error) {
	return s.buildAndPost(ctx, tenantID, inventory.DocTypeAdjustment, req)
}

// Reclassify builds and posts a bucket-to-bucket move within a
// warehouse
func (s *Service) Reclassify(ctx context.Context, tenantID uuid.UUID, req DirectMovementRequest) (*DocumentResponse, error) {
	return s.buildAndPost(ctx, tenantID, inventory.DocTypeReclassify, req)
}

func (s *Service) buildAndPost(ctx context.Context, tenantID uuid.UUID, docType inventory.DocumentType, req DirectMovementRequest) (*DocumentResponse, error) {
	var doc *inventory.StockDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = s.buildDocument(ctx, repos, tenantID, docType, req.WarehouseID, req.DestWarehouseID, req.Reason, req.RefDocumentID, req.Lines)
		if err != nil {
			return err
		}
		if err := doc.MarkPosted(); err != nil {
			return err
		}
		if err := ApplyDocument(ctx, repos.StockLevels(), doc); err != nil {
			return err
		}
		return repos.StockDocuments().Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)
	s.logger.Info("stock movement posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("doc_number", doc.DocNumber),
		zap.String("type", string(docType)),
	)
	return ToDocumentResponse(doc), nil
}

// buildDocument assembles a draft document with validated lines and a
// fresh document number
func (s *Service) buildDocument(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, docType inventory.DocumentType, warehouseID uuid.UUID, destWarehouseID *uuid.UUID, reason string, refDocumentID *uuid.UUID, lines []DocumentLineRequest) (*inventory.StockDocument, error) {
	w, err := s.warehouses.FindByID(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if !w.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Warehouse is inactive")
	}

	number, err := NextDocNumber(ctx, repos.Sequences(), tenantID, NumberKindStockDoc, time.Now())
	if err != nil {
		return nil, err
	}
	doc, err := inventory.NewStockDocument(tenantID, number, docType, warehouseID)
	if err != nil {
		return nil, err
	}
	if destWarehouseID != nil {
		if err := doc.SetDestination(*destWarehouseID); err != nil {
			return nil, err
		}
	}
	if reason != "" {
		doc.SetReason(reason)
	}
	if refDocumentID != nil {
		doc.SetRef(inventory.DocumentRef{DocumentID: refDocumentID})
	}

	if err := s.validateTrackedVariants(ctx, tenantID, lines); err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := doc.AddLine(toDomainLine(line)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// validateTrackedVariants rejects lines whose variant does not track
// stock (deposits, bundles)
func (s *Service) validateTrackedVariants(ctx context.Context, tenantID uuid.UUID, lines []DocumentLineRequest) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.VariantID)
	}
	variants, err := s.variants.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve line variants: %w", err)
	}
	tracked := make(map[uuid.UUID]bool, len(variants))
	for i := range variants {
		tracked[variants[i].ID] = variants[i].TrackStock
	}
	for _, l := range lines {
		isTracked, ok := tracked[l.VariantID]
		if !ok {
			return shared.NewDomainError("INVALID_VARIANT", "Line variant does not exist")
		}
		if !isTracked {
			return shared.NewDomainError("INVALID_VARIANT", "Line variant does not track stock")
		}
	}
	return nil
}

// ListReservations returns a page of stock reservations
func (s *Service) ListReservations(ctx context.Context, tenantID uuid.UUID, filter ReservationListFilter) (*shared.Paginated[ReservationResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.OrderID != "" {
		f.Filters["order_id"] = filter.OrderID
	}
	f.Normalize()

	rows, err := s.reservations.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	total, err := s.reservations.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}
	items := make([]ReservationResponse, len(rows))
	for i := range rows {
		items[i] = *ToReservationResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// ExpireReservations releases reservations past their expiry. Run by
// the cron job; returns how many were released.
func (s *Service) ExpireReservations(ctx context.Context, now time.Time, limit int) (int, error) {
	expired, err := s.reservations.FindExpired(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired reservations: %w", err)
	}
	released := 0
	for i := range expired {
		r := expired[i]
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := r.Release(); err != nil {
				return err
			}
			lvl, err := repos.StockLevels().FindOrCreate(ctx, r.TenantID, r.WarehouseID, r.VariantID, r.Bucket)
			if err != nil {
				return err
			}
			if err := lvl.ReleaseReservation(r.Quantity); err != nil {
				return err
			}
			if err := repos.StockLevels().SaveWithLock(ctx, lvl); err != nil {
				return err
			}
			return repos.Reservations().Save(ctx, &r)
		})
		if err != nil {
			s.logger.Warn("failed to expire reservation",
				zap.String("reservation_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		released++
	}
	if released > 0 {
		s.logger.Info("expired reservations released", zap.Int("count", released))
	}
	return released, nil
}

func (s *Service) publishEvents(ctx context.Context, doc *inventory.StockDocument) {
	events := doc.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish inventory events",
			zap.String("doc_number", doc.DocNumber),
			zap.Error(err),
		)
	}
	doc.ClearDomainEvents()
}
