package inventory

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockDemand is one stock-tracked requirement an order places on a
// warehouse
type StockDemand struct {
	VariantID uuid.UUID
	Quantity  decimal.Decimal
}

// ReserveForOrder earmarks on-hand stock for an order's stock-tracked
// demands. Available quantity must cover every demand or the caller's
// transaction rolls back.
func ReserveForOrder(ctx context.Context, levels inventory.StockLevelRepository, resvs inventory.ReservationRepository, tenantID, orderID, warehouseID uuid.UUID, demands []StockDemand, expiresAt *time.Time) error {
	reservations := make([]*inventory.StockReservation, 0, len(demands))
	for _, d := range demands {
		lvl, err := levels.FindOrCreate(ctx, tenantID, warehouseID, d.VariantID, inventory.BucketOnHand)
		if err != nil {
			return err
		}
		if err := lvl.Reserve(d.Quantity); err != nil {
			return err
		}
		if err := levels.SaveWithLock(ctx, lvl); err != nil {
			return err
		}
		r, err := inventory.NewStockReservation(tenantID, orderID, warehouseID, d.VariantID, d.Quantity, expiresAt)
		if err != nil {
			return err
		}
		reservations = append(reservations, r)
	}
	if len(reservations) == 0 {
		return nil
	}
	return resvs.SaveBatch(ctx, reservations)
}

// ReleaseOrderReservations returns an order's active reservations to
// the available pool. Used on order cancellation and expiry.
func ReleaseOrderReservations(ctx context.Context, levels inventory.StockLevelRepository, resvs inventory.ReservationRepository, tenantID, orderID uuid.UUID) error {
	active, err := resvs.FindActiveByOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	for i := range active {
		r := &active[i]
		if err := r.Release(); err != nil {
			return err
		}
		lvl, err := levels.FindOrCreate(ctx, tenantID, r.WarehouseID, r.VariantID, r.Bucket)
		if err != nil {
			return err
		}
		if err := lvl.ReleaseReservation(r.Quantity); err != nil {
			return err
		}
		if err := levels.SaveWithLock(ctx, lvl); err != nil {
			return err
		}
		if err := resvs.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeOrderReservations marks an order's active reservations
// consumed and frees the earmark on the level rows. The consuming
// document's own movement removes the quantity in the same
// transaction.
func ConsumeOrderReservations(ctx context.Context, levels inventory.StockLevelRepository, resvs inventory.ReservationRepository, tenantID, orderID uuid.UUID) error {
	active, err := resvs.FindActiveByOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	for i := range active {
		r := &active[i]
		if err := r.Consume(); err != nil {
			return err
		}
		lvl, err := levels.FindOrCreate(ctx, tenantID, r.WarehouseID, r.VariantID, r.Bucket)
		if err != nil {
			return err
		}
		if err := lvl.ReleaseReservation(r.Quantity); err != nil {
			return err
		}
		if err := levels.SaveWithLock(ctx, lvl); err != nil {
			return err
		}
		if err := resvs.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
