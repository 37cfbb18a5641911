package inventory

import (
	"context"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/shared"
)

// ApplyDocument applies the movement semantics of a document to the
// stock level rows. It must run inside the same transaction that marks
// the document posted; a failed movement rolls the whole posting back.
func ApplyDocument(ctx context.Context, levels inventory.StockLevelRepository, doc *inventory.StockDocument) error {
	for i := range doc.Lines {
		if err := applyLine(ctx, levels, doc, &doc.Lines[i], false); err != nil {
			return err
		}
	}
	return nil
}

// ApplyReversal applies the opposite movements of a posted document.
// Used when a posted document is cancelled through an automatic
// reversal document.
func ApplyReversal(ctx context.Context, levels inventory.StockLevelRepository, doc *inventory.StockDocument) error {
	for i := range doc.Lines {
		if err := applyLine(ctx, levels, doc, &doc.Lines[i], true); err != nil {
			return err
		}
	}
	return nil
}

func applyLine(ctx context.Context, levels inventory.StockLevelRepository, doc *inventory.StockDocument, line *inventory.StockDocumentLine, reverse bool) error {
	tenantID := doc.TenantID
	qty := line.Quantity

	switch doc.Type {
	case inventory.DocTypeReceipt:
		to := inventory.BucketOnHand
		if line.ToBucket != nil {
			to = *line.ToBucket
		}
		lvl, err := levels.FindOrCreate(ctx, tenantID, doc.WarehouseID, line.VariantID, to)
		if err != nil {
			return err
		}
		if reverse {
			if err := lvl.Remove(qty); err != nil {
				return err
			}
		} else {
			if err := lvl.Add(qty, line.UnitCost); err != nil {
				return err
			}
		}
		return levels.SaveWithLock(ctx, lvl)

	case inventory.DocTypeIssue:
		from := inventory.BucketOnHand
		if line.FromBucket != nil {
			from = *line.FromBucket
		}
		lvl, err := levels.FindOrCreate(ctx, tenantID, doc.WarehouseID, line.VariantID, from)
		if err != nil {
			return err
		}
		if reverse {
			if err := lvl.Add(qty, nil); err != nil {
				return err
			}
		} else {
			if err := lvl.Remove(qty); err != nil {
				return err
			}
		}
		return levels.SaveWithLock(ctx, lvl)

	case inventory.DocTypeTransfer:
		if doc.DestWarehouseID == nil {
			return shared.NewDomainError("INVALID_STATE", "Transfer documents require a destination warehouse")
		}
		src, err := levels.FindOrCreate(ctx, tenantID, doc.WarehouseID, line.VariantID, inventory.BucketOnHand)
		if err != nil {
			return err
		}
		dst, err := levels.FindOrCreate(ctx, tenantID, *doc.DestWarehouseID, line.VariantID, inventory.BucketInTransit)
		if err != nil {
			return err
		}
		if reverse {
			if err := dst.Remove(qty); err != nil {
				return err
			}
			cost := dst.UnitCost
			if err := src.Add(qty, &cost); err != nil {
				return err
			}
		} else {
			cost := src.UnitCost
			if err := src.Remove(qty); err != nil {
				return err
			}
			if err := dst.Add(qty, &cost); err != nil {
				return err
			}
		}
		return saveLevels(ctx, levels, src, dst)

	case inventory.DocTypeTransferReceipt:
		if doc.DestWarehouseID == nil {
			return shared.NewDomainError("INVALID_STATE", "Transfer receipts require a destination warehouse")
		}
		transit, err := levels.FindOrCreate(ctx, tenantID, *doc.DestWarehouseID, line.VariantID, inventory.BucketInTransit)
		if err != nil {
			return err
		}
		onHand, err := levels.FindOrCreate(ctx, tenantID, *doc.DestWarehouseID, line.VariantID, inventory.BucketOnHand)
		if err != nil {
			return err
		}
		if reverse {
			if err := onHand.Remove(qty); err != nil {
				return err
			}
			cost := onHand.UnitCost
			if err := transit.Add(qty, &cost); err != nil {
				return err
			}
		} else {
			cost := transit.UnitCost
			if err := transit.Remove(qty); err != nil {
				return err
			}
			if err := onHand.Add(qty, &cost); err != nil {
				return err
			}
		}
		return saveLevels(ctx, levels, transit, onHand)

	case inventory.DocTypeAdjustment:
		if line.ToBucket == nil {
			return shared.NewDomainError("INVALID_BUCKET", "Adjustment lines require a target bucket")
		}
		lvl, err := levels.FindOrCreate(ctx, tenantID, doc.WarehouseID, line.VariantID, *line.ToBucket)
		if err != nil {
			return err
		}
		delta := qty
		if reverse {
			delta = delta.Neg()
		}
		if err := lvl.AdjustBy(delta); err != nil {
			return err
		}
		return levels.SaveWithLock(ctx, lvl)

	case inventory.DocTypeReclassify:
		if line.FromBucket == nil || line.ToBucket == nil {
			return shared.NewDomainError("INVALID_BUCKET", "Reclassify lines require from and to buckets")
		}
		fromBucket, toBucket := *line.FromBucket, *line.ToBucket
		if reverse {
			fromBucket, toBucket = toBucket, fromBucket
		}
		return moveBetweenBuckets(ctx, levels, doc, line, fromBucket, toBucket)

	case inventory.DocTypeLoad:
		fromBucket, toBucket := inventory.BucketOnHand, inventory.BucketTruckStock
		if reverse {
			fromBucket, toBucket = toBucket, fromBucket
		}
		return moveBetweenBuckets(ctx, levels, doc, line, fromBucket, toBucket)

	case inventory.DocTypeUnload:
		if line.ToBucket == nil {
			return shared.NewDomainError("INVALID_BUCKET", "Unload lines require a target bucket")
		}
		fromBucket, toBucket := inventory.BucketTruckStock, *line.ToBucket
		if reverse {
			fromBucket, toBucket = toBucket, fromBucket
		}
		return moveBetweenBuckets(ctx, levels, doc, line, fromBucket, toBucket)

	default:
		return shared.NewDomainErrorf("INVALID_DOC_TYPE", "Unknown document type %q", doc.Type)
	}
}

// moveBetweenBuckets shifts quantity between two buckets of the same
// warehouse, carrying the weighted-average cost along
func moveBetweenBuckets(ctx context.Context, levels inventory.StockLevelRepository, doc *inventory.StockDocument, line *inventory.StockDocumentLine, from, to inventory.Bucket) error {
	src, err := levels.FindOrCreate(ctx, doc.TenantID, doc.WarehouseID, line.VariantID, from)
	if err != nil {
		return err
	}
	dst, err := levels.FindOrCreate(ctx, doc.TenantID, doc.WarehouseID, line.VariantID, to)
	if err != nil {
		return err
	}
	cost := src.UnitCost
	if err := src.Remove(line.Quantity); err != nil {
		return err
	}
	if err := dst.Add(line.Quantity, &cost); err != nil {
		return err
	}
	return saveLevels(ctx, levels, src, dst)
}

func saveLevels(ctx context.Context, levels inventory.StockLevelRepository, rows ...*inventory.StockLevel) error {
	for _, row := range rows {
		if err := levels.SaveWithLock(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
