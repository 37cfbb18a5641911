package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// Document number kinds. The kind doubles as the number prefix.
const (
	NumberKindStockDoc = "SD"
	NumberKindOrder    = "SO"
	NumberKindTrip     = "TR"
	NumberKindDelivery = "DN"
	NumberKindInvoice  = "INV"
	NumberKindPayment  = "PAY"
)

// NextDocNumber issues the next formatted document number for the
// kind, e.g. SD-2026-000042. Sequences run per (tenant, kind, year).
func NextDocNumber(ctx context.Context, seqs inventory.NumberSequenceRepository, tenantID uuid.UUID, kind string, at time.Time) (string, error) {
	year := at.UTC().Year()
	n, err := seqs.Next(ctx, tenantID, kind, year)
	if err != nil {
		return "", fmt.Errorf("failed to issue %s number: %w", kind, err)
	}
	return fmt.Sprintf("%s-%d-%06d", kind, year, n), nil
}
