package jobs

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// drainMaxBatches caps how many fallback batches one drain run replays
const drainMaxBatches = 50

// ReservationExpirer releases stock reservations past their expiry
type ReservationExpirer interface {
	ExpireReservations(ctx context.Context, now time.Time, limit int) (int, error)
}

// AuditDrainer replays audit batches parked in the fallback queue
type AuditDrainer interface {
	Drain(ctx context.Context, maxBatches int) (int, error)
}

// AuditPurger sweeps audit events past their retention window
type AuditPurger interface {
	Run(ctx context.Context) error
}

// RegisterAll wires the standard background jobs onto the runner
// using the configured cron specs
func RegisterAll(
	r *Runner,
	cfg config.JobsConfig,
	batchSize int,
	expirer ReservationExpirer,
	drainer AuditDrainer,
	purger AuditPurger,
) error {
	if err := r.Register("reservation_expiry", cfg.ReservationExpirySpec, func(ctx context.Context) error {
		released, err := expirer.ExpireReservations(ctx, time.Now(), batchSize)
		if err != nil {
			return err
		}
		if released > 0 {
			r.logger.Info("Expired reservations released", zap.Int("count", released))
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.Register("audit_drain", cfg.AuditDrainSpec, func(ctx context.Context) error {
		replayed, err := drainer.Drain(ctx, drainMaxBatches)
		if err != nil {
			return err
		}
		if replayed > 0 {
			r.logger.Info("Audit fallback batches replayed", zap.Int("count", replayed))
		}
		return nil
	}); err != nil {
		return err
	}

	return r.Register("audit_purge", cfg.AuditPurgeSpec, func(ctx context.Context) error {
		return purger.Run(ctx)
	})
}
