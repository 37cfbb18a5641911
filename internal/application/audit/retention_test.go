package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// retentionRepo keeps events in memory and filters by cutoff
type retentionRepo struct {
	fakeRepo
	events []audit.Event
}

func (r *retentionRepo) FindPurgeable(ctx context.Context, tenantID uuid.UUID, before time.Time, limit int) ([]audit.Event, error) {
	var out []audit.Event
	for _, e := range r.events {
		if e.TenantID == tenantID && e.OccurredAt.Before(before) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *retentionRepo) DeleteByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.events[:0]
	for _, e := range r.events {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	r.events = kept
	return nil
}

// singleTenantRepo lists exactly one tenant
type singleTenantRepo struct {
	t *tenant.Tenant
}

func (r *singleTenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.t, nil
}

func (r *singleTenantRepo) FindBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.t, nil
}

func (r *singleTenantRepo) FindAll(ctx context.Context, filter shared.Filter) ([]tenant.Tenant, error) {
	return []tenant.Tenant{*r.t}, nil
}

func (r *singleTenantRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return 1, nil
}

func (r *singleTenantRepo) Save(ctx context.Context, t *tenant.Tenant) error { return nil }

// noSubscriptions makes every tenant fall back to the default window
type noSubscriptions struct{}

func (noSubscriptions) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Subscription, error) {
	return nil, shared.ErrNotFound
}

func (noSubscriptions) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*tenant.Subscription, error) {
	return nil, shared.ErrNotFound
}

func (noSubscriptions) FindByStripeSubID(ctx context.Context, stripeSubID string) (*tenant.Subscription, error) {
	return nil, shared.ErrNotFound
}

func (noSubscriptions) Save(ctx context.Context, s *tenant.Subscription) error { return nil }

type noPlans struct{}

func (noPlans) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Plan, error) {
	return nil, shared.ErrNotFound
}

func (noPlans) FindByCode(ctx context.Context, code string) (*tenant.Plan, error) {
	return nil, shared.ErrNotFound
}

func (noPlans) FindActive(ctx context.Context) ([]tenant.Plan, error) { return nil, nil }

func (noPlans) Save(ctx context.Context, p *tenant.Plan) error { return nil }

// fakeStorage records archived objects, optionally failing every Put
type fakeStorage struct {
	keys   []string
	putErr error
}

func (f *fakeStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.keys = append(f.keys, key)
	return nil
}

func agedEvents(t *testing.T, tenantID uuid.UUID, n int, age time.Duration) []audit.Event {
	t.Helper()
	out := make([]audit.Event, 0, n)
	for i := 0; i < n; i++ {
		e, err := audit.NewEvent(tenantID, audit.Input{
			OccurredAt: time.Now().UTC().Add(-age),
			Action:     "order.confirmed",
			EntityType: "order",
			EntityID:   uuid.NewString(),
		})
		require.NoError(t, err)
		out = append(out, *e)
	}
	return out
}

func TestRetentionPurge(t *testing.T) {
	tn, err := tenant.NewTenant("Norte Gas", "norte-gas")
	require.NoError(t, err)

	newService := func(repo *retentionRepo, storage *fakeStorage) *RetentionService {
		return NewRetentionService(
			repo, &singleTenantRepo{t: tn}, noSubscriptions{}, noPlans{},
			storage, 90, zap.NewNop(),
		)
	}

	t.Run("expired events are archived and then deleted", func(t *testing.T) {
		repo := &retentionRepo{}
		repo.events = append(repo.events, agedEvents(t, tn.ID, 3, 120*24*time.Hour)...)
		repo.events = append(repo.events, agedEvents(t, tn.ID, 2, 24*time.Hour)...)
		storage := &fakeStorage{}

		require.NoError(t, newService(repo, storage).Run(context.Background()))

		assert.Len(t, repo.events, 2, "events inside the window must survive")
		require.Len(t, storage.keys, 1)
		assert.Contains(t, storage.keys[0], "audit-archive/"+tn.ID.String())
	})

	t.Run("storage failure keeps the rows for the next sweep", func(t *testing.T) {
		repo := &retentionRepo{}
		repo.events = append(repo.events, agedEvents(t, tn.ID, 3, 120*24*time.Hour)...)
		storage := &fakeStorage{putErr: errors.New("bucket unavailable")}

		// per-tenant failures are logged, the sweep itself succeeds
		require.NoError(t, newService(repo, storage).Run(context.Background()))

		assert.Len(t, repo.events, 3, "nothing may be deleted before it is archived")
	})
}
