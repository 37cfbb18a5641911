package tenant

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("valid slug", func(t *testing.T) {
		tn, err := NewTenant("Acme Gas", "acme-gas")
		require.NoError(t, err)
		assert.Equal(t, TenantStatusActive, tn.Status)
	})

	t.Run("slug is normalized and validated", func(t *testing.T) {
		tn, err := NewTenant("Acme Gas", "  ACME-gas ")
		require.NoError(t, err)
		assert.Equal(t, "acme-gas", tn.Slug)

		for _, bad := range []string{"", "acme_gas", "-acme", "acme-", "acme gas"} {
			_, err := NewTenant("Acme Gas", bad)
			assert.Error(t, err, "slug %q should be rejected", bad)
		}
	})

	t.Run("suspend and reactivate", func(t *testing.T) {
		tn, _ := NewTenant("Acme Gas", "acme-gas")
		require.NoError(t, tn.Suspend())
		assert.False(t, tn.IsActive())
		assert.Error(t, tn.Suspend())
		require.NoError(t, tn.Reactivate())
		assert.True(t, tn.IsActive())
	})
}

func TestPlanLimits(t *testing.T) {
	p, err := NewPlan("starter", "Starter", decimal.NewFromInt(49), "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)
	require.NoError(t, p.SetLimits(2, 100, 90))

	assert.True(t, p.AllowsWarehouses(1))
	assert.False(t, p.AllowsWarehouses(2))
	assert.True(t, p.AllowsOrder(99))
	assert.False(t, p.AllowsOrder(100))

	t.Run("zero means unlimited", func(t *testing.T) {
		unlimited, _ := NewPlan("scale", "Scale", decimal.NewFromInt(499), "USD")
		assert.True(t, unlimited.AllowsWarehouses(10_000))
		assert.True(t, unlimited.AllowsOrder(10_000_000))
	})
}

func TestSubscription(t *testing.T) {
	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)

	t.Run("webhook drives status", func(t *testing.T) {
		s, err := NewSubscription(uuid.New(), uuid.New(), start, end)
		require.NoError(t, err)
		assert.Equal(t, SubscriptionStatusTrialing, s.Status)

		require.NoError(t, s.ApplyProviderStatus(SubscriptionStatusActive, start, end))
		assert.True(t, s.IsUsable())
		require.NoError(t, s.ApplyProviderStatus(SubscriptionStatusPastDue, time.Time{}, time.Time{}))
		assert.True(t, s.IsUsable(), "past_due keeps working until the provider cancels")
		require.NoError(t, s.ApplyProviderStatus(SubscriptionStatusCancelled, time.Time{}, time.Time{}))
		assert.False(t, s.IsUsable())

		assert.Error(t, s.ApplyProviderStatus("paused", time.Time{}, time.Time{}))
	})

	t.Run("cancel at period end", func(t *testing.T) {
		s, _ := NewSubscription(uuid.New(), uuid.New(), start, end)
		require.NoError(t, s.RequestCancellation())
		assert.True(t, s.CancelAtPeriodEnd)
	})

	t.Run("inverted period rejected", func(t *testing.T) {
		_, err := NewSubscription(uuid.New(), uuid.New(), end, start)
		assert.Error(t, err)
	})
}

func TestAPIKey(t *testing.T) {
	k, err := NewAPIKey(uuid.New(), "warehouse scanner", "gfk_abc123", "$2a$10$fakehash")
	require.NoError(t, err)

	t.Run("touch is throttled", func(t *testing.T) {
		assert.True(t, k.TouchUsed(time.Minute))
		assert.False(t, k.TouchUsed(time.Minute), "second touch inside the interval writes nothing")
	})

	t.Run("revoke once", func(t *testing.T) {
		require.NoError(t, k.Revoke())
		assert.True(t, k.IsRevoked())
		assert.Error(t, k.Revoke())
	})
}

func TestPeriodFor(t *testing.T) {
	at := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), PeriodFor(at))
}
