package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	tenantID := uuid.New()

	t.Run("defaults fill actor type, severity and occurred_at", func(t *testing.T) {
		e, err := NewEvent(tenantID, Input{Action: "order.confirmed", EntityType: "order", EntityID: "abc"})
		require.NoError(t, err)
		assert.Equal(t, ActorUser, e.ActorType)
		assert.Equal(t, SeverityInfo, e.Severity)
		assert.WithinDuration(t, time.Now().UTC(), e.OccurredAt, time.Second)
		assert.False(t, e.RecordedAt.IsZero())
	})

	t.Run("missing action rejected with code", func(t *testing.T) {
		_, err := NewEvent(tenantID, Input{EntityType: "order"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MISSING_ACTION")
	})

	t.Run("missing entity type rejected", func(t *testing.T) {
		_, err := NewEvent(tenantID, Input{Action: "order.confirmed"})
		assert.Error(t, err)
	})

	t.Run("bad severity rejected", func(t *testing.T) {
		_, err := NewEvent(tenantID, Input{Action: "a.b", EntityType: "order", Severity: "fatal"})
		assert.Error(t, err)
	})

	t.Run("bad actor type rejected", func(t *testing.T) {
		_, err := NewEvent(tenantID, Input{Action: "a.b", EntityType: "order", ActorType: "robot"})
		assert.Error(t, err)
	})

	t.Run("oversized metadata rejected", func(t *testing.T) {
		_, err := NewEvent(tenantID, Input{
			Action:     "a.b",
			EntityType: "order",
			Metadata:   map[string]any{"blob": strings.Repeat("x", MaxMetadataBytes)},
		})
		assert.Error(t, err)
	})

	t.Run("nil tenant rejected", func(t *testing.T) {
		_, err := NewEvent(uuid.Nil, Input{Action: "a.b", EntityType: "order"})
		assert.Error(t, err)
	})
}

func TestQueryNormalize(t *testing.T) {
	q := Query{Page: 0, PageSize: 1000}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 200, q.PageSize)
	assert.Equal(t, 0, q.Offset())

	q = Query{Page: 3, PageSize: 50}
	q.Normalize()
	assert.Equal(t, 100, q.Offset())
}
