package logistics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrip(t *testing.T) *Trip {
	t.Helper()
	trip, err := NewTrip(uuid.New(), "TRP-2026-000001", uuid.New(), uuid.New(), uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	return trip
}

func TestTripStops(t *testing.T) {
	t.Run("stops get contiguous sequence numbers", func(t *testing.T) {
		trip := newTestTrip(t)
		s1, err := trip.AddStop(uuid.New())
		require.NoError(t, err)
		s2, err := trip.AddStop(uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 1, s1.Sequence)
		assert.Equal(t, 2, s2.Sequence)
	})

	t.Run("same order cannot be added twice", func(t *testing.T) {
		trip := newTestTrip(t)
		orderID := uuid.New()
		_, err := trip.AddStop(orderID)
		require.NoError(t, err)
		_, err = trip.AddStop(orderID)
		assert.Error(t, err)
	})

	t.Run("removal closes the sequence gap", func(t *testing.T) {
		trip := newTestTrip(t)
		first, _ := trip.AddStop(uuid.New())
		trip.AddStop(uuid.New())
		trip.AddStop(uuid.New())

		_, err := trip.RemoveStop(first.ID)
		require.NoError(t, err)
		require.Len(t, trip.Stops, 2)
		assert.Equal(t, 1, trip.Stops[0].Sequence)
		assert.Equal(t, 2, trip.Stops[1].Sequence)
	})

	t.Run("reorder must be a full permutation", func(t *testing.T) {
		trip := newTestTrip(t)
		a, _ := trip.AddStop(uuid.New())
		b, _ := trip.AddStop(uuid.New())

		require.NoError(t, trip.ReorderStops([]uuid.UUID{b.ID, a.ID}))
		assert.Equal(t, b.ID, trip.Stops[0].ID)
		assert.Equal(t, 1, trip.Stops[0].Sequence)

		assert.Error(t, trip.ReorderStops([]uuid.UUID{a.ID}))
		assert.Error(t, trip.ReorderStops([]uuid.UUID{a.ID, uuid.New()}))
	})

	t.Run("stops frozen once loading starts", func(t *testing.T) {
		trip := newTestTrip(t)
		stop, _ := trip.AddStop(uuid.New())
		require.NoError(t, trip.StartLoading())

		_, err := trip.AddStop(uuid.New())
		assert.Error(t, err)
		_, err = trip.RemoveStop(stop.ID)
		assert.Error(t, err)
	})
}

func TestTripLifecycle(t *testing.T) {
	t.Run("happy path with all stops resolved", func(t *testing.T) {
		trip := newTestTrip(t)
		s1, _ := trip.AddStop(uuid.New())
		s2, _ := trip.AddStop(uuid.New())
		s3, _ := trip.AddStop(uuid.New())

		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Depart())
		require.NotNil(t, trip.DepartedAt)

		require.NoError(t, trip.RecordStopDelivered(s1.ID, uuid.New()))
		require.NoError(t, trip.FailStop(s2.ID, "customer absent"))
		require.NoError(t, trip.SkipStop(s3.ID, "road closed"))

		require.NoError(t, trip.Complete())
		assert.Equal(t, TripStatusCompleted, trip.Status)
		assert.NotNil(t, trip.CompletedAt)
	})

	t.Run("cannot complete with pending stops", func(t *testing.T) {
		trip := newTestTrip(t)
		trip.AddStop(uuid.New())
		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Depart())
		assert.Error(t, trip.Complete())
	})

	t.Run("empty trip may complete", func(t *testing.T) {
		trip := newTestTrip(t)
		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Depart())
		assert.NoError(t, trip.Complete())
	})

	t.Run("cancel allowed until departure", func(t *testing.T) {
		trip := newTestTrip(t)
		require.NoError(t, trip.Cancel("vehicle broke down"))

		trip = newTestTrip(t)
		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Cancel("driver unavailable"))

		trip = newTestTrip(t)
		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Depart())
		assert.Error(t, trip.Cancel("too late"))
	})

	t.Run("stop outcome requires en_route and is final", func(t *testing.T) {
		trip := newTestTrip(t)
		stop, _ := trip.AddStop(uuid.New())
		assert.Error(t, trip.RecordStopDelivered(stop.ID, uuid.New()))

		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Depart())
		require.NoError(t, trip.RecordStopDelivered(stop.ID, uuid.New()))
		assert.Error(t, trip.FailStop(stop.ID, "already delivered"))
	})

	t.Run("failure needs a reason", func(t *testing.T) {
		trip := newTestTrip(t)
		stop, _ := trip.AddStop(uuid.New())
		require.NoError(t, trip.StartLoading())
		require.NoError(t, trip.Depart())
		assert.Error(t, trip.FailStop(stop.ID, ""))
	})
}

func TestDelivery(t *testing.T) {
	base := func() []DeliveryLineInput {
		return []DeliveryLineInput{
			{
				OrderLineID:  uuid.New(),
				VariantID:    uuid.New(),
				SKU:          "GAS-9",
				OrderedQty:   decimal.NewFromInt(5),
				DeliveredQty: decimal.NewFromInt(5),
				TrackStock:   true,
			},
			{
				OrderLineID:      uuid.New(),
				VariantID:        uuid.New(),
				SKU:              "CYL-9",
				OrderedQty:       decimal.NewFromInt(5),
				DeliveredQty:     decimal.NewFromInt(4),
				EmptiesCollected: decimal.NewFromInt(3),
				TrackStock:       true,
				IsAsset:          true,
			},
		}
	}

	newDelivery := func(t *testing.T, lines []DeliveryLineInput) (*Delivery, error) {
		t.Helper()
		return NewDelivery(uuid.New(), "DLV-2026-000001", uuid.New(), uuid.New(), uuid.New(), uuid.New(), "J. Mwangi", lines)
	}

	t.Run("partial delivery with empties", func(t *testing.T) {
		d, err := newDelivery(t, base())
		require.NoError(t, err)
		assert.True(t, d.IsShort())

		issued := d.StockIssued()
		assert.Len(t, issued, 2)
		assert.True(t, issued[d.Lines[1].VariantID].Equal(decimal.NewFromInt(4)))

		empties := d.EmptiesCollected()
		assert.Len(t, empties, 1)
		assert.True(t, empties[d.Lines[1].VariantID].Equal(decimal.NewFromInt(3)))
	})

	t.Run("delivered cannot exceed ordered", func(t *testing.T) {
		lines := base()
		lines[0].DeliveredQty = decimal.NewFromInt(6)
		_, err := newDelivery(t, lines)
		assert.Error(t, err)
	})

	t.Run("empties only against assets", func(t *testing.T) {
		lines := base()
		lines[0].EmptiesCollected = decimal.NewFromInt(1)
		_, err := newDelivery(t, lines)
		assert.Error(t, err)
	})

	t.Run("no lines rejected", func(t *testing.T) {
		_, err := newDelivery(t, nil)
		assert.Error(t, err)
	})

	t.Run("zero delivered is a valid outcome", func(t *testing.T) {
		lines := base()
		lines[0].DeliveredQty = decimal.Zero
		lines[1].DeliveredQty = decimal.Zero
		lines[1].EmptiesCollected = decimal.Zero
		d, err := newDelivery(t, lines)
		require.NoError(t, err)
		assert.Empty(t, d.StockIssued())
	})
}
