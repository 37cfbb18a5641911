package order

import (
	"testing"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), "ORD-2026-000001", uuid.New(), uuid.New(), "USD")
	require.NoError(t, err)
	return o
}

func newTestVariant(t *testing.T, kind catalog.VariantKind, sku string) *catalog.Variant {
	t.Helper()
	v, err := catalog.NewVariant(uuid.New(), uuid.New(), sku, sku+" name", kind, catalog.UnitEach)
	require.NoError(t, err)
	return v
}

func TestOrderLineTotals(t *testing.T) {
	t.Run("total equals sum of line totals", func(t *testing.T) {
		o := newTestOrder(t)
		gas := newTestVariant(t, catalog.KindConsumable, "GAS-9")
		cyl := newTestVariant(t, catalog.KindAsset, "CYL-9")

		_, err := o.AddLine(LineInput{Variant: gas, Quantity: d(3), UnitPrice: d(25), PriceSource: PriceSourceVariant}, nil)
		require.NoError(t, err)
		_, err = o.AddLine(LineInput{Variant: cyl, Quantity: d(2), UnitPrice: d(40), PriceSource: PriceSourceVariant}, nil)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, l := range o.Lines {
			sum = sum.Add(l.LineTotal)
		}
		assert.True(t, o.TotalAmount.Equal(sum))
		assert.True(t, o.TotalAmount.Equal(d(155)))
	})

	t.Run("discount reduces line total and cannot exceed gross", func(t *testing.T) {
		o := newTestOrder(t)
		gas := newTestVariant(t, catalog.KindConsumable, "GAS-9")
		line, err := o.AddLine(LineInput{Variant: gas, Quantity: d(2), UnitPrice: d(30), PriceSource: PriceSourceVariant}, nil)
		require.NoError(t, err)

		disc := d(10)
		require.NoError(t, o.UpdateLine(line.ID, nil, nil, &disc))
		assert.True(t, o.TotalAmount.Equal(d(50)))

		tooBig := d(61)
		assert.Error(t, o.UpdateLine(line.ID, nil, nil, &tooBig))
	})

	t.Run("duplicate variant merges into one line", func(t *testing.T) {
		o := newTestOrder(t)
		gas := newTestVariant(t, catalog.KindConsumable, "GAS-9")
		_, err := o.AddLine(LineInput{Variant: gas, Quantity: d(2), UnitPrice: d(30), PriceSource: PriceSourceVariant}, nil)
		require.NoError(t, err)
		_, err = o.AddLine(LineInput{Variant: gas, Quantity: d(3), UnitPrice: d(30), PriceSource: PriceSourceVariant}, nil)
		require.NoError(t, err)

		assert.Len(t, o.Lines, 1)
		assert.True(t, o.Lines[0].Quantity.Equal(d(5)))
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		o := newTestOrder(t)
		gas := newTestVariant(t, catalog.KindConsumable, "GAS-9")
		_, err := o.AddLine(LineInput{Variant: gas, Quantity: decimal.Zero, UnitPrice: d(30)}, nil)
		assert.Error(t, err)
	})
}

func TestBundleExplosion(t *testing.T) {
	o := newTestOrder(t)
	bundle := newTestVariant(t, catalog.KindBundle, "BNDL-9")
	assetID := uuid.New()
	gasID := uuid.New()
	require.NoError(t, bundle.SetComponents([]catalog.BundleComponent{
		{ComponentVariantID: assetID, Quantity: d(1)},
		{ComponentVariantID: gasID, Quantity: d(9)},
	}, map[uuid.UUID]catalog.VariantKind{assetID: catalog.KindAsset, gasID: catalog.KindConsumable}))

	parts, err := bundle.Explode(d(2))
	require.NoError(t, err)

	parent, err := o.AddLine(LineInput{Variant: bundle, Quantity: d(2), UnitPrice: d(100), PriceSource: PriceSourceVariant}, parts)
	require.NoError(t, err)

	require.Len(t, o.Lines, 3)
	assert.True(t, o.TotalAmount.Equal(d(200)), "components are zero-priced, the bundle line carries the price")

	var componentCount int
	for _, l := range o.Lines {
		if l.IsComponent() {
			componentCount++
			assert.Equal(t, parent.ID, *l.ParentLineID)
			assert.True(t, l.UnitPrice.IsZero())
		}
	}
	assert.Equal(t, 2, componentCount)

	t.Run("component line cannot be edited or removed", func(t *testing.T) {
		for _, l := range o.Lines {
			if l.IsComponent() {
				qty := d(1)
				assert.Error(t, o.UpdateLine(l.ID, &qty, nil, nil))
				assert.Error(t, o.RemoveLine(l.ID))
				break
			}
		}
	})

	t.Run("component lines scale with parent quantity", func(t *testing.T) {
		qty := d(4)
		require.NoError(t, o.UpdateLine(parent.ID, &qty, nil, nil))
		for _, l := range o.Lines {
			if l.IsComponent() && l.VariantID == gasID {
				assert.True(t, l.Quantity.Equal(d(36)), "9 per bundle at qty 4")
			}
		}
	})

	t.Run("removing parent removes components", func(t *testing.T) {
		require.NoError(t, o.RemoveLine(parent.ID))
		assert.Empty(t, o.Lines)
		assert.True(t, o.TotalAmount.IsZero())
	})
}

func TestBundleComponentRescaleIsExact(t *testing.T) {
	o := newTestOrder(t)
	bundle := newTestVariant(t, catalog.KindBundle, "BNDL-9")
	gasID := uuid.New()
	require.NoError(t, bundle.SetComponents([]catalog.BundleComponent{
		{ComponentVariantID: gasID, Quantity: d(3)},
	}, map[uuid.UUID]catalog.VariantKind{gasID: catalog.KindConsumable}))

	parts, err := bundle.Explode(d(3))
	require.NoError(t, err)
	parent, err := o.AddLine(LineInput{Variant: bundle, Quantity: d(3), UnitPrice: d(100), PriceSource: PriceSourceVariant}, parts)
	require.NoError(t, err)

	// 1/3 has no finite decimal form; a ratio-based rescale would
	// leave the component at 2.9999999999999997
	qty := d(1)
	require.NoError(t, o.UpdateLine(parent.ID, &qty, nil, nil))
	for _, l := range o.Lines {
		if l.IsComponent() {
			assert.True(t, l.Quantity.Equal(d(3)), "got %s, want 3 per bundle at qty 1", l.Quantity)
		}
	}

	// and back up again stays on the per-unit multiple
	qty = d(7)
	require.NoError(t, o.UpdateLine(parent.ID, &qty, nil, nil))
	for _, l := range o.Lines {
		if l.IsComponent() {
			assert.True(t, l.Quantity.Equal(d(21)), "got %s, want 3 per bundle at qty 7", l.Quantity)
		}
	}
}

func TestOrderStateMachine(t *testing.T) {
	addLine := func(o *Order) {
		gas := newTestVariant(t, catalog.KindConsumable, "GAS-9")
		_, err := o.AddLine(LineInput{Variant: gas, Quantity: d(1), UnitPrice: d(30), PriceSource: PriceSourceVariant}, nil)
		require.NoError(t, err)
	}

	t.Run("happy path", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(o)
		require.NoError(t, o.Confirm())
		require.NoError(t, o.Schedule(uuid.New()))
		require.NoError(t, o.MarkEnRoute())
		require.NoError(t, o.MarkDelivered())
		assert.True(t, o.IsTerminal())
	})

	t.Run("confirming an empty order fails", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Error(t, o.Confirm())
	})

	t.Run("cancel reachable from draft, confirmed and scheduled", func(t *testing.T) {
		for _, prep := range []func(o *Order){
			func(o *Order) {},
			func(o *Order) { addLine(o); require.NoError(t, o.Confirm()) },
			func(o *Order) {
				addLine(o)
				require.NoError(t, o.Confirm())
				require.NoError(t, o.Schedule(uuid.New()))
			},
		} {
			o := newTestOrder(t)
			prep(o)
			require.NoError(t, o.Cancel("customer called it off"))
			assert.Equal(t, StatusCancelled, o.Status)
		}
	})

	t.Run("en_route cannot cancel", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(o)
		require.NoError(t, o.Confirm())
		require.NoError(t, o.Schedule(uuid.New()))
		require.NoError(t, o.MarkEnRoute())
		assert.Error(t, o.Cancel("too late"))
	})

	t.Run("unschedule returns to confirmed", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(o)
		require.NoError(t, o.Confirm())
		require.NoError(t, o.Schedule(uuid.New()))
		require.NoError(t, o.Unschedule())
		assert.Equal(t, StatusConfirmed, o.Status)
		assert.Nil(t, o.TripID)
	})

	t.Run("lines frozen after confirm", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(o)
		require.NoError(t, o.Confirm())
		gas := newTestVariant(t, catalog.KindConsumable, "GAS-19")
		_, err := o.AddLine(LineInput{Variant: gas, Quantity: d(1), UnitPrice: d(50)}, nil)
		assert.Error(t, err)
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Error(t, o.Cancel(""))
	})
}

func TestStockDemand(t *testing.T) {
	o := newTestOrder(t)
	gas := newTestVariant(t, catalog.KindConsumable, "GAS-9")
	deposit := newTestVariant(t, catalog.KindDeposit, "DEP-9")

	_, err := o.AddLine(LineInput{Variant: gas, Quantity: d(3), UnitPrice: d(25)}, nil)
	require.NoError(t, err)
	_, err = o.AddLine(LineInput{Variant: deposit, Quantity: d(3), UnitPrice: d(15)}, nil)
	require.NoError(t, err)

	demand := o.StockDemand()
	assert.Len(t, demand, 1, "deposits never appear in stock demand")
	assert.True(t, demand[gas.ID].Equal(d(3)))
}
