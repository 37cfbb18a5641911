package catalog

import (
	"context"
	"testing"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockVariantRepository is a mock implementation of catalog.VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Variant, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Variant, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Variant, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]catalog.Variant, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Variant, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVariantRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockVariantRepository) Save(ctx context.Context, v *catalog.Variant) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVariantRepository) SaveWithLock(ctx context.Context, v *catalog.Variant) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

// stubPublisher collects published events
type stubPublisher struct {
	events []shared.DomainEvent
}

func (p *stubPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newTestService(products *MockProductRepository, variants *MockVariantRepository) (*Service, *stubPublisher) {
	pub := &stubPublisher{}
	return NewService(products, variants, pub, zap.NewNop()), pub
}

func TestCreateProduct(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates product with normalized code", func(t *testing.T) {
		products := new(MockProductRepository)
		svc, _ := newTestService(products, new(MockVariantRepository))

		products.On("ExistsByCode", mock.Anything, tenantID, "CYL-13").Return(false, nil)
		products.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := svc.CreateProduct(context.Background(), tenantID, CreateProductRequest{
			Code:     "cyl-13",
			Name:     "13kg Cylinder",
			Category: "cylinders",
		})
		require.NoError(t, err)
		assert.Equal(t, "CYL-13", resp.Code)
		assert.Equal(t, "active", resp.Status)
		products.AssertExpectations(t)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		products := new(MockProductRepository)
		svc, _ := newTestService(products, new(MockVariantRepository))

		products.On("ExistsByCode", mock.Anything, tenantID, "CYL-13").Return(true, nil)

		_, err := svc.CreateProduct(context.Background(), tenantID, CreateProductRequest{
			Code: "CYL-13",
			Name: "13kg Cylinder",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		products.AssertNotCalled(t, "Save")
	})
}

func TestCreateVariant(t *testing.T) {
	tenantID := uuid.New()

	newProduct := func(t *testing.T) *catalog.Product {
		p, err := catalog.NewProduct(tenantID, "CYL-13", "13kg Cylinder", "cylinders")
		require.NoError(t, err)
		return p
	}

	t.Run("creates asset variant with cylinder spec", func(t *testing.T) {
		products := new(MockProductRepository)
		variants := new(MockVariantRepository)
		svc, pub := newTestService(products, variants)
		p := newProduct(t)

		products.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)
		variants.On("ExistsBySKU", mock.Anything, tenantID, "LPG-13-FULL").Return(false, nil)
		variants.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Variant")).Return(nil)

		price := decimal.NewFromInt(25)
		tare := decimal.RequireFromString("14.5")
		capacity := decimal.NewFromInt(13)
		resp, err := svc.CreateVariant(context.Background(), tenantID, CreateVariantRequest{
			ProductID:    p.ID,
			SKU:          "lpg-13-full",
			Name:         "13kg Cylinder (full)",
			Kind:         "asset",
			Unit:         "EA",
			DefaultPrice: &price,
			TareWeightKg: &tare,
			CapacityKg:   &capacity,
		})
		require.NoError(t, err)
		assert.Equal(t, "LPG-13-FULL", resp.SKU)
		assert.Equal(t, "asset", resp.Kind)
		assert.True(t, resp.TrackStock)
		assert.NotEmpty(t, pub.events)
		variants.AssertExpectations(t)
	})

	t.Run("rejects variant on a discontinued product", func(t *testing.T) {
		products := new(MockProductRepository)
		variants := new(MockVariantRepository)
		svc, _ := newTestService(products, variants)
		p := newProduct(t)
		require.NoError(t, p.Discontinue())

		products.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)

		_, err := svc.CreateVariant(context.Background(), tenantID, CreateVariantRequest{
			ProductID: p.ID,
			SKU:       "LPG-13",
			Name:      "13kg Cylinder",
			Kind:      "asset",
			Unit:      "EA",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		variants.AssertNotCalled(t, "Save")
	})

	t.Run("rejects cylinder spec on a deposit variant", func(t *testing.T) {
		products := new(MockProductRepository)
		variants := new(MockVariantRepository)
		svc, _ := newTestService(products, variants)
		p := newProduct(t)

		products.On("FindByID", mock.Anything, tenantID, p.ID).Return(p, nil)
		variants.On("ExistsBySKU", mock.Anything, tenantID, "DEP-13").Return(false, nil)

		tare := decimal.NewFromInt(14)
		capacity := decimal.NewFromInt(13)
		_, err := svc.CreateVariant(context.Background(), tenantID, CreateVariantRequest{
			ProductID:    p.ID,
			SKU:          "DEP-13",
			Name:         "13kg Deposit",
			Kind:         "deposit",
			Unit:         "EA",
			TareWeightKg: &tare,
			CapacityKg:   &capacity,
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_KIND", domainErr.Code)
	})
}

func TestSetComponents(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()

	newVariant := func(t *testing.T, sku string, kind catalog.VariantKind) *catalog.Variant {
		v, err := catalog.NewVariant(tenantID, productID, sku, sku, kind, catalog.UnitEach)
		require.NoError(t, err)
		v.ClearDomainEvents()
		return v
	}

	t.Run("replaces the bundle composition", func(t *testing.T) {
		variants := new(MockVariantRepository)
		svc, _ := newTestService(new(MockProductRepository), variants)
		bundle := newVariant(t, "STARTER", catalog.KindBundle)
		cylinder := newVariant(t, "LPG-13", catalog.KindAsset)
		regulator := newVariant(t, "REG-STD", catalog.KindConsumable)

		variants.On("FindByID", mock.Anything, tenantID, bundle.ID).Return(bundle, nil)
		variants.On("FindByIDs", mock.Anything, tenantID, mock.Anything).Return([]catalog.Variant{*cylinder, *regulator}, nil)
		variants.On("SaveWithLock", mock.Anything, bundle).Return(nil)

		resp, err := svc.SetComponents(context.Background(), tenantID, bundle.ID, SetComponentsRequest{
			Components: []BundleComponentInput{
				{VariantID: cylinder.ID, Quantity: decimal.NewFromInt(1)},
				{VariantID: regulator.ID, Quantity: decimal.NewFromInt(1)},
			},
		})
		require.NoError(t, err)
		assert.Len(t, resp.Components, 2)
	})

	t.Run("rejects nested bundles", func(t *testing.T) {
		variants := new(MockVariantRepository)
		svc, _ := newTestService(new(MockProductRepository), variants)
		bundle := newVariant(t, "STARTER", catalog.KindBundle)
		inner := newVariant(t, "COMBO", catalog.KindBundle)

		variants.On("FindByID", mock.Anything, tenantID, bundle.ID).Return(bundle, nil)
		variants.On("FindByIDs", mock.Anything, tenantID, mock.Anything).Return([]catalog.Variant{*inner}, nil)

		_, err := svc.SetComponents(context.Background(), tenantID, bundle.ID, SetComponentsRequest{
			Components: []BundleComponentInput{
				{VariantID: inner.ID, Quantity: decimal.NewFromInt(1)},
			},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_COMPONENTS", domainErr.Code)
		variants.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("rejects unknown component variants", func(t *testing.T) {
		variants := new(MockVariantRepository)
		svc, _ := newTestService(new(MockProductRepository), variants)
		bundle := newVariant(t, "STARTER", catalog.KindBundle)

		variants.On("FindByID", mock.Anything, tenantID, bundle.ID).Return(bundle, nil)
		variants.On("FindByIDs", mock.Anything, tenantID, mock.Anything).Return([]catalog.Variant{}, nil)

		_, err := svc.SetComponents(context.Background(), tenantID, bundle.ID, SetComponentsRequest{
			Components: []BundleComponentInput{
				{VariantID: uuid.New(), Quantity: decimal.NewFromInt(1)},
			},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_COMPONENTS", domainErr.Code)
	})
}

func TestDiscontinueVariant(t *testing.T) {
	tenantID := uuid.New()
	variants := new(MockVariantRepository)
	svc, _ := newTestService(new(MockProductRepository), variants)

	v, err := catalog.NewVariant(tenantID, uuid.New(), "LPG-13", "13kg Cylinder", catalog.KindAsset, catalog.UnitEach)
	require.NoError(t, err)
	v.ClearDomainEvents()

	variants.On("FindByID", mock.Anything, tenantID, v.ID).Return(v, nil)
	variants.On("SaveWithLock", mock.Anything, v).Return(nil)

	resp, err := svc.DiscontinueVariant(context.Background(), tenantID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "discontinued", resp.Status)

	_, err = svc.DiscontinueVariant(context.Background(), tenantID, v.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}
