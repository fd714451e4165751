package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
)

type tierPriceKey struct {
	product id.ID
	tier    id.ID
	outlet  id.ID // id.Nil() for tier-global rows
}

// fakeRepo is an in-memory pricing.Repository.
type fakeRepo struct {
	products      map[id.ID]*ProductPricing
	customerTiers map[id.ID]*PriceTier
	outletTiers   map[id.ID]*PriceTier
	defaultTier   *PriceTier
	tierPrices    map[tierPriceKey]types.Money
	tiers         map[id.ID]*PriceTier
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products:      make(map[id.ID]*ProductPricing),
		customerTiers: make(map[id.ID]*PriceTier),
		outletTiers:   make(map[id.ID]*PriceTier),
		tierPrices:    make(map[tierPriceKey]types.Money),
		tiers:         make(map[id.ID]*PriceTier),
	}
}

func (f *fakeRepo) GetProductPricing(ctx context.Context, productID id.ID) (*ProductPricing, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (f *fakeRepo) GetCustomerTier(ctx context.Context, customerID id.ID) (*PriceTier, error) {
	return f.customerTiers[customerID], nil
}

func (f *fakeRepo) GetOutletDefaultTier(ctx context.Context, outletID id.ID) (*PriceTier, error) {
	return f.outletTiers[outletID], nil
}

func (f *fakeRepo) GetDefaultTier(ctx context.Context) (*PriceTier, error) {
	return f.defaultTier, nil
}

func (f *fakeRepo) GetTierPrice(ctx context.Context, productID, tierID id.ID, outletID *id.ID) (*types.Money, error) {
	key := tierPriceKey{product: productID, tier: tierID, outlet: id.Nil()}
	if outletID != nil {
		key.outlet = *outletID
	}
	if price, ok := f.tierPrices[key]; ok {
		return &price, nil
	}
	return nil, nil
}

func (f *fakeRepo) CreateTier(ctx context.Context, tier *PriceTier) error {
	f.tiers[tier.ID] = tier
	if tier.IsDefault {
		f.defaultTier = tier
	}
	return nil
}

func (f *fakeRepo) GetTierByID(ctx context.Context, tierID id.ID) (*PriceTier, error) {
	t, ok := f.tiers[tierID]
	if !ok {
		return nil, apperror.NewNotFound("price tier", tierID)
	}
	return t, nil
}

func (f *fakeRepo) ListTiers(ctx context.Context) ([]*PriceTier, error) {
	out := make([]*PriceTier, 0, len(f.tiers))
	for _, t := range f.tiers {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) ClearDefaultTier(ctx context.Context) error {
	for _, t := range f.tiers {
		t.IsDefault = false
	}
	f.defaultTier = nil
	return nil
}

func (f *fakeRepo) MarkTierDefault(ctx context.Context, tierID id.ID) error {
	t := f.tiers[tierID]
	t.IsDefault = true
	f.defaultTier = t
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, &tx.MockManager{})
}

func TestResolve_ProductNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Resolve(context.Background(), id.New(), id.New(), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolve_BasePriceFallback(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	repo.products[productID] = &ProductPricing{
		ProductID: productID,
		BasePrice: types.MustMoney("100"),
		TaxRate:   types.MustMoney("19"),
	}
	svc := newTestService(repo)

	quote, err := svc.Resolve(context.Background(), productID, id.New(), nil)
	require.NoError(t, err)

	assert.True(t, quote.EffectivePrice.Equal(types.MustMoney("100")))
	assert.Equal(t, TierSourceNone, quote.TierSource)
	assert.Equal(t, PriceSourceBasePrice, quote.PriceSource)
}

func TestResolve_CustomerTierOutletOverride(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	outletID := id.New()
	customerID := id.New()
	tier := NewPriceTier("biz-1", "WHOLESALE", "Wholesale")

	repo.products[productID] = &ProductPricing{
		ProductID: productID,
		BasePrice: types.MustMoney("100"),
	}
	repo.customerTiers[customerID] = tier
	repo.tierPrices[tierPriceKey{product: productID, tier: tier.ID, outlet: outletID}] = types.MustMoney("80")

	svc := newTestService(repo)
	quote, err := svc.Resolve(context.Background(), productID, outletID, &customerID)
	require.NoError(t, err)

	assert.True(t, quote.EffectivePrice.Equal(types.MustMoney("80")))
	assert.Equal(t, TierSourceCustomer, quote.TierSource)
	assert.Equal(t, PriceSourceOutletTier, quote.PriceSource)
}

func TestResolve_OutletTierGlobalPrice(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	outletID := id.New()
	tier := NewPriceTier("biz-1", "RETAIL", "Retail")

	repo.products[productID] = &ProductPricing{
		ProductID: productID,
		BasePrice: types.MustMoney("100"),
	}
	repo.outletTiers[outletID] = tier
	repo.tierPrices[tierPriceKey{product: productID, tier: tier.ID, outlet: id.Nil()}] = types.MustMoney("95")

	svc := newTestService(repo)
	quote, err := svc.Resolve(context.Background(), productID, outletID, nil)
	require.NoError(t, err)

	assert.True(t, quote.EffectivePrice.Equal(types.MustMoney("95")))
	assert.Equal(t, TierSourceOutlet, quote.TierSource)
	assert.Equal(t, PriceSourceGlobalTier, quote.PriceSource)
}

func TestResolve_DefaultTierWithoutPriceFallsBackToBase(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	tier := NewPriceTier("biz-1", "STD", "Standard")
	tier.IsDefault = true
	repo.defaultTier = tier

	repo.products[productID] = &ProductPricing{
		ProductID: productID,
		BasePrice: types.MustMoney("42.50"),
	}

	svc := newTestService(repo)
	quote, err := svc.Resolve(context.Background(), productID, id.New(), nil)
	require.NoError(t, err)

	assert.True(t, quote.EffectivePrice.Equal(types.MustMoney("42.50")))
	assert.Equal(t, TierSourceDefault, quote.TierSource)
	assert.Equal(t, PriceSourceBasePrice, quote.PriceSource)
	require.NotNil(t, quote.PriceTier)
	assert.Equal(t, "STD", quote.PriceTier.Code)
}

func TestResolve_CustomerWithoutTierFallsThrough(t *testing.T) {
	repo := newFakeRepo()
	productID := id.New()
	outletID := id.New()
	customerID := id.New()
	tier := NewPriceTier("biz-1", "RETAIL", "Retail")

	repo.products[productID] = &ProductPricing{
		ProductID: productID,
		BasePrice: types.MustMoney("10"),
	}
	repo.outletTiers[outletID] = tier
	repo.tierPrices[tierPriceKey{product: productID, tier: tier.ID, outlet: id.Nil()}] = types.MustMoney("9")

	svc := newTestService(repo)
	quote, err := svc.Resolve(context.Background(), productID, outletID, &customerID)
	require.NoError(t, err)

	assert.Equal(t, TierSourceOutlet, quote.TierSource)
	assert.True(t, quote.EffectivePrice.Equal(types.MustMoney("9")))
}

func TestSetDefaultTier_ClearsPrevious(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first := NewPriceTier("biz-1", "A", "Tier A")
	first.IsDefault = true
	require.NoError(t, svc.CreateTier(ctx, first))

	second := NewPriceTier("biz-1", "B", "Tier B")
	require.NoError(t, svc.CreateTier(ctx, second))

	require.NoError(t, svc.SetDefaultTier(ctx, second.ID))

	assert.False(t, first.IsDefault)
	assert.True(t, second.IsDefault)

	got, err := repo.GetDefaultTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestCreateTier_RequiresCode(t *testing.T) {
	svc := newTestService(newFakeRepo())

	tier := NewPriceTier("biz-1", "", "No code")
	err := svc.CreateTier(context.Background(), tier)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
