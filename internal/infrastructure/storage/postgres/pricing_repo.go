package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/pricing"
)

const (
	productsTable          = "cat_products"
	customersTable         = "cat_customers"
	outletsTable           = "cat_outlets"
	priceTiersTable        = "cat_price_tiers"
	productPriceTiersTable = "cat_product_price_tiers"
)

var priceTierColumns = ExtractDBColumns[pricing.PriceTier]()

// PricingRepo implements pricing.Repository.
type PricingRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

var _ pricing.Repository = (*PricingRepo)(nil)

// NewPricingRepo creates a new pricing repository.
func NewPricingRepo(txManager *TxManager) *PricingRepo {
	return &PricingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetProductPricing returns the product's intrinsic prices.
func (r *PricingRepo) GetProductPricing(ctx context.Context, productID id.ID) (*pricing.ProductPricing, error) {
	q := r.builder.Select("id", "base_price", "cost_price", "tax_rate").
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var product pricing.ProductPricing
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &product, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product pricing: %w", err)
	}

	return &product, nil
}

// GetCustomerTier returns the tier assigned to a customer, or nil.
func (r *PricingRepo) GetCustomerTier(ctx context.Context, customerID id.ID) (*pricing.PriceTier, error) {
	return r.getJoinedTier(ctx, customersTable, customerID)
}

// GetOutletDefaultTier returns the outlet's default tier, or nil.
func (r *PricingRepo) GetOutletDefaultTier(ctx context.Context, outletID id.ID) (*pricing.PriceTier, error) {
	return r.getJoinedTier(ctx, outletsTable, outletID)
}

// getJoinedTier resolves the price_tier_id reference of a catalog row.
func (r *PricingRepo) getJoinedTier(ctx context.Context, table string, rowID id.ID) (*pricing.PriceTier, error) {
	cols := make([]string, 0, len(priceTierColumns))
	for _, c := range priceTierColumns {
		cols = append(cols, "t."+c)
	}

	q := r.builder.Select(cols...).
		From(priceTiersTable + " t").
		Join(fmt.Sprintf("%s c ON c.price_tier_id = t.id", table)).
		Where(squirrel.Eq{"c.id": rowID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tier pricing.PriceTier
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tier, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tier via %s: %w", table, err)
	}

	return &tier, nil
}

// GetDefaultTier returns the single tier flagged is_default, or nil.
func (r *PricingRepo) GetDefaultTier(ctx context.Context) (*pricing.PriceTier, error) {
	q := r.builder.Select(priceTierColumns...).
		From(priceTiersTable).
		Where(squirrel.Eq{
			"business_id": appctx.GetBusinessID(ctx),
			"is_default":  true,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tier pricing.PriceTier
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tier, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default tier: %w", err)
	}

	return &tier, nil
}

// GetTierPrice returns the price for (product, tier, outlet).
// outletID nil queries the tier-global row.
func (r *PricingRepo) GetTierPrice(ctx context.Context, productID, tierID id.ID, outletID *id.ID) (*types.Money, error) {
	sql, args, err := r.tierPriceQuery(productID, tierID, outletID)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var price types.Money
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tier price: %w", err)
	}

	return &price, nil
}

// tierPriceQuery builds the tier price lookup. The outlet predicate
// needs care: a typed nil *id.ID satisfies driver.Valuer (uuid.UUID has
// a generated Value method), so handing it to squirrel.Eq would call
// Value on the nil pointer and panic instead of rendering IS NULL.
// Only an untyped nil produces "outlet_id IS NULL".
func (r *PricingRepo) tierPriceQuery(productID, tierID id.ID, outletID *id.ID) (string, []any, error) {
	where := squirrel.Eq{
		"product_id":    productID,
		"price_tier_id": tierID,
	}
	if outletID == nil {
		where["outlet_id"] = nil
	} else {
		where["outlet_id"] = *outletID
	}

	return r.builder.Select("price").
		From(productPriceTiersTable).
		Where(where).
		Limit(1).
		ToSql()
}

// CreateTier inserts a new price tier.
func (r *PricingRepo) CreateTier(ctx context.Context, tier *pricing.PriceTier) error {
	data := StructToMap(tier)

	q := r.builder.Insert(priceTiersTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert price tier: %w", err)
	}

	return nil
}

// GetTierByID returns a tier by id.
func (r *PricingRepo) GetTierByID(ctx context.Context, tierID id.ID) (*pricing.PriceTier, error) {
	q := r.builder.Select(priceTierColumns...).
		From(priceTiersTable).
		Where(squirrel.Eq{"id": tierID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tier pricing.PriceTier
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tier, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("price tier", tierID)
		}
		return nil, fmt.Errorf("get price tier: %w", err)
	}

	return &tier, nil
}

// ListTiers returns all tiers for the business.
func (r *PricingRepo) ListTiers(ctx context.Context) ([]*pricing.PriceTier, error) {
	q := r.builder.Select(priceTierColumns...).
		From(priceTiersTable).
		Where(squirrel.Eq{"business_id": appctx.GetBusinessID(ctx)}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tiers []*pricing.PriceTier
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &tiers, sql, args...); err != nil {
		return nil, fmt.Errorf("list price tiers: %w", err)
	}

	return tiers, nil
}

// ClearDefaultTier unsets is_default on every tier of the business.
func (r *PricingRepo) ClearDefaultTier(ctx context.Context) error {
	q := r.builder.Update(priceTiersTable).
		Set("is_default", false).
		Where(squirrel.Eq{
			"business_id": appctx.GetBusinessID(ctx),
			"is_default":  true,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default tier: %w", err)
	}

	return nil
}

// MarkTierDefault sets is_default on one tier.
func (r *PricingRepo) MarkTierDefault(ctx context.Context, tierID id.ID) error {
	q := r.builder.Update(priceTiersTable).
		Set("is_default", true).
		Where(squirrel.Eq{"id": tierID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark tier default: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("price tier", tierID)
	}

	return nil
}
