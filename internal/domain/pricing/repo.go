package pricing

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Repository defines persistence operations for price resolution.
//
// Lookup methods return (nil, nil) when the row simply does not exist;
// resolution treats absence as "fall through to the next rule", not an error.
type Repository interface {
	// GetProductPricing returns the product's intrinsic prices.
	// Returns apperror NotFound if the product does not exist.
	GetProductPricing(ctx context.Context, productID id.ID) (*ProductPricing, error)

	// GetCustomerTier returns the tier assigned to a customer, or nil.
	GetCustomerTier(ctx context.Context, customerID id.ID) (*PriceTier, error)

	// GetOutletDefaultTier returns the outlet's default tier, or nil.
	GetOutletDefaultTier(ctx context.Context, outletID id.ID) (*PriceTier, error)

	// GetDefaultTier returns the single tier flagged is_default, or nil.
	GetDefaultTier(ctx context.Context) (*PriceTier, error)

	// GetTierPrice returns the price row for (product, tier, outlet).
	// outletID nil queries the tier-global price. Returns nil if absent.
	GetTierPrice(ctx context.Context, productID, tierID id.ID, outletID *id.ID) (*types.Money, error)

	// Tier management

	// CreateTier inserts a new price tier.
	CreateTier(ctx context.Context, tier *PriceTier) error

	// GetTierByID returns a tier by id (apperror NotFound if absent).
	GetTierByID(ctx context.Context, tierID id.ID) (*PriceTier, error)

	// ListTiers returns all tiers for the business.
	ListTiers(ctx context.Context) ([]*PriceTier, error)

	// ClearDefaultTier unsets is_default on every tier.
	ClearDefaultTier(ctx context.Context) error

	// MarkTierDefault sets is_default on one tier.
	MarkTierDefault(ctx context.Context, tierID id.ID) error
}
