// Package pricing resolves effective unit prices for products.
package pricing

import (
	"context"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// TierSource identifies where the resolved price tier came from.
type TierSource string

const (
	TierSourceCustomer TierSource = "customer"
	TierSourceOutlet   TierSource = "outlet"
	TierSourceDefault  TierSource = "default"
	TierSourceNone     TierSource = "none"
)

// PriceSource identifies which price row won the resolution.
type PriceSource string

const (
	PriceSourceOutletTier PriceSource = "outlet_tier_price"
	PriceSourceGlobalTier PriceSource = "global_tier_price"
	PriceSourceBasePrice  PriceSource = "base_price"
)

// PriceTier groups customers or outlets into a pricing band.
// At most one tier per business has IsDefault set; writes through the
// service clear the flag on all others.
type PriceTier struct {
	entity.BaseEntity

	Name      string `db:"name" json:"name"`
	Code      string `db:"code" json:"code"`
	IsDefault bool   `db:"is_default" json:"isDefault"`
}

// NewPriceTier creates a new price tier.
func NewPriceTier(businessID, code, name string) *PriceTier {
	return &PriceTier{
		BaseEntity: entity.NewBaseEntity(businessID),
		Code:       code,
		Name:       name,
	}
}

// Validate implements entity.Validatable.
func (t *PriceTier) Validate(ctx context.Context) error {
	if t.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if t.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// ProductPriceTier is a price override for a product within a tier.
// OutletID nil denotes the tier-global price; non-nil an outlet override.
type ProductPriceTier struct {
	ProductID   id.ID       `db:"product_id" json:"productId"`
	PriceTierID id.ID       `db:"price_tier_id" json:"priceTierId"`
	OutletID    *id.ID      `db:"outlet_id" json:"outletId,omitempty"`
	Price       types.Money `db:"price" json:"price"`
}

// ProductPricing is the read model of a product's intrinsic prices.
type ProductPricing struct {
	ProductID id.ID        `db:"id" json:"productId"`
	BasePrice types.Money  `db:"base_price" json:"basePrice"`
	CostPrice *types.Money `db:"cost_price" json:"costPrice,omitempty"`
	// TaxRate is a percentage (e.g., 19 for 19%)
	TaxRate types.Money `db:"tax_rate" json:"taxRate"`
}

// PriceQuote is the result of price resolution for one product at one outlet.
type PriceQuote struct {
	ProductID      id.ID        `json:"productId"`
	EffectivePrice types.Money  `json:"effectivePrice"`
	BasePrice      types.Money  `json:"basePrice"`
	CostPrice      *types.Money `json:"costPrice,omitempty"`
	TaxRate        types.Money  `json:"taxRate"`
	PriceTier      *PriceTier   `json:"priceTier,omitempty"`
	TierSource     TierSource   `json:"tierSource"`
	PriceSource    PriceSource  `json:"priceSource"`
}
