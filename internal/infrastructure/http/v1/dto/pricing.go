package dto

import (
	"retailops/internal/domain/pricing"
)

// CreatePriceTierRequest is the request body for creating a price tier.
type CreatePriceTierRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

// ToTier converts the request to a domain tier.
func (r *CreatePriceTierRequest) ToTier(businessID string) *pricing.PriceTier {
	tier := pricing.NewPriceTier(businessID, r.Code, r.Name)
	tier.IsDefault = r.IsDefault
	return tier
}
