package dto

import (
	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/inventory"
)

// AdjustInventoryRequest is the request body for a manual stock adjustment.
type AdjustInventoryRequest struct {
	ProductID   string  `json:"productId" binding:"required"`
	WarehouseID string  `json:"warehouseId" binding:"required"`
	OutletID    string  `json:"outletId"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Direction   string  `json:"direction" binding:"required,oneof=IN OUT"`
	Notes       string  `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *AdjustInventoryRequest) ToInput() (inventory.AdjustInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return inventory.AdjustInput{}, apperror.NewValidation("invalid productId format")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return inventory.AdjustInput{}, apperror.NewValidation("invalid warehouseId format")
	}

	in := inventory.AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    types.NewQuantityFromFloat64(r.Quantity),
		Direction:   inventory.Direction(r.Direction),
		Notes:       r.Notes,
	}
	if r.OutletID != "" {
		outletID, err := id.Parse(r.OutletID)
		if err != nil {
			return inventory.AdjustInput{}, apperror.NewValidation("invalid outletId format")
		}
		in.OutletID = &outletID
	}
	return in, nil
}

// TransferInventoryRequest is the request body for a warehouse transfer.
type TransferInventoryRequest struct {
	ProductID       string  `json:"productId" binding:"required"`
	FromWarehouseID string  `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string  `json:"toWarehouseId" binding:"required"`
	OutletID        string  `json:"outletId"`
	Quantity        float64 `json:"quantity" binding:"required,gt=0"`
	Notes           string  `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *TransferInventoryRequest) ToInput() (inventory.TransferInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return inventory.TransferInput{}, apperror.NewValidation("invalid productId format")
	}
	fromID, err := id.Parse(r.FromWarehouseID)
	if err != nil {
		return inventory.TransferInput{}, apperror.NewValidation("invalid fromWarehouseId format")
	}
	toID, err := id.Parse(r.ToWarehouseID)
	if err != nil {
		return inventory.TransferInput{}, apperror.NewValidation("invalid toWarehouseId format")
	}

	in := inventory.TransferInput{
		ProductID:       productID,
		FromWarehouseID: fromID,
		ToWarehouseID:   toID,
		Quantity:        types.NewQuantityFromFloat64(r.Quantity),
		Notes:           r.Notes,
	}
	if r.OutletID != "" {
		outletID, err := id.Parse(r.OutletID)
		if err != nil {
			return inventory.TransferInput{}, apperror.NewValidation("invalid outletId format")
		}
		in.OutletID = &outletID
	}
	return in, nil
}

// SetMinimumStockRequest is the request body for setting a reorder threshold.
type SetMinimumStockRequest struct {
	ProductID    string  `json:"productId" binding:"required"`
	WarehouseID  string  `json:"warehouseId" binding:"required"`
	MinimumStock float64 `json:"minimumStock" binding:"min=0"`
}
