package dto

import (
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/purchasing"
)

// CreatePurchaseOrderItemRequest is a single line of a new purchase order.
type CreatePurchaseOrderItemRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  float64     `json:"quantity" binding:"required,gt=0"`
	UnitCost  types.Money `json:"unitCost"`
}

// CreatePurchaseOrderRequest is the request body for creating a purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID   string                           `json:"supplierId" binding:"required"`
	OutletID     string                           `json:"outletId" binding:"required"`
	WarehouseID  string                           `json:"warehouseId" binding:"required"`
	ExpectedDate *time.Time                       `json:"expectedDate"`
	Notes        string                           `json:"notes"`
	Items        []CreatePurchaseOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request to the domain input.
func (r *CreatePurchaseOrderRequest) ToInput() (purchasing.CreateInput, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return purchasing.CreateInput{}, apperror.NewValidation("invalid supplierId format")
	}
	outletID, err := id.Parse(r.OutletID)
	if err != nil {
		return purchasing.CreateInput{}, apperror.NewValidation("invalid outletId format")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return purchasing.CreateInput{}, apperror.NewValidation("invalid warehouseId format")
	}

	in := purchasing.CreateInput{
		SupplierID:   supplierID,
		OutletID:     outletID,
		WarehouseID:  warehouseID,
		ExpectedDate: r.ExpectedDate,
		Notes:        r.Notes,
	}

	in.Items = make([]purchasing.CreateItemInput, 0, len(r.Items))
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return purchasing.CreateInput{}, apperror.NewValidation("invalid productId format").
				WithDetail("line", i+1)
		}
		in.Items = append(in.Items, purchasing.CreateItemInput{
			ProductID: productID,
			Quantity:  types.NewQuantityFromFloat64(item.Quantity),
			UnitCost:  item.UnitCost,
		})
	}
	return in, nil
}

// UpdatePurchaseOrderRequest is the request body for editing a draft order.
// Absent fields are left unchanged.
type UpdatePurchaseOrderRequest struct {
	SupplierID   *string    `json:"supplierId"`
	ExpectedDate *time.Time `json:"expectedDate"`
	Notes        *string    `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *UpdatePurchaseOrderRequest) ToInput() (purchasing.UpdateInput, error) {
	in := purchasing.UpdateInput{
		ExpectedDate: r.ExpectedDate,
		Notes:        r.Notes,
	}
	if r.SupplierID != nil {
		supplierID, err := id.Parse(*r.SupplierID)
		if err != nil {
			return purchasing.UpdateInput{}, apperror.NewValidation("invalid supplierId format")
		}
		in.SupplierID = &supplierID
	}
	return in, nil
}

// ReceiveLineRequest is a single received line.
type ReceiveLineRequest struct {
	ItemID   string  `json:"itemId" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// ReceivePurchaseOrderRequest is the request body for booking a receipt.
type ReceivePurchaseOrderRequest struct {
	Items []ReceiveLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ToLines converts the request to domain receive lines.
func (r *ReceivePurchaseOrderRequest) ToLines() ([]purchasing.ReceiveLineInput, error) {
	lines := make([]purchasing.ReceiveLineInput, 0, len(r.Items))
	for i, item := range r.Items {
		itemID, err := id.Parse(item.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid itemId format").
				WithDetail("line", i+1)
		}
		lines = append(lines, purchasing.ReceiveLineInput{
			ItemID:   itemID,
			Quantity: types.NewQuantityFromFloat64(item.Quantity),
		})
	}
	return lines, nil
}
