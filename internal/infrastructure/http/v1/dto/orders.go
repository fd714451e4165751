package dto

import (
	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/orders"
)

// CreatePosOrderItemRequest is a single line of a new POS order.
type CreatePosOrderItemRequest struct {
	ProductID      string      `json:"productId" binding:"required"`
	Quantity       float64     `json:"quantity" binding:"required,gt=0"`
	DiscountAmount types.Money `json:"discountAmount"`
}

// CreatePosOrderRequest is the request body for creating a POS order.
type CreatePosOrderRequest struct {
	OutletID    string                      `json:"outletId" binding:"required"`
	WarehouseID string                      `json:"warehouseId" binding:"required"`
	RegisterID  string                      `json:"registerId" binding:"required"`
	CustomerID  string                      `json:"customerId"`
	Notes       string                      `json:"notes"`
	Items       []CreatePosOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts the request to the domain input.
func (r *CreatePosOrderRequest) ToInput() (orders.CreateInput, error) {
	outletID, err := id.Parse(r.OutletID)
	if err != nil {
		return orders.CreateInput{}, apperror.NewValidation("invalid outletId format")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return orders.CreateInput{}, apperror.NewValidation("invalid warehouseId format")
	}
	registerID, err := id.Parse(r.RegisterID)
	if err != nil {
		return orders.CreateInput{}, apperror.NewValidation("invalid registerId format")
	}

	in := orders.CreateInput{
		OutletID:    outletID,
		WarehouseID: warehouseID,
		RegisterID:  registerID,
		Notes:       r.Notes,
	}
	if r.CustomerID != "" {
		customerID, err := id.Parse(r.CustomerID)
		if err != nil {
			return orders.CreateInput{}, apperror.NewValidation("invalid customerId format")
		}
		in.CustomerID = &customerID
	}

	in.Items = make([]orders.CreateItemInput, 0, len(r.Items))
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return orders.CreateInput{}, apperror.NewValidation("invalid productId format").
				WithDetail("line", i+1)
		}
		in.Items = append(in.Items, orders.CreateItemInput{
			ProductID:      productID,
			Quantity:       types.NewQuantityFromFloat64(item.Quantity),
			DiscountAmount: item.DiscountAmount,
		})
	}
	return in, nil
}

// AddPaymentRequest is the request body for recording a payment.
type AddPaymentRequest struct {
	Method    string      `json:"method" binding:"required"`
	Amount    types.Money `json:"amount" binding:"required"`
	Reference string      `json:"reference"`
}

// ToInput converts the request to the domain input.
func (r *AddPaymentRequest) ToInput() orders.AddPaymentInput {
	return orders.AddPaymentInput{
		Method:    r.Method,
		Amount:    r.Amount,
		Reference: r.Reference,
	}
}
