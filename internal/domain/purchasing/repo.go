package purchasing

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Repository defines persistence for purchase orders.
type Repository interface {
	// Create inserts the order header and all items.
	Create(ctx context.Context, order *PurchaseOrder) error

	// GetByID returns the order with items (apperror NotFound if absent).
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// Update persists header fields and status with optimistic locking.
	Update(ctx context.Context, order *PurchaseOrder) error

	// UpdateItemReceived advances a line's received quantity.
	UpdateItemReceived(ctx context.Context, itemID id.ID, received types.Quantity) error

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*PurchaseOrder, error)

	// GetOutletCode returns the outlet's short code for numbering.
	GetOutletCode(ctx context.Context, outletID id.ID) (string, error)
}

// ListFilter narrows purchase order listings.
type ListFilter struct {
	SupplierID *id.ID
	OutletID   *id.ID
	Status     *Status
	Limit      int
	Offset     int
}
