package orders

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Repository defines persistence for POS orders and payments.
type Repository interface {
	// Create inserts the order header and all items.
	Create(ctx context.Context, order *PosOrder) error

	// GetByID returns the order with items (apperror NotFound if absent).
	GetByID(ctx context.Context, orderID id.ID) (*PosOrder, error)

	// Update persists status, payment status and closed_at with
	// optimistic locking on version.
	Update(ctx context.Context, order *PosOrder) error

	// AddPayment inserts one payment row.
	AddPayment(ctx context.Context, payment *Payment) error

	// SumPayments returns the total paid amount for an order.
	SumPayments(ctx context.Context, orderID id.ID) (types.Money, error)

	// ListPayments returns all payments for an order, oldest first.
	ListPayments(ctx context.Context, orderID id.ID) ([]Payment, error)

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*PosOrder, error)

	// Outlet/customer lookups the lifecycle needs

	// GetOutletCode returns the outlet's short code for numbering
	// (apperror NotFound if the outlet does not exist).
	GetOutletCode(ctx context.Context, outletID id.ID) (string, error)

	// GetCustomerEmail returns the customer's email, or "" when the
	// customer has none.
	GetCustomerEmail(ctx context.Context, customerID id.ID) (string, error)
}

// ListFilter narrows order listings.
type ListFilter struct {
	OutletID      *id.ID
	Status        *Status
	PaymentStatus *PaymentStatus
	Limit         int
	Offset        int
}
