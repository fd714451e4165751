// Package orders owns the POS order lifecycle: creation with frozen
// line prices, split payments, completion and cancellation.
package orders

import (
	"context"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Status is the POS order state. OPEN is the only non-terminal state.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// PaymentStatus is derived from the sum of payments vs the order total.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// PosOrder is a point-of-sale order. Monetary totals are computed once
// at creation and immutable thereafter.
type PosOrder struct {
	entity.Document

	OutletID    id.ID  `db:"outlet_id" json:"outletId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	RegisterID  id.ID  `db:"register_id" json:"registerId"`
	CustomerID  *id.ID `db:"customer_id" json:"customerId,omitempty"`

	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	SubtotalAmount      types.Money `db:"subtotal_amount" json:"subtotalAmount"`
	TotalDiscountAmount types.Money `db:"total_discount_amount" json:"totalDiscountAmount"`
	TotalTaxAmount      types.Money `db:"total_tax_amount" json:"totalTaxAmount"`
	TotalAmount         types.Money `db:"total_amount" json:"totalAmount"`

	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`

	Items    []PosOrderItem `db:"-" json:"items"`
	Payments []Payment      `db:"-" json:"payments,omitempty"`
}

// PosOrderItem is one order line. UnitPrice, tax and the tier used are
// captured at creation so later price changes never affect history.
type PosOrderItem struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	LineNo  int   `db:"line_no" json:"lineNo"`

	ProductID            id.ID  `db:"product_id" json:"productId"`
	EffectivePriceTierID *id.ID `db:"effective_price_tier_id" json:"effectivePriceTierId,omitempty"`

	Quantity       types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice      types.Money    `db:"unit_price" json:"unitPrice"`
	DiscountAmount types.Money    `db:"discount_amount" json:"discountAmount"`
	TaxAmount      types.Money    `db:"tax_amount" json:"taxAmount"`
	LineTotal      types.Money    `db:"line_total" json:"lineTotal"`
}

// Payment is one tender against an order; split payment is multiple rows.
type Payment struct {
	ID        id.ID       `db:"id" json:"id"`
	OrderID   id.ID       `db:"order_id" json:"orderId"`
	Method    string      `db:"method" json:"method"`
	Amount    types.Money `db:"amount" json:"amount"`
	Reference string      `db:"reference" json:"reference,omitempty"`
	PaidAt    time.Time   `db:"paid_at" json:"paidAt"`
}

// NewPosOrder creates an OPEN, UNPAID order shell.
func NewPosOrder(businessID, createdBy string, outletID, warehouseID, registerID id.ID) *PosOrder {
	return &PosOrder{
		Document:      entity.NewDocument(businessID, createdBy),
		OutletID:      outletID,
		WarehouseID:   warehouseID,
		RegisterID:    registerID,
		Status:        StatusOpen,
		PaymentStatus: PaymentUnpaid,
		Items:         make([]PosOrderItem, 0),
	}
}

// Validate implements entity.Validatable.
func (o *PosOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.OutletID) {
		return apperror.NewValidation("outlet is required").
			WithDetail("field", "outletId")
	}
	if id.IsNil(o.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// IsOpen reports whether the order still accepts payments and transitions.
func (o *PosOrder) IsOpen() bool {
	return o.Status == StatusOpen
}

// Close stamps the terminal status and closing time.
func (o *PosOrder) Close(status Status) {
	now := time.Now().UTC()
	o.Status = status
	o.ClosedAt = &now
	o.Touch()
}

// DerivePaymentStatus computes the payment sub-state from the full sum
// of payments, not incrementally, so it is correct regardless of the
// order payments arrive in.
func DerivePaymentStatus(paid, total types.Money) PaymentStatus {
	switch {
	case paid.Sign() <= 0:
		return PaymentUnpaid
	case paid.LessThan(total):
		return PaymentPartial
	default:
		return PaymentPaid
	}
}
