// Package purchasing owns the purchase order lifecycle: draft creation,
// incremental receiving into stock and cancellation.
package purchasing

import (
	"context"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Status is the purchase order state. It is computed from received
// quantities, never set directly by clients.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusPartiallyReceived Status = "PARTIALLY_RECEIVED"
	StatusReceived          Status = "RECEIVED"
	StatusCancelled         Status = "CANCELLED"
)

// PurchaseOrder is an inbound stock document against a supplier.
type PurchaseOrder struct {
	entity.Document

	SupplierID  id.ID `db:"supplier_id" json:"supplierId"`
	OutletID    id.ID `db:"outlet_id" json:"outletId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Status Status `db:"status" json:"status"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`
	ReceivedAt   *time.Time `db:"received_at" json:"receivedAt,omitempty"`

	Items []PurchaseOrderItem `db:"-" json:"items"`
}

// PurchaseOrderItem is one ordered line. QuantityReceived only ever
// grows; it is advanced by Receive calls.
type PurchaseOrderItem struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	LineNo  int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	QuantityOrdered  types.Quantity `db:"quantity_ordered" json:"quantityOrdered"`
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`

	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	LineTotal types.Money `db:"line_total" json:"lineTotal"`
}

// IsFullyReceived reports whether the line needs no further receipts.
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.QuantityReceived >= i.QuantityOrdered
}

// NewPurchaseOrder creates a DRAFT purchase order shell.
func NewPurchaseOrder(businessID, createdBy string, supplierID, outletID, warehouseID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:    entity.NewDocument(businessID, createdBy),
		SupplierID:  supplierID,
		OutletID:    outletID,
		WarehouseID: warehouseID,
		Status:      StatusDraft,
		Items:       make([]PurchaseOrderItem, 0),
	}
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if id.IsNil(p.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(p.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range p.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.QuantityOrdered.IsPositive() {
			return apperror.NewValidation("ordered quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitCost.Sign() < 0 {
			return apperror.NewValidation("unit cost must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// IsReceivable reports whether the order can still accept receipts.
func (p *PurchaseOrder) IsReceivable() bool {
	return p.Status == StatusDraft || p.Status == StatusPartiallyReceived
}

// DeriveStatus recomputes the receiving status from line quantities.
// DRAFT is kept until the first receipt arrives.
func (p *PurchaseOrder) DeriveStatus() Status {
	if p.Status == StatusCancelled {
		return StatusCancelled
	}

	anyReceived, allReceived := false, true
	for i := range p.Items {
		if !p.Items[i].QuantityReceived.IsZero() {
			anyReceived = true
		}
		if !p.Items[i].IsFullyReceived() {
			allReceived = false
		}
	}

	switch {
	case allReceived && len(p.Items) > 0:
		return StatusReceived
	case anyReceived:
		return StatusPartiallyReceived
	default:
		return StatusDraft
	}
}
