// Package inventory owns on-hand stock quantities and the append-only
// stock movement ledger.
package inventory

import (
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementAdjustmentIn  MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut MovementType = "ADJUSTMENT_OUT"
	MovementTransfer      MovementType = "TRANSFER"
	MovementSale          MovementType = "SALE"
	MovementPurchase      MovementType = "PURCHASE"
)

// Direction of a manual stock adjustment.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Inventory is the on-hand quantity of one product in one warehouse.
// Rows are created lazily on first movement and mutated only through
// the ledger service; QuantityOnHand never goes negative.
type Inventory struct {
	ProductID      id.ID          `db:"product_id" json:"productId"`
	WarehouseID    id.ID          `db:"warehouse_id" json:"warehouseId"`
	QuantityOnHand types.Quantity `db:"quantity_on_hand" json:"quantityOnHand"`
	MinimumStock   types.Quantity `db:"minimum_stock" json:"minimumStock"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsBelowMinimum reports whether on-hand stock dropped under the
// configured reorder threshold.
func (i *Inventory) IsBelowMinimum() bool {
	return i.MinimumStock.IsPositive() && i.QuantityOnHand < i.MinimumStock
}

// StockMovement is an immutable fact record. Quantity stores the
// magnitude; direction is implied by Type and the populated warehouse
// references. Movements are never updated or deleted — their signed sum
// per product+warehouse is the audit trail for QuantityOnHand.
type StockMovement struct {
	ID              id.ID          `db:"id" json:"id"`
	ProductID       id.ID          `db:"product_id" json:"productId"`
	FromWarehouseID *id.ID         `db:"from_warehouse_id" json:"fromWarehouseId,omitempty"`
	ToWarehouseID   *id.ID         `db:"to_warehouse_id" json:"toWarehouseId,omitempty"`
	OutletID        *id.ID         `db:"outlet_id" json:"outletId,omitempty"`
	Type            MovementType   `db:"type" json:"type"`
	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	Reference       string         `db:"reference" json:"reference,omitempty"`
	Notes           string         `db:"notes" json:"notes,omitempty"`
	CreatedBy       string         `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement with generated id and timestamp.
func NewStockMovement(productID id.ID, movType MovementType, quantity types.Quantity, createdBy string) StockMovement {
	return StockMovement{
		ID:        id.New(),
		ProductID: productID,
		Type:      movType,
		Quantity:  quantity,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
}

// SignedDelta returns the movement's effect on the given warehouse.
// Zero when the movement does not touch that warehouse.
func (m *StockMovement) SignedDelta(warehouseID id.ID) types.Quantity {
	switch m.Type {
	case MovementAdjustmentIn, MovementPurchase:
		if m.ToWarehouseID != nil && *m.ToWarehouseID == warehouseID {
			return m.Quantity
		}
	case MovementAdjustmentOut, MovementSale:
		if m.FromWarehouseID != nil && *m.FromWarehouseID == warehouseID {
			return m.Quantity.Neg()
		}
	case MovementTransfer:
		if m.FromWarehouseID != nil && *m.FromWarehouseID == warehouseID {
			return m.Quantity.Neg()
		}
		if m.ToWarehouseID != nil && *m.ToWarehouseID == warehouseID {
			return m.Quantity
		}
	}
	return 0
}
