package inventory

import (
	"context"
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Repository defines persistence for inventory rows and the movement ledger.
//
// Quantity changes go through ApplyDelta, a single conditional UPDATE
// (qty = qty + delta WHERE qty + delta >= 0) so concurrent transactions
// cannot produce lost updates or negative stock regardless of isolation
// level.
type Repository interface {
	// GetInventory returns the row for product+warehouse.
	// Returns apperror NotFound if the row does not exist.
	GetInventory(ctx context.Context, productID, warehouseID id.ID) (*Inventory, error)

	// EnsureRow inserts the inventory row with quantity 0 if absent.
	EnsureRow(ctx context.Context, productID, warehouseID id.ID) error

	// ApplyDelta atomically adds delta to quantity_on_hand, guarded
	// against going negative. Returns the updated row, or nil when the
	// guard rejected the change (row missing or insufficient quantity).
	ApplyDelta(ctx context.Context, productID, warehouseID id.ID, delta types.Quantity) (*Inventory, error)

	// SetMinimumStock updates the reorder threshold.
	SetMinimumStock(ctx context.Context, productID, warehouseID id.ID, minimum types.Quantity) error

	// CreateMovement appends one ledger record. Movements are never
	// updated or deleted.
	CreateMovement(ctx context.Context, movement StockMovement) error

	// ListByWarehouse returns all inventory rows in a warehouse.
	ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]Inventory, error)

	// ListMovements returns ledger history for a product, newest first.
	ListMovements(ctx context.Context, productID id.ID, filter MovementFilter) ([]StockMovement, error)
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	WarehouseID *id.ID
	Type        *MovementType
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}
