package inventory

import (
	"context"
	"fmt"

	"retailops/internal/core/apperror"
	"retailops/internal/core/events"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/pkg/logger"
)

// Service is the inventory ledger. Every mutation runs in one
// transaction: the quantity change and its movement record commit
// together or not at all.
type Service struct {
	repo      Repository
	txManager tx.Manager
	sink      events.Sink
}

// NewService creates a new inventory ledger service.
func NewService(repo Repository, txManager tx.Manager, sink events.Sink) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		sink:      sink,
	}
}

// AdjustInput describes a manual stock correction.
type AdjustInput struct {
	ProductID   id.ID
	WarehouseID id.ID
	OutletID    *id.ID
	Quantity    types.Quantity
	Direction   Direction
	Notes       string
}

// Adjust applies a manual IN/OUT correction and appends an adjustment
// movement. The row is created at zero if absent; an OUT that would go
// negative is rejected before commit, never clamped.
func (s *Service) Adjust(ctx context.Context, in AdjustInput, userID string) (*Inventory, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var delta types.Quantity
	var movType MovementType
	switch in.Direction {
	case DirectionIn:
		delta = in.Quantity
		movType = MovementAdjustmentIn
	case DirectionOut:
		delta = in.Quantity.Neg()
		movType = MovementAdjustmentOut
	default:
		return nil, apperror.NewInvalidRequest("invalid adjustment direction").
			WithDetail("direction", string(in.Direction))
	}

	var updated *Inventory
	var movement StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureRow(ctx, in.ProductID, in.WarehouseID); err != nil {
			return fmt.Errorf("ensure inventory row: %w", err)
		}

		row, err := s.repo.ApplyDelta(ctx, in.ProductID, in.WarehouseID, delta)
		if err != nil {
			return fmt.Errorf("apply delta: %w", err)
		}
		if row == nil {
			return s.invalidInventoryState(ctx, in.ProductID, in.WarehouseID, in.Quantity)
		}
		updated = row

		movement = NewStockMovement(in.ProductID, movType, in.Quantity, userID)
		movement.OutletID = in.OutletID
		movement.Notes = in.Notes
		if movType == MovementAdjustmentIn {
			movement.ToWarehouseID = &in.WarehouseID
		} else {
			movement.FromWarehouseID = &in.WarehouseID
		}

		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory adjusted",
		"product_id", in.ProductID,
		"warehouse_id", in.WarehouseID,
		"direction", in.Direction,
		"quantity", in.Quantity,
	)

	// Best effort: the adjustment is committed regardless.
	if err := s.sink.Publish(ctx, events.Event{
		AggregateType: "StockMovement",
		AggregateID:   movement.ID,
		Type:          events.TypeStockAdjusted,
		Payload: map[string]any{
			"product_id":   in.ProductID,
			"warehouse_id": in.WarehouseID,
			"direction":    in.Direction,
			"quantity":     in.Quantity,
			"on_hand":      updated.QuantityOnHand,
		},
	}); err != nil {
		logger.Warn(ctx, "publish adjustment event failed", "movement_id", movement.ID, "error", err)
	}

	if updated.IsBelowMinimum() {
		logger.Warn(ctx, "stock below minimum",
			"product_id", in.ProductID,
			"warehouse_id", in.WarehouseID,
			"on_hand", updated.QuantityOnHand,
			"minimum", updated.MinimumStock,
		)
	}

	return updated, nil
}

// TransferInput describes a stock move between warehouses.
type TransferInput struct {
	ProductID       id.ID
	FromWarehouseID id.ID
	ToWarehouseID   id.ID
	OutletID        *id.ID
	Quantity        types.Quantity
	Notes           string
}

// TransferResult carries both updated rows.
type TransferResult struct {
	Source      *Inventory `json:"source"`
	Destination *Inventory `json:"destination"`
}

// Transfer moves stock between warehouses, conserving total quantity.
// One TRANSFER movement carries both warehouse references.
func (s *Service) Transfer(ctx context.Context, in TransferInput, userID string) (*TransferResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, apperror.NewInvalidRequest("source and destination warehouses must differ")
	}

	var result TransferResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		source, err := s.repo.GetInventory(ctx, in.ProductID, in.FromWarehouseID)
		if err != nil {
			return err
		}

		updated, err := s.repo.ApplyDelta(ctx, in.ProductID, in.FromWarehouseID, in.Quantity.Neg())
		if err != nil {
			return fmt.Errorf("decrement source: %w", err)
		}
		if updated == nil {
			return apperror.NewInsufficientStock(
				in.ProductID.String(),
				in.Quantity.Float64(),
				source.QuantityOnHand.Float64(),
			)
		}
		result.Source = updated

		if err := s.repo.EnsureRow(ctx, in.ProductID, in.ToWarehouseID); err != nil {
			return fmt.Errorf("ensure destination row: %w", err)
		}
		dest, err := s.repo.ApplyDelta(ctx, in.ProductID, in.ToWarehouseID, in.Quantity)
		if err != nil {
			return fmt.Errorf("increment destination: %w", err)
		}
		if dest == nil {
			return apperror.NewInternal(fmt.Errorf("destination increment rejected for product %s", in.ProductID))
		}
		result.Destination = dest

		movement := NewStockMovement(in.ProductID, MovementTransfer, in.Quantity, userID)
		movement.FromWarehouseID = &in.FromWarehouseID
		movement.ToWarehouseID = &in.ToWarehouseID
		movement.OutletID = in.OutletID
		movement.Notes = in.Notes

		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transferred",
		"product_id", in.ProductID,
		"from_warehouse_id", in.FromWarehouseID,
		"to_warehouse_id", in.ToWarehouseID,
		"quantity", in.Quantity,
	)

	return &result, nil
}

// Decrease removes sold stock and appends a SALE movement. Called by
// order completion inside its transaction (nested calls reuse it).
//
// A sale against an untracked product+warehouse creates the row at zero
// and then rejects the decrement, so unstocked sales fail loudly
// instead of leaving stock unaccounted.
func (s *Service) Decrease(ctx context.Context, productID, warehouseID id.ID, quantity types.Quantity, outletID *id.ID, reference, userID string) error {
	if !quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureRow(ctx, productID, warehouseID); err != nil {
			return fmt.Errorf("ensure inventory row: %w", err)
		}

		updated, err := s.repo.ApplyDelta(ctx, productID, warehouseID, quantity.Neg())
		if err != nil {
			return fmt.Errorf("apply delta: %w", err)
		}
		if updated == nil {
			row, getErr := s.repo.GetInventory(ctx, productID, warehouseID)
			available := 0.0
			if getErr == nil {
				available = row.QuantityOnHand.Float64()
			}
			return apperror.NewInsufficientStock(productID.String(), quantity.Float64(), available)
		}

		movement := NewStockMovement(productID, MovementSale, quantity, userID)
		movement.FromWarehouseID = &warehouseID
		movement.OutletID = outletID
		movement.Reference = reference

		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
}

// Increase adds received stock and appends a PURCHASE movement. Called
// by purchase order receiving inside its transaction.
func (s *Service) Increase(ctx context.Context, productID, warehouseID id.ID, quantity types.Quantity, outletID *id.ID, reference, userID string) error {
	if !quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureRow(ctx, productID, warehouseID); err != nil {
			return fmt.Errorf("ensure inventory row: %w", err)
		}

		updated, err := s.repo.ApplyDelta(ctx, productID, warehouseID, quantity)
		if err != nil {
			return fmt.Errorf("apply delta: %w", err)
		}
		if updated == nil {
			return apperror.NewInternal(fmt.Errorf("increment rejected for product %s", productID))
		}

		movement := NewStockMovement(productID, MovementPurchase, quantity, userID)
		movement.ToWarehouseID = &warehouseID
		movement.OutletID = outletID
		movement.Reference = reference

		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
}

// SetMinimumStock updates the reorder threshold, creating the row at
// zero quantity if needed.
func (s *Service) SetMinimumStock(ctx context.Context, productID, warehouseID id.ID, minimum types.Quantity) error {
	if minimum.IsNegative() {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minimumStock")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureRow(ctx, productID, warehouseID); err != nil {
			return fmt.Errorf("ensure inventory row: %w", err)
		}
		return s.repo.SetMinimumStock(ctx, productID, warehouseID, minimum)
	})
}

// GetInventory returns the row for product+warehouse (NotFound if untracked).
func (s *Service) GetInventory(ctx context.Context, productID, warehouseID id.ID) (*Inventory, error) {
	return s.repo.GetInventory(ctx, productID, warehouseID)
}

// ListWarehouseStock returns all tracked inventory in a warehouse.
func (s *Service) ListWarehouseStock(ctx context.Context, warehouseID id.ID) ([]Inventory, error) {
	return s.repo.ListByWarehouse(ctx, warehouseID)
}

// GetMovementHistory returns ledger history for a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]StockMovement, error) {
	return s.repo.ListMovements(ctx, productID, filter)
}

func (s *Service) invalidInventoryState(ctx context.Context, productID, warehouseID id.ID, requested types.Quantity) error {
	row, err := s.repo.GetInventory(ctx, productID, warehouseID)
	available := 0.0
	if err == nil {
		available = row.QuantityOnHand.Float64()
	}
	return apperror.NewInvalidInventoryState("adjustment would drive stock negative").
		WithDetail("product_id", productID.String()).
		WithDetail("warehouse_id", warehouseID.String()).
		WithDetail("requested", requested.Float64()).
		WithDetail("available", available)
}
