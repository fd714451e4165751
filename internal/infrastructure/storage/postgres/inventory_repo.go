package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/inventory"
)

const (
	inventoryTable      = "reg_inventory"
	stockMovementsTable = "reg_stock_movements"
)

var (
	inventoryColumns = ExtractDBColumns[inventory.Inventory]()
	movementColumns  = ExtractDBColumns[inventory.StockMovement]()
)

// InventoryRepo implements inventory.Repository.
//
// The non-negative invariant is enforced in SQL: ApplyDelta is a single
// conditional UPDATE, so two concurrent sales of the last unit cannot
// both succeed regardless of transaction isolation.
type InventoryRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txManager *TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetInventory returns the row for product+warehouse.
func (r *InventoryRepo) GetInventory(ctx context.Context, productID, warehouseID id.ID) (*inventory.Inventory, error) {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{
			"product_id":   productID,
			"warehouse_id": warehouseID,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row inventory.Inventory
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("inventory", productID)
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}

	return &row, nil
}

// EnsureRow inserts the inventory row with quantity 0 if absent.
func (r *InventoryRepo) EnsureRow(ctx context.Context, productID, warehouseID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO reg_inventory (product_id, warehouse_id, quantity_on_hand, minimum_stock, updated_at)
		VALUES ($1, $2, 0, 0, $3)
		ON CONFLICT (product_id, warehouse_id) DO NOTHING
	`, productID, warehouseID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure inventory row: %w", err)
	}
	return nil
}

// ApplyDelta atomically adds delta to quantity_on_hand. The WHERE guard
// makes the statement a no-op when the result would be negative; the
// caller distinguishes that from success by the nil return.
func (r *InventoryRepo) ApplyDelta(ctx context.Context, productID, warehouseID id.ID, delta types.Quantity) (*inventory.Inventory, error) {
	querier := r.txManager.GetQuerier(ctx)

	var row inventory.Inventory
	err := pgxscan.Get(ctx, querier, &row, `
		UPDATE reg_inventory
		SET quantity_on_hand = quantity_on_hand + $1,
		    updated_at = $2
		WHERE product_id = $3
		  AND warehouse_id = $4
		  AND quantity_on_hand + $1 >= 0
		RETURNING product_id, warehouse_id, quantity_on_hand, minimum_stock, updated_at
	`, delta, time.Now().UTC(), productID, warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("apply inventory delta: %w", err)
	}

	return &row, nil
}

// SetMinimumStock updates the reorder threshold.
func (r *InventoryRepo) SetMinimumStock(ctx context.Context, productID, warehouseID id.ID, minimum types.Quantity) error {
	q := r.builder.Update(inventoryTable).
		Set("minimum_stock", minimum).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"product_id":   productID,
			"warehouse_id": warehouseID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set minimum stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory", productID)
	}

	return nil
}

// CreateMovement appends one ledger record.
func (r *InventoryRepo) CreateMovement(ctx context.Context, movement inventory.StockMovement) error {
	data := StructToMap(movement)

	q := r.builder.Insert(stockMovementsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	return nil
}

// ListByWarehouse returns all inventory rows in a warehouse.
func (r *InventoryRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]inventory.Inventory, error) {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []inventory.Inventory
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list warehouse inventory: %w", err)
	}

	return rows, nil
}

// ListMovements returns ledger history for a product, newest first.
func (r *InventoryRepo) ListMovements(ctx context.Context, productID id.ID, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at DESC")

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"to_warehouse_id": *filter.WarehouseID},
		})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []inventory.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}

	return movements, nil
}
