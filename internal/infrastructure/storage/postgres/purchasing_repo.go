package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/purchasing"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderItemsTable = "doc_purchase_order_items"
)

var (
	purchaseOrderColumns = ExtractDBColumns[purchasing.PurchaseOrder]()
	purchaseItemColumns  = ExtractDBColumns[purchasing.PurchaseOrderItem]()
)

// PurchasingRepo implements purchasing.Repository.
type PurchasingRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

var _ purchasing.Repository = (*PurchasingRepo)(nil)

// NewPurchasingRepo creates a new purchasing repository.
func NewPurchasingRepo(txManager *TxManager) *PurchasingRepo {
	return &PurchasingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the order header and all items in one round-trip.
func (r *PurchasingRepo) Create(ctx context.Context, order *purchasing.PurchaseOrder) error {
	headerSQL, headerArgs, err := r.builder.Insert(purchaseOrdersTable).
		SetMap(StructToMap(order)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build header insert: %w", err)
	}

	queries := []BatchQuery{{SQL: headerSQL, Args: headerArgs}}
	for i := range order.Items {
		itemSQL, itemArgs, err := r.builder.Insert(purchaseOrderItemsTable).
			SetMap(StructToMap(order.Items[i])).
			ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		queries = append(queries, BatchQuery{SQL: itemSQL, Args: itemArgs})
	}

	if err := NewBatchExecutor(r.txManager).ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	return nil
}

// GetByID returns the order with items.
func (r *PurchasingRepo) GetByID(ctx context.Context, orderID id.ID) (*purchasing.PurchaseOrder, error) {
	q := r.builder.Select(purchaseOrderColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order purchasing.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &order, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("purchase order", orderID)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	items, err := r.listItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *PurchasingRepo) listItems(ctx context.Context, orderID id.ID) ([]purchasing.PurchaseOrderItem, error) {
	q := r.builder.Select(purchaseItemColumns...).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []purchasing.PurchaseOrderItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}

	return items, nil
}

// Update persists header fields and status with optimistic locking.
func (r *PurchasingRepo) Update(ctx context.Context, order *purchasing.PurchaseOrder) error {
	q := r.builder.Update(purchaseOrdersTable).
		Set("supplier_id", order.SupplierID).
		Set("status", order.Status).
		Set("expected_date", order.ExpectedDate).
		Set("received_at", order.ReceivedAt).
		Set("notes", order.Notes).
		Set("version", order.Version).
		Set("updated_at", order.UpdatedAt).
		Where(squirrel.Eq{
			"id":      order.ID,
			"version": order.Version - 1,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("purchase order was modified concurrently").
			WithDetail("id", order.ID)
	}

	return nil
}

// UpdateItemReceived advances a line's received quantity.
func (r *PurchasingRepo) UpdateItemReceived(ctx context.Context, itemID id.ID, received types.Quantity) error {
	q := r.builder.Update(purchaseOrderItemsTable).
		Set("quantity_received", received).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update received quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order item", itemID)
	}

	return nil
}

// List returns purchase orders matching the filter, newest first.
// Items are not loaded for listings.
func (r *PurchasingRepo) List(ctx context.Context, filter purchasing.ListFilter) ([]*purchasing.PurchaseOrder, error) {
	q := r.builder.Select(purchaseOrderColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"business_id": appctx.GetBusinessID(ctx)}).
		OrderBy("date DESC", "number DESC")

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.OutletID != nil {
		q = q.Where(squirrel.Eq{"outlet_id": *filter.OutletID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
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

	var result []*purchasing.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}

	return result, nil
}

// GetOutletCode returns the outlet's short code for numbering.
func (r *PurchasingRepo) GetOutletCode(ctx context.Context, outletID id.ID) (string, error) {
	querier := r.txManager.GetQuerier(ctx)

	var code string
	err := querier.QueryRow(ctx, `
		SELECT code FROM cat_outlets WHERE id = $1
	`, outletID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NewNotFound("outlet", outletID)
		}
		return "", fmt.Errorf("get outlet code: %w", err)
	}

	return code, nil
}
