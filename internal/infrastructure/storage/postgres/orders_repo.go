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
	"retailops/internal/domain/orders"
)

const (
	posOrdersTable     = "doc_pos_orders"
	posOrderItemsTable = "doc_pos_order_items"
	posPaymentsTable   = "doc_pos_order_payments"
)

var (
	posOrderColumns = ExtractDBColumns[orders.PosOrder]()
	posItemColumns  = ExtractDBColumns[orders.PosOrderItem]()
	paymentColumns  = ExtractDBColumns[orders.Payment]()
)

// OrdersRepo implements orders.Repository.
type OrdersRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

var _ orders.Repository = (*OrdersRepo)(nil)

// NewOrdersRepo creates a new orders repository.
func NewOrdersRepo(txManager *TxManager) *OrdersRepo {
	return &OrdersRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the order header and all items in one round-trip.
func (r *OrdersRepo) Create(ctx context.Context, order *orders.PosOrder) error {
	headerSQL, headerArgs, err := r.builder.Insert(posOrdersTable).
		SetMap(StructToMap(order)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build header insert: %w", err)
	}

	queries := []BatchQuery{{SQL: headerSQL, Args: headerArgs}}
	for i := range order.Items {
		itemSQL, itemArgs, err := r.builder.Insert(posOrderItemsTable).
			SetMap(StructToMap(order.Items[i])).
			ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		queries = append(queries, BatchQuery{SQL: itemSQL, Args: itemArgs})
	}

	if err := NewBatchExecutor(r.txManager).ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert pos order: %w", err)
	}

	return nil
}

// GetByID returns the order with items.
func (r *OrdersRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.PosOrder, error) {
	q := r.builder.Select(posOrderColumns...).
		From(posOrdersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order orders.PosOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &order, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("pos order", orderID)
		}
		return nil, fmt.Errorf("get pos order: %w", err)
	}

	items, err := r.listItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *OrdersRepo) listItems(ctx context.Context, orderID id.ID) ([]orders.PosOrderItem, error) {
	q := r.builder.Select(posItemColumns...).
		From(posOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []orders.PosOrderItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	return items, nil
}

// Update persists mutable header fields with optimistic locking.
// Items and monetary totals are immutable after creation.
func (r *OrdersRepo) Update(ctx context.Context, order *orders.PosOrder) error {
	q := r.builder.Update(posOrdersTable).
		Set("status", order.Status).
		Set("payment_status", order.PaymentStatus).
		Set("closed_at", order.ClosedAt).
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
		return fmt.Errorf("update pos order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("pos order was modified concurrently").
			WithDetail("id", order.ID)
	}

	return nil
}

// AddPayment inserts one payment row.
func (r *OrdersRepo) AddPayment(ctx context.Context, payment *orders.Payment) error {
	q := r.builder.Insert(posPaymentsTable).SetMap(StructToMap(payment))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

// SumPayments returns the total paid amount for an order.
func (r *OrdersRepo) SumPayments(ctx context.Context, orderID id.ID) (types.Money, error) {
	querier := r.txManager.GetQuerier(ctx)

	var sum types.Money
	err := querier.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM doc_pos_order_payments
		WHERE order_id = $1
	`, orderID).Scan(&sum)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum payments: %w", err)
	}

	return sum, nil
}

// ListPayments returns all payments for an order, oldest first.
func (r *OrdersRepo) ListPayments(ctx context.Context, orderID id.ID) ([]orders.Payment, error) {
	q := r.builder.Select(paymentColumns...).
		From(posPaymentsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("paid_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []orders.Payment
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return payments, nil
}

// List returns orders matching the filter, newest first. Items are not
// loaded for listings.
func (r *OrdersRepo) List(ctx context.Context, filter orders.ListFilter) ([]*orders.PosOrder, error) {
	q := r.builder.Select(posOrderColumns...).
		From(posOrdersTable).
		Where(squirrel.Eq{"business_id": appctx.GetBusinessID(ctx)}).
		OrderBy("date DESC", "number DESC")

	if filter.OutletID != nil {
		q = q.Where(squirrel.Eq{"outlet_id": *filter.OutletID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
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

	var result []*orders.PosOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result, sql, args...); err != nil {
		return nil, fmt.Errorf("list pos orders: %w", err)
	}

	return result, nil
}

// GetOutletCode returns the outlet's short code for numbering.
func (r *OrdersRepo) GetOutletCode(ctx context.Context, outletID id.ID) (string, error) {
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

// GetCustomerEmail returns the customer's email, or "" when unset.
func (r *OrdersRepo) GetCustomerEmail(ctx context.Context, customerID id.ID) (string, error) {
	querier := r.txManager.GetQuerier(ctx)

	var email *string
	err := querier.QueryRow(ctx, `
		SELECT email FROM cat_customers WHERE id = $1
	`, customerID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NewNotFound("customer", customerID)
		}
		return "", fmt.Errorf("get customer email: %w", err)
	}

	if email == nil {
		return "", nil
	}
	return *email, nil
}
