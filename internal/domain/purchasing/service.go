package purchasing

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/events"
	"retailops/internal/core/id"
	"retailops/internal/core/numerator"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/pkg/logger"
)

// StockLedger increments received stock.
type StockLedger interface {
	Increase(ctx context.Context, productID, warehouseID id.ID, quantity types.Quantity, outletID *id.ID, reference, userID string) error
}

// Service drives the purchase order lifecycle.
type Service struct {
	repo      Repository
	ledger    StockLedger
	numerator numerator.Generator
	txManager tx.Manager
	sink      events.Sink
}

// NewService creates a new purchasing service.
func NewService(
	repo Repository,
	ledger StockLedger,
	gen numerator.Generator,
	txManager tx.Manager,
	sink events.Sink,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		numerator: gen,
		txManager: txManager,
		sink:      sink,
	}
}

// CreateItemInput is one requested purchase line.
type CreateItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitCost  types.Money
}

// CreateInput describes a new purchase order.
type CreateInput struct {
	SupplierID   id.ID
	OutletID     id.ID
	WarehouseID  id.ID
	ExpectedDate *time.Time
	Notes        string
	Items        []CreateItemInput
}

// Create builds a DRAFT purchase order with computed line and order totals.
func (s *Service) Create(ctx context.Context, in CreateInput, userID string) (*PurchaseOrder, error) {
	order := NewPurchaseOrder(appctx.GetBusinessID(ctx), userID, in.SupplierID, in.OutletID, in.WarehouseID)
	order.ExpectedDate = in.ExpectedDate
	order.Notes = in.Notes

	total := types.Zero()
	for i, item := range in.Items {
		lineTotal := item.UnitCost.Mul(item.Quantity.Decimal())
		order.Items = append(order.Items, PurchaseOrderItem{
			ID:              id.New(),
			OrderID:         order.ID,
			LineNo:          i + 1,
			ProductID:       item.ProductID,
			QuantityOrdered: item.Quantity,
			UnitCost:        item.UnitCost,
			LineTotal:       lineTotal,
		})
		total = total.Add(lineTotal)
	}
	order.TotalAmount = total

	if err := order.Validate(ctx); err != nil {
		return nil, err
	}

	outletCode, err := s.repo.GetOutletCode(ctx, in.OutletID)
	if err != nil {
		return nil, err
	}
	cfg := numerator.DefaultConfig("PO-" + outletCode)
	number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), order.Date)
	if err != nil {
		return nil, fmt.Errorf("generate purchase order number: %w", err)
	}
	order.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created",
		"id", order.ID,
		"number", order.Number,
		"supplier_id", order.SupplierID,
		"total", order.TotalAmount,
	)

	if err := s.sink.Publish(ctx, events.Event{
		AggregateType: "PurchaseOrder",
		AggregateID:   order.ID,
		Type:          events.TypePurchaseCreated,
		Payload:       map[string]any{"number": order.Number, "supplier_id": order.SupplierID},
	}); err != nil {
		logger.Warn(ctx, "publish purchase created event failed", "order_id", order.ID, "error", err)
	}

	return order, nil
}

// UpdateInput carries the header fields editable while DRAFT.
type UpdateInput struct {
	SupplierID   *id.ID
	ExpectedDate *time.Time
	Notes        *string
}

// Update edits header fields of a DRAFT order. Lines are immutable
// after creation; receiving is the only way quantities change.
func (s *Service) Update(ctx context.Context, orderID id.ID, in UpdateInput) (*PurchaseOrder, error) {
	var order *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusDraft {
			return apperror.NewInvalidOrderState("purchase order", string(order.Status))
		}

		if in.SupplierID != nil {
			order.SupplierID = *in.SupplierID
		}
		if in.ExpectedDate != nil {
			order.ExpectedDate = in.ExpectedDate
		}
		if in.Notes != nil {
			order.Notes = *in.Notes
		}
		order.Touch()

		if err := order.Validate(ctx); err != nil {
			return err
		}
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReceiveLineInput is one received quantity against an order line.
type ReceiveLineInput struct {
	ItemID   id.ID
	Quantity types.Quantity
}

// Receive books received quantities into stock and recomputes the order
// status. Partial and repeated receipts are expected; the order becomes
// RECEIVED once every line's received quantity covers the ordered one.
func (s *Service) Receive(ctx context.Context, orderID id.ID, lines []ReceiveLineInput, userID string) (*PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("at least one receive line is required").
			WithDetail("field", "lines")
	}
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, apperror.NewValidation("received quantity must be positive").
				WithDetail("itemId", line.ItemID)
		}
	}

	var order *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsReceivable() {
			return apperror.NewInvalidOrderState("purchase order", string(order.Status))
		}

		byID := make(map[id.ID]*PurchaseOrderItem, len(order.Items))
		for i := range order.Items {
			byID[order.Items[i].ID] = &order.Items[i]
		}

		outletID := order.OutletID
		for _, line := range lines {
			item, ok := byID[line.ItemID]
			if !ok {
				return apperror.NewNotFound("purchase order item", line.ItemID)
			}

			item.QuantityReceived += line.Quantity
			if err := s.repo.UpdateItemReceived(ctx, item.ID, item.QuantityReceived); err != nil {
				return fmt.Errorf("update received quantity: %w", err)
			}
			if err := s.ledger.Increase(ctx, item.ProductID, order.WarehouseID, line.Quantity, &outletID, order.Number, userID); err != nil {
				return fmt.Errorf("increase stock for product %s: %w", item.ProductID, err)
			}
		}

		order.Status = order.DeriveStatus()
		if order.Status == StatusReceived {
			now := time.Now().UTC()
			order.ReceivedAt = &now
		}
		order.Touch()
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order received",
		"id", order.ID,
		"number", order.Number,
		"status", order.Status,
		"lines", len(lines),
	)

	return order, nil
}

// Cancel closes an order that has not been fully received. Stock already
// booked by earlier partial receipts stays on hand; correcting it is an
// explicit inventory adjustment.
func (s *Service) Cancel(ctx context.Context, orderID id.ID, userID string) (*PurchaseOrder, error) {
	var order *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusReceived || order.Status == StatusCancelled {
			return apperror.NewInvalidOrderState("purchase order", string(order.Status))
		}

		order.Status = StatusCancelled
		order.Touch()
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order cancelled", "id", order.ID, "number", order.Number, "user_id", userID)
	return order, nil
}

// GetByID returns the order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns purchase orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*PurchaseOrder, error) {
	return s.repo.List(ctx, filter)
}
