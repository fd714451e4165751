package orders

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
	"retailops/internal/domain/pricing"
	"retailops/pkg/logger"
)

// PriceResolver freezes effective unit prices into order lines.
type PriceResolver interface {
	Resolve(ctx context.Context, productID, outletID id.ID, customerID *id.ID) (*pricing.PriceQuote, error)
}

// StockLedger decrements sold stock at completion.
type StockLedger interface {
	Decrease(ctx context.Context, productID, warehouseID id.ID, quantity types.Quantity, outletID *id.ID, reference, userID string) error
}

// Service drives the POS order lifecycle.
type Service struct {
	repo      Repository
	resolver  PriceResolver
	ledger    StockLedger
	numerator numerator.Generator
	txManager tx.Manager
	sink      events.Sink
}

// NewService creates a new order lifecycle service.
func NewService(
	repo Repository,
	resolver PriceResolver,
	ledger StockLedger,
	gen numerator.Generator,
	txManager tx.Manager,
	sink events.Sink,
) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		ledger:    ledger,
		numerator: gen,
		txManager: txManager,
		sink:      sink,
	}
}

// CreateItemInput is one requested order line.
type CreateItemInput struct {
	ProductID      id.ID
	Quantity       types.Quantity
	DiscountAmount types.Money
}

// CreateInput describes a new POS order.
type CreateInput struct {
	OutletID    id.ID
	WarehouseID id.ID
	RegisterID  id.ID
	CustomerID  *id.ID
	Notes       string
	Items       []CreateItemInput
}

// Create builds an OPEN/UNPAID order, resolving and freezing the
// effective price for every line. Stock is not touched here; it is
// decremented at completion.
func (s *Service) Create(ctx context.Context, in CreateInput, userID string) (*PosOrder, error) {
	order := NewPosOrder(appctx.GetBusinessID(ctx), userID, in.OutletID, in.WarehouseID, in.RegisterID)
	order.CustomerID = in.CustomerID
	order.Notes = in.Notes

	subtotal, totalDiscount, totalTax, total := types.Zero(), types.Zero(), types.Zero(), types.Zero()

	for i, item := range in.Items {
		quote, err := s.resolver.Resolve(ctx, item.ProductID, in.OutletID, in.CustomerID)
		if err != nil {
			return nil, err
		}

		discount := item.DiscountAmount
		if discount.Sign() < 0 {
			discount = types.Zero()
		}

		gross := quote.EffectivePrice.Mul(item.Quantity.Decimal())
		taxable := gross.Sub(discount)
		tax := taxable.Mul(quote.TaxRate).Div(types.MustMoney("100"))
		lineTotal := taxable.Add(tax)

		line := PosOrderItem{
			ID:             id.New(),
			OrderID:        order.ID,
			LineNo:         i + 1,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      quote.EffectivePrice,
			DiscountAmount: discount,
			TaxAmount:      tax,
			LineTotal:      lineTotal,
		}
		if quote.PriceTier != nil {
			tierID := quote.PriceTier.ID
			line.EffectivePriceTierID = &tierID
		}
		order.Items = append(order.Items, line)

		subtotal = subtotal.Add(gross)
		totalDiscount = totalDiscount.Add(discount)
		totalTax = totalTax.Add(tax)
		total = total.Add(lineTotal)
	}

	order.SubtotalAmount = subtotal
	order.TotalDiscountAmount = totalDiscount
	order.TotalTaxAmount = totalTax
	order.TotalAmount = total

	if err := order.Validate(ctx); err != nil {
		return nil, err
	}

	outletCode, err := s.repo.GetOutletCode(ctx, in.OutletID)
	if err != nil {
		return nil, err
	}
	cfg := numerator.DefaultConfig("POS-" + outletCode)
	number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), order.Date)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}
	order.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pos order created",
		"id", order.ID,
		"number", order.Number,
		"total", order.TotalAmount,
		"lines", len(order.Items),
	)

	return order, nil
}

// AddPaymentInput is one tender against an open order.
type AddPaymentInput struct {
	Method    string
	Amount    types.Money
	Reference string
}

// PaymentResult returns both the inserted payment and the re-derived order.
type PaymentResult struct {
	Payment *Payment  `json:"payment"`
	Order   *PosOrder `json:"order"`
}

// AddPayment records a payment and re-derives the payment status from
// the full payment sum (not incrementally), so split payments settle
// correctly in any order.
func (s *Service) AddPayment(ctx context.Context, orderID id.ID, in AddPaymentInput) (*PaymentResult, error) {
	if in.Amount.Sign() <= 0 {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if in.Method == "" {
		return nil, apperror.NewValidation("payment method is required").
			WithDetail("field", "method")
	}

	var result PaymentResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return apperror.NewInvalidOrderState("pos order", string(order.Status))
		}

		payment := &Payment{
			ID:        id.New(),
			OrderID:   orderID,
			Method:    in.Method,
			Amount:    in.Amount,
			Reference: in.Reference,
			PaidAt:    time.Now().UTC(),
		}
		if err := s.repo.AddPayment(ctx, payment); err != nil {
			return fmt.Errorf("add payment: %w", err)
		}

		paid, err := s.repo.SumPayments(ctx, orderID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}

		order.PaymentStatus = DerivePaymentStatus(paid, order.TotalAmount)
		order.Touch()
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		result.Payment = payment
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment added",
		"order_id", orderID,
		"amount", in.Amount,
		"payment_status", result.Order.PaymentStatus,
	)

	return &result, nil
}

// Complete closes a fully paid order and decrements stock for every
// line in the same transaction. Audit and receipt-email events are
// published after commit; their failure never undoes the completion.
func (s *Service) Complete(ctx context.Context, orderID id.ID, userID string) (*PosOrder, error) {
	var order *PosOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return apperror.NewInvalidOrderState("pos order", string(order.Status))
		}
		if order.PaymentStatus != PaymentPaid {
			paid, sumErr := s.repo.SumPayments(ctx, orderID)
			if sumErr != nil {
				paid = types.Zero()
			}
			return apperror.NewPaymentIncomplete(orderID.String(), paid.String(), order.TotalAmount.String())
		}

		order.Close(StatusCompleted)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		for _, item := range order.Items {
			outletID := order.OutletID
			if err := s.ledger.Decrease(ctx, item.ProductID, order.WarehouseID, item.Quantity, &outletID, order.Number, userID); err != nil {
				return fmt.Errorf("decrease stock for product %s: %w", item.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pos order completed", "id", order.ID, "number", order.Number)
	s.publishCompletionEvents(ctx, order)

	return order, nil
}

// Cancel closes an open order without touching stock (nothing was
// reserved or decremented while OPEN).
func (s *Service) Cancel(ctx context.Context, orderID id.ID, userID string) (*PosOrder, error) {
	var order *PosOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return apperror.NewInvalidOrderState("pos order", string(order.Status))
		}

		order.Close(StatusCancelled)
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pos order cancelled", "id", order.ID, "number", order.Number, "user_id", userID)

	if err := s.sink.Publish(ctx, events.Event{
		AggregateType: "PosOrder",
		AggregateID:   order.ID,
		Type:          events.TypeOrderCancelled,
		Payload:       map[string]any{"number": order.Number, "cancelled_by": userID},
	}); err != nil {
		logger.Warn(ctx, "publish cancel event failed", "order_id", order.ID, "error", err)
	}

	return order, nil
}

// GetByID returns the order with items and payments.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PosOrder, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPayments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	order.Payments = payments

	return order, nil
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*PosOrder, error) {
	return s.repo.List(ctx, filter)
}

// publishCompletionEvents emits the audit event and, when the customer
// has an email, a receipt job. Best effort only.
func (s *Service) publishCompletionEvents(ctx context.Context, order *PosOrder) {
	if err := s.sink.Publish(ctx, events.Event{
		AggregateType: "PosOrder",
		AggregateID:   order.ID,
		Type:          events.TypeOrderCompleted,
		Payload: map[string]any{
			"number": order.Number,
			"total":  order.TotalAmount,
			"outlet": order.OutletID,
		},
	}); err != nil {
		logger.Warn(ctx, "publish completion event failed", "order_id", order.ID, "error", err)
	}

	if order.CustomerID == nil {
		return
	}
	email, err := s.repo.GetCustomerEmail(ctx, *order.CustomerID)
	if err != nil || email == "" {
		return
	}
	if err := s.sink.Publish(ctx, events.Event{
		AggregateType: "PosOrder",
		AggregateID:   order.ID,
		Type:          events.TypeReceiptEmail,
		Payload: map[string]any{
			"number": order.Number,
			"email":  email,
			"total":  order.TotalAmount,
		},
	}); err != nil {
		logger.Warn(ctx, "publish receipt email event failed", "order_id", order.ID, "error", err)
	}
}
