package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/events"
	"retailops/internal/core/id"
	"retailops/internal/core/numerator"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
)

// fakePurchasingRepo is an in-memory purchasing.Repository.
type fakePurchasingRepo struct {
	orders  map[id.ID]*PurchaseOrder
	outlets map[id.ID]string
}

func newFakePurchasingRepo() *fakePurchasingRepo {
	return &fakePurchasingRepo{
		orders:  make(map[id.ID]*PurchaseOrder),
		outlets: make(map[id.ID]string),
	}
}

func clone(order *PurchaseOrder) *PurchaseOrder {
	cp := *order
	cp.Items = make([]PurchaseOrderItem, len(order.Items))
	copy(cp.Items, order.Items)
	return &cp
}

func (f *fakePurchasingRepo) Create(ctx context.Context, order *PurchaseOrder) error {
	f.orders[order.ID] = clone(order)
	return nil
}

func (f *fakePurchasingRepo) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID)
	}
	return clone(order), nil
}

func (f *fakePurchasingRepo) Update(ctx context.Context, order *PurchaseOrder) error {
	if _, ok := f.orders[order.ID]; !ok {
		return apperror.NewNotFound("purchase order", order.ID)
	}
	f.orders[order.ID] = clone(order)
	return nil
}

func (f *fakePurchasingRepo) UpdateItemReceived(ctx context.Context, itemID id.ID, received types.Quantity) error {
	for _, order := range f.orders {
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				order.Items[i].QuantityReceived = received
				return nil
			}
		}
	}
	return apperror.NewNotFound("purchase order item", itemID)
}

func (f *fakePurchasingRepo) List(ctx context.Context, filter ListFilter) ([]*PurchaseOrder, error) {
	var out []*PurchaseOrder
	for _, order := range f.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		out = append(out, clone(order))
	}
	return out, nil
}

func (f *fakePurchasingRepo) GetOutletCode(ctx context.Context, outletID id.ID) (string, error) {
	code, ok := f.outlets[outletID]
	if !ok {
		return "", apperror.NewNotFound("outlet", outletID)
	}
	return code, nil
}

// fakeLedger records stock increases per product.
type fakeLedger struct {
	stock map[id.ID]types.Quantity
	refs  []string
}

func (f *fakeLedger) Increase(ctx context.Context, productID, warehouseID id.ID, quantity types.Quantity, outletID *id.ID, reference, userID string) error {
	f.stock[productID] += quantity
	f.refs = append(f.refs, reference)
	return nil
}

type fixture struct {
	repo     *fakePurchasingRepo
	ledger   *fakeLedger
	svc      *Service
	outletID id.ID
}

func newFixture() *fixture {
	repo := newFakePurchasingRepo()
	ledger := &fakeLedger{stock: make(map[id.ID]types.Quantity)}
	outletID := id.New()
	repo.outlets[outletID] = "MAIN"

	return &fixture{
		repo:     repo,
		ledger:   ledger,
		svc:      NewService(repo, ledger, &numerator.MockGenerator{}, &tx.MockManager{}, events.NopSink{}),
		outletID: outletID,
	}
}

func testCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:     "user-1",
		BusinessID: "biz-1",
	})
}

func pqty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func (fx *fixture) createOrder(t *testing.T, items ...CreateItemInput) *PurchaseOrder {
	t.Helper()
	order, err := fx.svc.Create(testCtx(), CreateInput{
		SupplierID:  id.New(),
		OutletID:    fx.outletID,
		WarehouseID: id.New(),
		Items:       items,
	}, "user-1")
	require.NoError(t, err)
	return order
}

func TestCreate_DraftWithComputedTotals(t *testing.T) {
	fx := newFixture()

	order := fx.createOrder(t,
		CreateItemInput{ProductID: id.New(), Quantity: pqty(10), UnitCost: types.MustMoney("2.50")},
		CreateItemInput{ProductID: id.New(), Quantity: pqty(4), UnitCost: types.MustMoney("1.00")},
	)

	assert.Equal(t, StatusDraft, order.Status)
	assert.Equal(t, "PO-MAIN-0001", order.Number)
	assert.True(t, types.MustMoney("29.00").Equal(order.TotalAmount), "got %s", order.TotalAmount)

	require.Len(t, order.Items, 2)
	assert.True(t, types.MustMoney("25.00").Equal(order.Items[0].LineTotal))
	assert.True(t, order.Items[0].QuantityReceived.IsZero())

	// Nothing hits stock before receiving.
	assert.Empty(t, fx.ledger.refs)
}

func TestCreate_ValidationFailures(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.Create(testCtx(), CreateInput{
		SupplierID:  id.New(),
		OutletID:    fx.outletID,
		WarehouseID: id.New(),
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = fx.svc.Create(testCtx(), CreateInput{
		SupplierID:  id.New(),
		OutletID:    fx.outletID,
		WarehouseID: id.New(),
		Items: []CreateItemInput{
			{ProductID: id.New(), Quantity: pqty(0), UnitCost: types.MustMoney("1.00")},
		},
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestUpdate_DraftOnly(t *testing.T) {
	fx := newFixture()
	order := fx.createOrder(t, CreateItemInput{ProductID: id.New(), Quantity: pqty(1), UnitCost: types.MustMoney("1.00")})

	newSupplier := id.New()
	notes := "rush delivery"
	updated, err := fx.svc.Update(testCtx(), order.ID, UpdateInput{SupplierID: &newSupplier, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, newSupplier, updated.SupplierID)
	assert.Equal(t, "rush delivery", updated.Notes)

	// Fully receive, then updating must fail.
	_, err = fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(1)},
	}, "user-1")
	require.NoError(t, err)

	_, err = fx.svc.Update(testCtx(), order.ID, UpdateInput{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidOrderState))
}

func TestReceive_PartialThenFull(t *testing.T) {
	fx := newFixture()
	prodX, prodY := id.New(), id.New()
	order := fx.createOrder(t,
		CreateItemInput{ProductID: prodX, Quantity: pqty(10), UnitCost: types.MustMoney("2.00")},
		CreateItemInput{ProductID: prodY, Quantity: pqty(5), UnitCost: types.MustMoney("3.00")},
	)

	// First delivery covers part of line one only.
	got, err := fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(4)},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyReceived, got.Status)
	assert.Nil(t, got.ReceivedAt)
	assert.Equal(t, pqty(4), fx.ledger.stock[prodX])

	// Second delivery completes both lines.
	got, err = fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(6)},
		{ItemID: order.Items[1].ID, Quantity: pqty(5)},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)
	require.NotNil(t, got.ReceivedAt)

	assert.Equal(t, pqty(10), fx.ledger.stock[prodX])
	assert.Equal(t, pqty(5), fx.ledger.stock[prodY])
	for _, ref := range fx.ledger.refs {
		assert.Equal(t, order.Number, ref)
	}

	// A third delivery against a RECEIVED order is rejected.
	_, err = fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(1)},
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidOrderState))
}

func TestReceive_ForeignItemRejected(t *testing.T) {
	fx := newFixture()
	order := fx.createOrder(t, CreateItemInput{ProductID: id.New(), Quantity: pqty(1), UnitCost: types.MustMoney("1.00")})

	_, err := fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: id.New(), Quantity: pqty(1)},
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReceive_NonPositiveQuantityRejected(t *testing.T) {
	fx := newFixture()
	order := fx.createOrder(t, CreateItemInput{ProductID: id.New(), Quantity: pqty(1), UnitCost: types.MustMoney("1.00")})

	_, err := fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(0)},
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Empty(t, fx.ledger.refs)
}

func TestCancel_AllowedStates(t *testing.T) {
	fx := newFixture()
	order := fx.createOrder(t, CreateItemInput{ProductID: id.New(), Quantity: pqty(2), UnitCost: types.MustMoney("1.00")})

	// Partial receipt keeps the order cancellable; booked stock stays.
	_, err := fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(1)},
	}, "user-1")
	require.NoError(t, err)

	cancelled, err := fx.svc.Cancel(testCtx(), order.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// No further receipts and no double cancel.
	_, err = fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(1)},
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidOrderState))

	_, err = fx.svc.Cancel(testCtx(), order.ID, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidOrderState))
}

func TestCancel_ReceivedOrderRejected(t *testing.T) {
	fx := newFixture()
	order := fx.createOrder(t, CreateItemInput{ProductID: id.New(), Quantity: pqty(1), UnitCost: types.MustMoney("1.00")})

	_, err := fx.svc.Receive(testCtx(), order.ID, []ReceiveLineInput{
		{ItemID: order.Items[0].ID, Quantity: pqty(1)},
	}, "user-1")
	require.NoError(t, err)

	_, err = fx.svc.Cancel(testCtx(), order.ID, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidOrderState))
}

func TestExpectedDateRoundtrip(t *testing.T) {
	fx := newFixture()
	expected := time.Now().UTC().Add(72 * time.Hour)

	order, err := fx.svc.Create(testCtx(), CreateInput{
		SupplierID:   id.New(),
		OutletID:     fx.outletID,
		WarehouseID:  id.New(),
		ExpectedDate: &expected,
		Items: []CreateItemInput{
			{ProductID: id.New(), Quantity: pqty(1), UnitCost: types.MustMoney("1.00")},
		},
	}, "user-1")
	require.NoError(t, err)

	got, err := fx.svc.GetByID(testCtx(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExpectedDate)
	assert.True(t, expected.Equal(*got.ExpectedDate))
}
