package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/events"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
)

// recordSink captures published events for assertions.
type recordSink struct {
	published []events.Event
}

func (s *recordSink) Publish(ctx context.Context, event events.Event) error {
	s.published = append(s.published, event)
	return nil
}

type invKey struct {
	product   id.ID
	warehouse id.ID
}

// fakeRepo is an in-memory inventory.Repository enforcing the same
// non-negative guard the SQL conditional update does.
type fakeRepo struct {
	rows      map[invKey]*Inventory
	movements []StockMovement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[invKey]*Inventory)}
}

func (f *fakeRepo) GetInventory(ctx context.Context, productID, warehouseID id.ID) (*Inventory, error) {
	row, ok := f.rows[invKey{productID, warehouseID}]
	if !ok {
		return nil, apperror.NewNotFound("inventory", productID)
	}
	cp := *row
	return &cp, nil
}

func (f *fakeRepo) EnsureRow(ctx context.Context, productID, warehouseID id.ID) error {
	key := invKey{productID, warehouseID}
	if _, ok := f.rows[key]; !ok {
		f.rows[key] = &Inventory{
			ProductID:   productID,
			WarehouseID: warehouseID,
			UpdatedAt:   time.Now().UTC(),
		}
	}
	return nil
}

func (f *fakeRepo) ApplyDelta(ctx context.Context, productID, warehouseID id.ID, delta types.Quantity) (*Inventory, error) {
	row, ok := f.rows[invKey{productID, warehouseID}]
	if !ok {
		return nil, nil
	}
	next := row.QuantityOnHand + delta
	if next.IsNegative() {
		return nil, nil
	}
	row.QuantityOnHand = next
	row.UpdatedAt = time.Now().UTC()
	cp := *row
	return &cp, nil
}

func (f *fakeRepo) SetMinimumStock(ctx context.Context, productID, warehouseID id.ID, minimum types.Quantity) error {
	row, ok := f.rows[invKey{productID, warehouseID}]
	if !ok {
		return apperror.NewNotFound("inventory", productID)
	}
	row.MinimumStock = minimum
	return nil
}

func (f *fakeRepo) CreateMovement(ctx context.Context, movement StockMovement) error {
	f.movements = append(f.movements, movement)
	return nil
}

func (f *fakeRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]Inventory, error) {
	var out []Inventory
	for key, row := range f.rows {
		if key.warehouse == warehouseID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListMovements(ctx context.Context, productID id.ID, filter MovementFilter) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ledgerSum folds signed movement deltas for one product+warehouse.
func (f *fakeRepo) ledgerSum(productID, warehouseID id.ID) types.Quantity {
	var sum types.Quantity
	for i := range f.movements {
		if f.movements[i].ProductID == productID {
			sum += f.movements[i].SignedDelta(warehouseID)
		}
	}
	return sum
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, &tx.MockManager{}, events.NopSink{})
}

func seed(repo *fakeRepo, productID, warehouseID id.ID, quantity float64) {
	repo.rows[invKey{productID, warehouseID}] = &Inventory{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		QuantityOnHand: qty(quantity),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestAdjust_InCreatesRowAndMovement(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, warehouseID := id.New(), id.New()

	row, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty(10),
		Direction:   DirectionIn,
		Notes:       "initial count",
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, qty(10), row.QuantityOnHand)
	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	assert.Equal(t, MovementAdjustmentIn, m.Type)
	assert.Equal(t, qty(10), m.Quantity)
	require.NotNil(t, m.ToWarehouseID)
	assert.Equal(t, warehouseID, *m.ToWarehouseID)
	assert.Nil(t, m.FromWarehouseID)
	assert.Equal(t, qty(10), repo.ledgerSum(productID, warehouseID))
}

func TestAdjust_PublishesAdjustmentEvent(t *testing.T) {
	repo := newFakeRepo()
	sink := &recordSink{}
	svc := NewService(repo, &tx.MockManager{}, sink)
	productID, warehouseID := id.New(), id.New()

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty(4),
		Direction:   DirectionIn,
	}, "user-1")
	require.NoError(t, err)

	require.Len(t, sink.published, 1)
	event := sink.published[0]
	assert.Equal(t, events.TypeStockAdjusted, event.Type)
	assert.Equal(t, "StockMovement", event.AggregateType)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, repo.movements[0].ID, event.AggregateID)
}

func TestAdjust_RejectedOutPublishesNothing(t *testing.T) {
	repo := newFakeRepo()
	sink := &recordSink{}
	svc := NewService(repo, &tx.MockManager{}, sink)
	productID, warehouseID := id.New(), id.New()
	seed(repo, productID, warehouseID, 1)

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty(5),
		Direction:   DirectionOut,
	}, "user-1")
	require.Error(t, err)
	assert.Empty(t, sink.published)
}

func TestAdjust_OutBeyondStockRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, warehouseID := id.New(), id.New()
	seed(repo, productID, warehouseID, 5)

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty(10),
		Direction:   DirectionOut,
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInventoryState))

	// Row untouched, no movement written.
	row, err := repo.GetInventory(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, qty(5), row.QuantityOnHand)
	assert.Empty(t, repo.movements)
}

func TestAdjust_InvalidDirection(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID:   id.New(),
		WarehouseID: id.New(),
		Quantity:    qty(1),
		Direction:   Direction("SIDEWAYS"),
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRequest))
}

func TestTransfer_ConservesTotalQuantity(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, whA, whB := id.New(), id.New(), id.New()
	seed(repo, productID, whA, 8)
	seed(repo, productID, whB, 2)

	result, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:       productID,
		FromWarehouseID: whA,
		ToWarehouseID:   whB,
		Quantity:        qty(3),
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, qty(5), result.Source.QuantityOnHand)
	assert.Equal(t, qty(5), result.Destination.QuantityOnHand)
	assert.Equal(t, qty(10), result.Source.QuantityOnHand+result.Destination.QuantityOnHand)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	assert.Equal(t, MovementTransfer, m.Type)
	assert.Equal(t, qty(-3), m.SignedDelta(whA))
	assert.Equal(t, qty(3), m.SignedDelta(whB))
}

func TestTransfer_SameWarehouseRejected(t *testing.T) {
	svc := newTestService(newFakeRepo())
	productID, wh := id.New(), id.New()

	_, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:       productID,
		FromWarehouseID: wh,
		ToWarehouseID:   wh,
		Quantity:        qty(1),
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRequest))
}

func TestTransfer_MissingSourceRow(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:       id.New(),
		FromWarehouseID: id.New(),
		ToWarehouseID:   id.New(),
		Quantity:        qty(1),
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestTransfer_InsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, whA, whB := id.New(), id.New(), id.New()
	seed(repo, productID, whA, 2)

	_, err := svc.Transfer(context.Background(), TransferInput{
		ProductID:       productID,
		FromWarehouseID: whA,
		ToWarehouseID:   whB,
		Quantity:        qty(5),
	}, "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestDecrease_AppendsSaleMovement(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, warehouseID, outletID := id.New(), id.New(), id.New()
	seed(repo, productID, warehouseID, 5)

	err := svc.Decrease(context.Background(), productID, warehouseID, qty(2), &outletID, "POS-MAIN-20260828-0001", "user-1")
	require.NoError(t, err)

	row, err := repo.GetInventory(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, qty(3), row.QuantityOnHand)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	assert.Equal(t, MovementSale, m.Type)
	assert.Equal(t, "POS-MAIN-20260828-0001", m.Reference)
	assert.Equal(t, qty(-2), m.SignedDelta(warehouseID))
}

func TestDecrease_UntrackedStockFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, warehouseID := id.New(), id.New()

	err := svc.Decrease(context.Background(), productID, warehouseID, qty(1), nil, "ref", "user-1")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Row was created at zero but nothing moved.
	row, getErr := repo.GetInventory(context.Background(), productID, warehouseID)
	require.NoError(t, getErr)
	assert.True(t, row.QuantityOnHand.IsZero())
	assert.Empty(t, repo.movements)
}

func TestIncrease_CreatesRowAndPurchaseMovement(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, warehouseID := id.New(), id.New()

	err := svc.Increase(context.Background(), productID, warehouseID, qty(7), nil, "PO-MAIN-20260828-0001", "user-1")
	require.NoError(t, err)

	row, err := repo.GetInventory(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, qty(7), row.QuantityOnHand)

	require.Len(t, repo.movements, 1)
	assert.Equal(t, MovementPurchase, repo.movements[0].Type)
}

func TestLedgerConsistency(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	productID, whA, whB := id.New(), id.New(), id.New()

	_, err := svc.Adjust(ctx, AdjustInput{ProductID: productID, WarehouseID: whA, Quantity: qty(20), Direction: DirectionIn}, "u")
	require.NoError(t, err)
	require.NoError(t, svc.Increase(ctx, productID, whA, qty(5), nil, "po-1", "u"))
	_, err = svc.Transfer(ctx, TransferInput{ProductID: productID, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: qty(10)}, "u")
	require.NoError(t, err)
	require.NoError(t, svc.Decrease(ctx, productID, whA, qty(4), nil, "order-1", "u"))
	_, err = svc.Adjust(ctx, AdjustInput{ProductID: productID, WarehouseID: whB, Quantity: qty(1), Direction: DirectionOut}, "u")
	require.NoError(t, err)

	rowA, err := repo.GetInventory(ctx, productID, whA)
	require.NoError(t, err)
	rowB, err := repo.GetInventory(ctx, productID, whB)
	require.NoError(t, err)

	// quantity_on_hand equals the signed movement sum for each key,
	// and never went negative along the way.
	assert.Equal(t, repo.ledgerSum(productID, whA), rowA.QuantityOnHand)
	assert.Equal(t, repo.ledgerSum(productID, whB), rowB.QuantityOnHand)
	assert.Equal(t, qty(11), rowA.QuantityOnHand)
	assert.Equal(t, qty(9), rowB.QuantityOnHand)
}

func TestSetMinimumStock(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	productID, warehouseID := id.New(), id.New()

	require.NoError(t, svc.SetMinimumStock(context.Background(), productID, warehouseID, qty(3)))

	row, err := repo.GetInventory(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, qty(3), row.MinimumStock)
	assert.True(t, row.IsBelowMinimum())

	err = svc.SetMinimumStock(context.Background(), productID, warehouseID, qty(-1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
