package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itemmodel "marketplace-backend/internal/domains/item/model"
	"marketplace-backend/internal/domains/logistics/model"
	returnsmodel "marketplace-backend/internal/domains/returns/model"
	trademodel "marketplace-backend/internal/domains/trade/model"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
)

// =====================================================
// FAKES
// =====================================================

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*model.LogisticsTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*model.LogisticsTask)}
}

func (r *fakeTaskRepo) BeginTx(context.Context) (pgx.Tx, error)  { return nil, nil }
func (r *fakeTaskRepo) CommitTx(context.Context, pgx.Tx) error   { return nil }
func (r *fakeTaskRepo) RollbackTx(context.Context, pgx.Tx) error { return nil }

func (r *fakeTaskRepo) Create(ctx context.Context, task *model.LogisticsTask) error {
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error {
	return r.Create(ctx, task)
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.LogisticsTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) ListAvailable(ctx context.Context, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	var out []model.LogisticsTask
	for _, t := range r.tasks {
		if t.CourierID == nil && t.Status == model.StatusPendingAccept {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (r *fakeTaskRepo) ListByCourier(ctx context.Context, courierID uuid.UUID, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	var out []model.LogisticsTask
	for _, t := range r.tasks {
		if t.CourierID != nil && *t.CourierID == courierID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (r *fakeTaskRepo) Accept(ctx context.Context, id, courierID uuid.UUID) error {
	task, ok := r.tasks[id]
	if !ok {
		return model.ErrTaskNotFound
	}
	if task.CourierID != nil || task.Status != model.StatusPendingAccept {
		return fmt.Errorf("%w: task_id=%s", model.ErrTaskAlreadyAssigned, id)
	}
	cid := courierID
	task.CourierID = &cid
	task.Status = model.StatusPendingPickup
	return nil
}

func (r *fakeTaskRepo) RecordPickup(ctx context.Context, tx pgx.Tx, id uuid.UUID, evidence []string) error {
	task, ok := r.tasks[id]
	if !ok {
		return model.ErrTaskNotFound
	}
	if task.Status != model.StatusPendingPickup {
		return model.NewTaskStateConflictError(id, model.StatusPendingPickup)
	}
	task.Status = model.StatusPendingReceipt
	task.PickupEvidence = evidence
	return nil
}

func (r *fakeTaskRepo) RecordDelivery(ctx context.Context, tx pgx.Tx, id uuid.UUID, evidence []string) error {
	task, ok := r.tasks[id]
	if !ok {
		return model.ErrTaskNotFound
	}
	if task.Status != model.StatusPendingReceipt {
		return model.NewTaskStateConflictError(id, model.StatusPendingReceipt)
	}
	task.Status = model.StatusCompleted
	task.DeliveryEvidence = evidence
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*trademodel.OrderRecord
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*trademodel.OrderRecord)}
}

func (r *fakeOrderRepo) BeginTx(context.Context) (pgx.Tx, error)  { return nil, nil }
func (r *fakeOrderRepo) CommitTx(context.Context, pgx.Tx) error   { return nil }
func (r *fakeOrderRepo) RollbackTx(context.Context, pgx.Tx) error { return nil }

func (r *fakeOrderRepo) Create(ctx context.Context, order *trademodel.OrderRecord) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, order *trademodel.OrderRecord) error {
	return r.Create(ctx, order)
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*trademodel.OrderRecord, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, trademodel.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) GetByItemID(ctx context.Context, itemID uuid.UUID) (*trademodel.OrderRecord, error) {
	for _, o := range r.orders {
		if o.ItemID == itemID {
			return o, nil
		}
	}
	return nil, trademodel.ErrOrderNotFound
}

func (r *fakeOrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter trademodel.ListOrdersRequest) ([]trademodel.OrderRecord, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, filter trademodel.ListOrdersRequest) ([]trademodel.OrderRecord, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next trademodel.OrderStatus) error {
	order, ok := r.orders[id]
	if !ok {
		return trademodel.ErrOrderNotFound
	}
	if order.Status != expected {
		return trademodel.NewInvalidTransitionError(id, expected, next)
	}
	order.Status = next
	return nil
}

func (r *fakeOrderRepo) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next trademodel.OrderStatus) error {
	return r.UpdateStatus(ctx, id, expected, next)
}

func (r *fakeOrderRepo) MarkConfirmed(ctx context.Context, id uuid.UUID, expected trademodel.OrderStatus) error {
	return r.UpdateStatus(ctx, id, expected, trademodel.StatusConfirmed)
}

type fakeItemRepo struct {
	statuses map[uuid.UUID]itemmodel.ItemStatus
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{statuses: make(map[uuid.UUID]itemmodel.ItemStatus)}
}

func (r *fakeItemRepo) Create(ctx context.Context, item *itemmodel.Item) error {
	r.statuses[item.ID] = item.Status
	return nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*itemmodel.Item, error) {
	status, ok := r.statuses[id]
	if !ok {
		return nil, itemmodel.ErrItemNotFound
	}
	return &itemmodel.Item{ID: id, Status: status}, nil
}

func (r *fakeItemRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next itemmodel.ItemStatus) error {
	status, ok := r.statuses[id]
	if !ok {
		return itemmodel.ErrItemNotFound
	}
	if status != expected {
		return fmt.Errorf("%w: item_id=%s", itemmodel.ErrItemStateConflict, id)
	}
	r.statuses[id] = next
	return nil
}

func (r *fakeItemRepo) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next itemmodel.ItemStatus) error {
	return r.UpdateStatus(ctx, id, expected, next)
}

type fakeWarehouseRepo struct {
	warehouses map[uuid.UUID]*whmodel.Warehouse
	stocks     map[uuid.UUID]*whmodel.StockRecord
	intakes    map[uuid.UUID]*whmodel.IntakeRecord
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	return &fakeWarehouseRepo{
		warehouses: make(map[uuid.UUID]*whmodel.Warehouse),
		stocks:     make(map[uuid.UUID]*whmodel.StockRecord),
		intakes:    make(map[uuid.UUID]*whmodel.IntakeRecord),
	}
}

func (r *fakeWarehouseRepo) ListWarehouses(ctx context.Context) ([]whmodel.Warehouse, error) {
	var out []whmodel.Warehouse
	for _, w := range r.warehouses {
		out = append(out, *w)
	}
	return out, nil
}

func (r *fakeWarehouseRepo) GetWarehouse(ctx context.Context, id uuid.UUID) (*whmodel.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, whmodel.ErrWarehouseNotFound
	}
	return w, nil
}

func (r *fakeWarehouseRepo) CreateStockRecord(ctx context.Context, record *whmodel.StockRecord) error {
	r.stocks[record.ID] = record
	return nil
}

func (r *fakeWarehouseRepo) CreateStockRecordWithTx(ctx context.Context, tx pgx.Tx, record *whmodel.StockRecord) error {
	return r.CreateStockRecord(ctx, record)
}

func (r *fakeWarehouseRepo) GetActiveStockByItem(ctx context.Context, itemID uuid.UUID) (*whmodel.StockRecord, error) {
	for _, s := range r.stocks {
		if s.ItemID == itemID && s.Status == whmodel.StockIn {
			return s, nil
		}
	}
	return nil, whmodel.ErrStockRecordNotFound
}

func (r *fakeWarehouseRepo) UpdateStockStatus(ctx context.Context, id uuid.UUID, expected, next whmodel.StockStatus) error {
	s, ok := r.stocks[id]
	if !ok {
		return whmodel.ErrStockRecordNotFound
	}
	if s.Status != expected {
		return whmodel.ErrStockStateConflict
	}
	s.Status = next
	return nil
}

func (r *fakeWarehouseRepo) UpdateStockStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next whmodel.StockStatus) error {
	return r.UpdateStockStatus(ctx, id, expected, next)
}

func (r *fakeWarehouseRepo) CreateIntake(ctx context.Context, record *whmodel.IntakeRecord) error {
	r.intakes[record.ID] = record
	return nil
}

func (r *fakeWarehouseRepo) GetIntake(ctx context.Context, id uuid.UUID) (*whmodel.IntakeRecord, error) {
	rec, ok := r.intakes[id]
	if !ok {
		return nil, whmodel.ErrIntakeNotFound
	}
	return rec, nil
}

func (r *fakeWarehouseRepo) GetIntakeByItem(ctx context.Context, itemID uuid.UUID) (*whmodel.IntakeRecord, error) {
	for _, rec := range r.intakes {
		if rec.ItemID == itemID {
			return rec, nil
		}
	}
	return nil, whmodel.ErrIntakeNotFound
}

func (r *fakeWarehouseRepo) UpdateIntakeStatus(ctx context.Context, id uuid.UUID, expected, next whmodel.IntakeStatus) error {
	rec, ok := r.intakes[id]
	if !ok {
		return whmodel.ErrIntakeNotFound
	}
	if rec.Status != expected {
		return whmodel.ErrIntakeStateConflict
	}
	rec.Status = next
	return nil
}

func (r *fakeWarehouseRepo) UpdateIntakeStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next whmodel.IntakeStatus) error {
	return r.UpdateIntakeStatus(ctx, id, expected, next)
}

type fakeReturnsRepo struct {
	refunds map[uuid.UUID]*returnsmodel.RefundRequest
	rts     map[uuid.UUID]*returnsmodel.ReturnToSellerRecord
}

func newFakeReturnsRepo() *fakeReturnsRepo {
	return &fakeReturnsRepo{
		refunds: make(map[uuid.UUID]*returnsmodel.RefundRequest),
		rts:     make(map[uuid.UUID]*returnsmodel.ReturnToSellerRecord),
	}
}

func (r *fakeReturnsRepo) CreateRefund(ctx context.Context, request *returnsmodel.RefundRequest) error {
	r.refunds[request.ID] = request
	return nil
}

func (r *fakeReturnsRepo) GetRefund(ctx context.Context, id uuid.UUID) (*returnsmodel.RefundRequest, error) {
	req, ok := r.refunds[id]
	if !ok {
		return nil, returnsmodel.ErrRefundRequestNotFound
	}
	return req, nil
}

func (r *fakeReturnsRepo) GetOpenRefundByOrder(ctx context.Context, orderID uuid.UUID) (*returnsmodel.RefundRequest, error) {
	for _, req := range r.refunds {
		if req.OrderID == orderID && req.IsOpen() {
			return req, nil
		}
	}
	return nil, returnsmodel.ErrRefundRequestNotFound
}

func (r *fakeReturnsRepo) ListRefundsBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]returnsmodel.RefundRequest, int, error) {
	return nil, 0, nil
}

func (r *fakeReturnsRepo) UpdateRefundStatus(ctx context.Context, id uuid.UUID, expected, next returnsmodel.RefundStatus) error {
	req, ok := r.refunds[id]
	if !ok {
		return returnsmodel.ErrRefundRequestNotFound
	}
	if req.Status != expected {
		return returnsmodel.ErrRefundStateConflict
	}
	req.Status = next
	return nil
}

func (r *fakeReturnsRepo) UpdateRefundStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next returnsmodel.RefundStatus) error {
	return r.UpdateRefundStatus(ctx, id, expected, next)
}

func (r *fakeReturnsRepo) SetRefundWarehouse(ctx context.Context, id, warehouseID uuid.UUID) error {
	req, ok := r.refunds[id]
	if !ok {
		return returnsmodel.ErrRefundRequestNotFound
	}
	wid := warehouseID
	req.WarehouseID = &wid
	return nil
}

func (r *fakeReturnsRepo) CreateRTS(ctx context.Context, record *returnsmodel.ReturnToSellerRecord) error {
	r.rts[record.ID] = record
	return nil
}

func (r *fakeReturnsRepo) GetRTS(ctx context.Context, id uuid.UUID) (*returnsmodel.ReturnToSellerRecord, error) {
	rec, ok := r.rts[id]
	if !ok {
		return nil, returnsmodel.ErrRTSNotFound
	}
	return rec, nil
}

func (r *fakeReturnsRepo) UpdateRTSStatus(ctx context.Context, id uuid.UUID, expected, next returnsmodel.RTSStatus) error {
	rec, ok := r.rts[id]
	if !ok {
		return returnsmodel.ErrRTSNotFound
	}
	if rec.Status != expected {
		return returnsmodel.ErrRTSStateConflict
	}
	rec.Status = next
	return nil
}

func (r *fakeReturnsRepo) UpdateRTSStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next returnsmodel.RTSStatus) error {
	return r.UpdateRTSStatus(ctx, id, expected, next)
}

type fakeEvidenceStorage struct {
	uploads int
	fail    bool
}

func (s *fakeEvidenceStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("storage unavailable")
	}
	s.uploads++
	return "https://cdn.test/" + key, nil
}

// =====================================================
// FIXTURE
// =====================================================

type fixture struct {
	svc       ServiceInterface
	tasks     *fakeTaskRepo
	orders    *fakeOrderRepo
	items     *fakeItemRepo
	warehouse *fakeWarehouseRepo
	returns   *fakeReturnsRepo
	storage   *fakeEvidenceStorage
}

func newFixture() *fixture {
	f := &fixture{
		tasks:     newFakeTaskRepo(),
		orders:    newFakeOrderRepo(),
		items:     newFakeItemRepo(),
		warehouse: newFakeWarehouseRepo(),
		returns:   newFakeReturnsRepo(),
		storage:   &fakeEvidenceStorage{},
	}
	f.svc = NewLogisticsService(f.tasks, f.orders, f.items, f.warehouse, f.returns, f.storage)
	return f
}

func photos(n int) []model.EvidenceFile {
	out := make([]model.EvidenceFile, n)
	for i := range out {
		out[i] = model.EvidenceFile{Data: []byte{0xFF, 0xD8}, ContentType: "image/jpeg"}
	}
	return out
}

// acceptedTask seeds a task already claimed by the courier.
func (f *fixture) acceptedTask(t *testing.T, taskType model.TaskType, itemID, linkedID, courierID uuid.UUID) uuid.UUID {
	t.Helper()
	task := newTask(taskType, itemID, linkedID, "source addr", "target addr")
	require.NoError(t, f.tasks.Create(context.Background(), task))
	require.NoError(t, f.svc.Accept(context.Background(), task.ID, courierID))
	return task.ID
}

// =====================================================
// TESTS
// =====================================================

func TestAccept_AssignsUnclaimedTask(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()

	task := newTask(model.TypePickupService, uuid.New(), uuid.New(), "a", "b")
	require.NoError(t, f.tasks.Create(ctx, task))

	require.NoError(t, f.svc.Accept(ctx, task.ID, courier))

	stored, err := f.svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingPickup, stored.Status)
	require.NotNil(t, stored.CourierID)
	assert.Equal(t, courier, *stored.CourierID)
}

func TestAccept_SecondCourierLoses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task := newTask(model.TypePickupService, uuid.New(), uuid.New(), "a", "b")
	require.NoError(t, f.tasks.Create(ctx, task))

	require.NoError(t, f.svc.Accept(ctx, task.ID, uuid.New()))
	err := f.svc.Accept(ctx, task.ID, uuid.New())
	assert.ErrorIs(t, err, model.ErrTaskAlreadyAssigned)
}

func TestPickup_RequiresAssignedCourier(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	taskID := f.acceptedTask(t, model.TypeProductReturn, uuid.New(), uuid.New(), uuid.New())

	err := f.svc.Pickup(ctx, taskID, uuid.New(), photos(1))
	assert.ErrorIs(t, err, model.ErrNotAssignedCourier)
}

func TestPickup_RequiresEvidence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	taskID := f.acceptedTask(t, model.TypeProductReturn, uuid.New(), uuid.New(), courier)

	err := f.svc.Pickup(ctx, taskID, courier, nil)
	assert.ErrorIs(t, err, model.ErrEvidenceRequired)

	stored, _ := f.svc.GetTask(ctx, taskID)
	assert.Equal(t, model.StatusPendingPickup, stored.Status)
}

func TestPickup_StorageFailureLeavesTaskUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	taskID := f.acceptedTask(t, model.TypeProductReturn, uuid.New(), uuid.New(), courier)
	f.storage.fail = true

	err := f.svc.Pickup(ctx, taskID, courier, photos(1))
	require.Error(t, err)

	stored, _ := f.svc.GetTask(ctx, taskID)
	assert.Equal(t, model.StatusPendingPickup, stored.Status)
}

func TestPickupServiceFlow_MovesIntakeAndListsItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	itemID := uuid.New()
	warehouseID := uuid.New()

	require.NoError(t, f.items.Create(ctx, &itemmodel.Item{ID: itemID, Status: itemmodel.ItemStatusPendingIntake}))
	intake := &whmodel.IntakeRecord{ID: uuid.New(), ItemID: itemID, WarehouseID: warehouseID, Status: whmodel.IntakeRequested}
	require.NoError(t, f.warehouse.CreateIntake(ctx, intake))

	taskID := f.acceptedTask(t, model.TypePickupService, itemID, intake.ID, courier)

	require.NoError(t, f.svc.Pickup(ctx, taskID, courier, photos(2)))
	assert.Equal(t, whmodel.IntakeInTransit, intake.Status)
	assert.Equal(t, 2, f.storage.uploads)

	require.NoError(t, f.svc.Deliver(ctx, taskID, courier, photos(1)))
	assert.Equal(t, whmodel.IntakeReceived, intake.Status)

	stock, err := f.warehouse.GetActiveStockByItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, warehouseID, stock.WarehouseID)

	item, _ := f.items.GetByID(ctx, itemID)
	assert.Equal(t, itemmodel.ItemStatusListed, item.Status)

	stored, _ := f.svc.GetTask(ctx, taskID)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Len(t, []string(stored.DeliveryEvidence), 1)
}

func TestShipmentDelivery_MovesOrderToDeliveredExactlyOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	order := &trademodel.OrderRecord{ID: uuid.New(), ItemID: uuid.New(), Status: trademodel.StatusPendingShipment}
	require.NoError(t, f.orders.Create(ctx, order))

	taskID := f.acceptedTask(t, model.TypeWarehouseShipment, order.ItemID, order.ID, courier)

	require.NoError(t, f.svc.Pickup(ctx, taskID, courier, photos(1)))
	assert.Equal(t, trademodel.StatusPendingReceipt, order.Status)

	require.NoError(t, f.svc.Deliver(ctx, taskID, courier, photos(1)))
	assert.Equal(t, trademodel.StatusDelivered, order.Status)

	// A repeated delivery call on the completed task is rejected and the
	// order does not move again.
	err := f.svc.Deliver(ctx, taskID, courier, photos(1))
	assert.True(t, model.IsStateConflictError(err))
	assert.Equal(t, trademodel.StatusDelivered, order.Status)
}

func TestShipmentDelivery_FallsBackWhenPickupUpdateWasLost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	order := &trademodel.OrderRecord{ID: uuid.New(), ItemID: uuid.New(), Status: trademodel.StatusPendingShipment}
	require.NoError(t, f.orders.Create(ctx, order))

	taskID := f.acceptedTask(t, model.TypeWarehouseShipment, order.ItemID, order.ID, courier)

	// Force the task past pickup without the order update landing.
	require.NoError(t, f.tasks.RecordPickup(ctx, nil, taskID, []string{"u"}))

	require.NoError(t, f.svc.Deliver(ctx, taskID, courier, photos(1)))
	assert.Equal(t, trademodel.StatusDelivered, order.Status)
}

func TestProductReturnDelivery_RestocksAndRelists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	itemID := uuid.New()
	warehouseID := uuid.New()

	require.NoError(t, f.items.Create(ctx, &itemmodel.Item{ID: itemID, Status: itemmodel.ItemStatusSold}))
	order := &trademodel.OrderRecord{ID: uuid.New(), ItemID: itemID, Status: trademodel.StatusReturnInitiated}
	require.NoError(t, f.orders.Create(ctx, order))
	refund := &returnsmodel.RefundRequest{ID: uuid.New(), OrderID: order.ID, Status: returnsmodel.RefundApproved, WarehouseID: &warehouseID}
	require.NoError(t, f.returns.CreateRefund(ctx, refund))

	taskID := f.acceptedTask(t, model.TypeProductReturn, itemID, refund.ID, courier)
	require.NoError(t, f.svc.Pickup(ctx, taskID, courier, photos(1)))

	require.NoError(t, f.svc.Deliver(ctx, taskID, courier, photos(1)))

	assert.Equal(t, returnsmodel.RefundReturned, refund.Status)
	assert.Equal(t, trademodel.StatusReturnedToWarehouse, order.Status)

	stock, err := f.warehouse.GetActiveStockByItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, warehouseID, stock.WarehouseID)

	item, _ := f.items.GetByID(ctx, itemID)
	assert.Equal(t, itemmodel.ItemStatusListed, item.Status)
}

func TestProductReturnDelivery_RefusesWithoutDestinationWarehouse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	itemID := uuid.New()

	order := &trademodel.OrderRecord{ID: uuid.New(), ItemID: itemID, Status: trademodel.StatusReturnInitiated}
	require.NoError(t, f.orders.Create(ctx, order))
	refund := &returnsmodel.RefundRequest{ID: uuid.New(), OrderID: order.ID, Status: returnsmodel.RefundApproved}
	require.NoError(t, f.returns.CreateRefund(ctx, refund))

	taskID := f.acceptedTask(t, model.TypeProductReturn, itemID, refund.ID, courier)
	require.NoError(t, f.svc.Pickup(ctx, taskID, courier, photos(1)))

	err := f.svc.Deliver(ctx, taskID, courier, photos(1))
	assert.ErrorIs(t, err, returnsmodel.ErrRefundStateConflict)
}

func TestReturnToSellerFlow_MovesRTSAndOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()
	itemID := uuid.New()

	order := &trademodel.OrderRecord{ID: uuid.New(), ItemID: itemID, Status: trademodel.StatusReturnInitiated}
	require.NoError(t, f.orders.Create(ctx, order))
	rts := &returnsmodel.ReturnToSellerRecord{ID: uuid.New(), OrderID: order.ID, Status: returnsmodel.RTSCreated}
	require.NoError(t, f.returns.CreateRTS(ctx, rts))

	taskID := f.acceptedTask(t, model.TypeReturnToSeller, itemID, rts.ID, courier)

	require.NoError(t, f.svc.Pickup(ctx, taskID, courier, photos(1)))
	assert.Equal(t, returnsmodel.RTSShipped, rts.Status)

	require.NoError(t, f.svc.Deliver(ctx, taskID, courier, photos(1)))
	assert.Equal(t, returnsmodel.RTSReceived, rts.Status)
	assert.Equal(t, trademodel.StatusReturnedToSeller, order.Status)
}

func TestListAvailable_ExcludesAssignedTasks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courier := uuid.New()

	open := newTask(model.TypePickupService, uuid.New(), uuid.New(), "a", "b")
	require.NoError(t, f.tasks.Create(ctx, open))
	f.acceptedTask(t, model.TypePickupService, uuid.New(), uuid.New(), courier)

	available, total, err := f.svc.ListAvailable(ctx, model.ListTasksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, available, 1)
	assert.Equal(t, open.ID, available[0].ID)

	mine, _, err := f.svc.ListMine(ctx, courier, model.ListTasksRequest{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
