package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itemmodel "marketplace-backend/internal/domains/item/model"
	ledgermodel "marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/trade/model"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
)

// ===== fakes =====

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.OrderRecord

	failCreate  error
	failConfirm error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.OrderRecord)}
}

func (r *fakeOrderRepo) BeginTx(context.Context) (pgx.Tx, error)  { return nil, nil }
func (r *fakeOrderRepo) CommitTx(context.Context, pgx.Tx) error   { return nil }
func (r *fakeOrderRepo) RollbackTx(context.Context, pgx.Tx) error { return nil }

func (r *fakeOrderRepo) Create(ctx context.Context, order *model.OrderRecord) error {
	return r.CreateWithTx(ctx, nil, order)
}

func (r *fakeOrderRepo) CreateWithTx(_ context.Context, _ pgx.Tx, order *model.OrderRecord) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) GetByItemID(_ context.Context, itemID uuid.UUID) (*model.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ItemID == itemID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (r *fakeOrderRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID, _ model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrderRecord
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) ListBySeller(_ context.Context, sellerID uuid.UUID, _ model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrderRecord
	for _, o := range r.orders {
		if o.SellerID == sellerID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, next model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return model.ErrOrderNotFound
	}
	if order.Status != expected {
		return model.NewInvalidTransitionError(id, expected, next)
	}
	order.Status = next
	return nil
}

func (r *fakeOrderRepo) UpdateStatusWithTx(ctx context.Context, _ pgx.Tx, id uuid.UUID, expected, next model.OrderStatus) error {
	return r.UpdateStatus(ctx, id, expected, next)
}

func (r *fakeOrderRepo) MarkConfirmed(ctx context.Context, id uuid.UUID, expected model.OrderStatus) error {
	if r.failConfirm != nil {
		return r.failConfirm
	}
	return r.UpdateStatus(ctx, id, expected, model.StatusConfirmed)
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*itemmodel.Item
}

func newFakeItemRepo(items ...*itemmodel.Item) *fakeItemRepo {
	r := &fakeItemRepo{items: make(map[uuid.UUID]*itemmodel.Item)}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *fakeItemRepo) Create(_ context.Context, item *itemmodel.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id uuid.UUID) (*itemmodel.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, itemmodel.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeItemRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, next itemmodel.ItemStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return itemmodel.ErrItemNotFound
	}
	if item.Status != expected {
		return itemmodel.ErrItemStateConflict
	}
	item.Status = next
	return nil
}

func (r *fakeItemRepo) UpdateStatusWithTx(ctx context.Context, _ pgx.Tx, id uuid.UUID, expected, next itemmodel.ItemStatus) error {
	return r.UpdateStatus(ctx, id, expected, next)
}

type fakeWarehouseRepo struct {
	mu    sync.Mutex
	stock map[uuid.UUID]*whmodel.StockRecord
	byID  map[uuid.UUID]*whmodel.Warehouse
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	return &fakeWarehouseRepo{
		stock: make(map[uuid.UUID]*whmodel.StockRecord),
		byID:  make(map[uuid.UUID]*whmodel.Warehouse),
	}
}

func (r *fakeWarehouseRepo) addStock(itemID uuid.UUID) *whmodel.StockRecord {
	wh := &whmodel.Warehouse{ID: uuid.New(), Name: "District 1", FormattedAddress: "wh-1"}
	rec := &whmodel.StockRecord{ID: uuid.New(), ItemID: itemID, WarehouseID: wh.ID, Status: whmodel.StockIn}
	r.byID[wh.ID] = wh
	r.stock[rec.ID] = rec
	return rec
}

func (r *fakeWarehouseRepo) ListWarehouses(context.Context) ([]whmodel.Warehouse, error) {
	return nil, nil
}

func (r *fakeWarehouseRepo) GetWarehouse(_ context.Context, id uuid.UUID) (*whmodel.Warehouse, error) {
	wh, ok := r.byID[id]
	if !ok {
		return nil, whmodel.ErrWarehouseNotFound
	}
	return wh, nil
}

func (r *fakeWarehouseRepo) CreateStockRecord(_ context.Context, rec *whmodel.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[rec.ID] = rec
	return nil
}

func (r *fakeWarehouseRepo) CreateStockRecordWithTx(ctx context.Context, _ pgx.Tx, rec *whmodel.StockRecord) error {
	return r.CreateStockRecord(ctx, rec)
}

func (r *fakeWarehouseRepo) GetActiveStockByItem(_ context.Context, itemID uuid.UUID) (*whmodel.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.stock {
		if rec.ItemID == itemID && rec.Status == whmodel.StockIn {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, whmodel.ErrStockRecordNotFound
}

func (r *fakeWarehouseRepo) UpdateStockStatus(_ context.Context, id uuid.UUID, expected, next whmodel.StockStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.stock[id]
	if !ok || rec.Status != expected {
		return whmodel.ErrStockStateConflict
	}
	rec.Status = next
	return nil
}

func (r *fakeWarehouseRepo) UpdateStockStatusWithTx(ctx context.Context, _ pgx.Tx, id uuid.UUID, expected, next whmodel.StockStatus) error {
	return r.UpdateStockStatus(ctx, id, expected, next)
}

func (r *fakeWarehouseRepo) CreateIntake(context.Context, *whmodel.IntakeRecord) error { return nil }
func (r *fakeWarehouseRepo) GetIntake(context.Context, uuid.UUID) (*whmodel.IntakeRecord, error) {
	return nil, whmodel.ErrIntakeNotFound
}
func (r *fakeWarehouseRepo) GetIntakeByItem(context.Context, uuid.UUID) (*whmodel.IntakeRecord, error) {
	return nil, whmodel.ErrIntakeNotFound
}
func (r *fakeWarehouseRepo) UpdateIntakeStatus(context.Context, uuid.UUID, whmodel.IntakeStatus, whmodel.IntakeStatus) error {
	return nil
}
func (r *fakeWarehouseRepo) UpdateIntakeStatusWithTx(context.Context, pgx.Tx, uuid.UUID, whmodel.IntakeStatus, whmodel.IntakeStatus) error {
	return nil
}

// fakeReservations tracks holders per item.
type fakeReservations struct {
	mu      sync.Mutex
	holders map[uuid.UUID]uuid.UUID
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{holders: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeReservations) hold(itemID, holderID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holders[itemID] = holderID
}

func (f *fakeReservations) Acquire(_ context.Context, itemID, holderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.holders[itemID]; taken {
		return false, nil
	}
	f.holders[itemID] = holderID
	return true, nil
}

func (f *fakeReservations) IsHeld(_ context.Context, itemID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, held := f.holders[itemID]
	return held, nil
}

func (f *fakeReservations) HeldBy(_ context.Context, itemID, holderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holders[itemID] == holderID, nil
}

func (f *fakeReservations) Release(_ context.Context, itemID, holderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holders[itemID] != holderID {
		return false, nil
	}
	delete(f.holders, itemID)
	return true, nil
}

func (f *fakeReservations) RemainingTTL(context.Context, uuid.UUID, uuid.UUID) (time.Duration, error) {
	return time.Minute, nil
}

func (f *fakeReservations) TTL() time.Duration { return time.Minute }

// fakeLedger records appends and enforces the non-negative rule.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
	appends  []appendCall

	failKinds map[ledgermodel.Kind]error
}

type appendCall struct {
	userID uuid.UUID
	kind   ledgermodel.Kind
	amount decimal.Decimal
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:  make(map[uuid.UUID]decimal.Decimal),
		failKinds: make(map[ledgermodel.Kind]error),
	}
}

func (f *fakeLedger) credit(userID uuid.UUID, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = f.balances[userID].Add(amount)
}

func (f *fakeLedger) Append(_ context.Context, userID uuid.UUID, kind ledgermodel.Kind, amount decimal.Decimal, _ string) (*ledgermodel.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failKinds[kind]; err != nil {
		return nil, err
	}
	next := f.balances[userID].Add(amount)
	if next.IsNegative() && kind != ledgermodel.KindAdjustment {
		return nil, ledgermodel.NewInsufficientFundsError(userID, f.balances[userID], amount)
	}
	f.balances[userID] = next
	f.appends = append(f.appends, appendCall{userID: userID, kind: kind, amount: amount})
	return &ledgermodel.LedgerEntry{ID: uuid.New(), UserID: userID, Kind: kind, Amount: amount, BalanceAfter: next}, nil
}

func (f *fakeLedger) CurrentBalance(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeLedger) EntriesFor(context.Context, uuid.UUID, ledgermodel.ListEntriesRequest) ([]ledgermodel.LedgerEntry, int, error) {
	return nil, 0, nil
}

func (f *fakeLedger) TotalByKind(context.Context, uuid.UUID) (map[ledgermodel.Kind]decimal.Decimal, error) {
	return nil, nil
}

func (f *fakeLedger) VerifyChain(context.Context, uuid.UUID) (*ledgermodel.ChainReport, error) {
	return nil, nil
}

func (f *fakeLedger) CreateDepositIntent(context.Context, uuid.UUID, decimal.Decimal) (string, error) {
	return "", nil
}

func (f *fakeLedger) ConfirmDeposit(context.Context, []byte, string) (*ledgermodel.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeLedger) Withdraw(context.Context, uuid.UUID, decimal.Decimal, string) (*ledgermodel.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeLedger) PayBill(context.Context, uuid.UUID, decimal.Decimal, string) (*ledgermodel.LedgerEntry, error) {
	return nil, nil
}

type fakeShipments struct {
	calls int
	fail  error
}

func (f *fakeShipments) CreateShipmentTaskWithTx(context.Context, pgx.Tx, uuid.UUID, uuid.UUID, string, string) error {
	if f.fail != nil {
		return f.fail
	}
	f.calls++
	return nil
}

type fakeRefunds struct {
	open     map[uuid.UUID]bool
	requests []uuid.UUID
}

func newFakeRefunds() *fakeRefunds {
	return &fakeRefunds{open: make(map[uuid.UUID]bool)}
}

func (f *fakeRefunds) CreateRefundRequest(_ context.Context, orderID, _ uuid.UUID, _, _ string) (uuid.UUID, error) {
	id := uuid.New()
	f.open[orderID] = true
	f.requests = append(f.requests, id)
	return id, nil
}

func (f *fakeRefunds) HasOpenRefundRequest(_ context.Context, orderID uuid.UUID) (bool, error) {
	return f.open[orderID], nil
}

// ===== fixtures =====

type fixture struct {
	svc          PurchaseService
	orders       *fakeOrderRepo
	items        *fakeItemRepo
	warehouses   *fakeWarehouseRepo
	reservations *fakeReservations
	ledger       *fakeLedger
	shipments    *fakeShipments
	refunds      *fakeRefunds

	item    *itemmodel.Item
	buyerID uuid.UUID
}

func newFixture(t *testing.T, consignment bool) *fixture {
	t.Helper()
	f := &fixture{
		orders:       newFakeOrderRepo(),
		warehouses:   newFakeWarehouseRepo(),
		reservations: newFakeReservations(),
		ledger:       newFakeLedger(),
		shipments:    &fakeShipments{},
		refunds:      newFakeRefunds(),
		buyerID:      uuid.New(),
	}
	f.item = &itemmodel.Item{
		ID:            uuid.New(),
		SellerID:      uuid.New(),
		Title:         "vintage camera",
		Price:         decimal.NewFromInt(100),
		IsConsignment: consignment,
		Status:        itemmodel.ItemStatusListed,
	}
	f.items = newFakeItemRepo(f.item)
	if consignment {
		f.warehouses.addStock(f.item.ID)
	}
	f.ledger.credit(f.buyerID, decimal.NewFromInt(500))
	f.reservations.hold(f.item.ID, f.buyerID)

	f.svc = NewPurchaseService(f.orders, f.items, f.warehouses, f.reservations, f.ledger, f.shipments, f.refunds, nil)
	return f
}

func consignmentRequest(itemID uuid.UUID) model.PurchaseConsignmentRequest {
	return model.PurchaseConsignmentRequest{
		ItemID:     itemID,
		PaymentRef: "wallet",
		Delivery:   model.DeliveryInfo{FormattedAddress: "12 Nguyen Hue, District 1", Latitude: 10.77, Longitude: 106.7},
	}
}

// ===== purchase tests =====

func TestPurchaseConsignment_HappyPath(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	order, err := f.svc.PurchaseConsignment(ctx, f.buyerID, consignmentRequest(f.item.ID))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingShipment, order.Status)
	assert.True(t, order.IsConsignment)

	// Buyer debited exactly once.
	balance, _ := f.ledger.CurrentBalance(ctx, f.buyerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(400)))

	// Goods leg all applied.
	stored, err := f.items.GetByID(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, itemmodel.ItemStatusSold, stored.Status)
	_, err = f.warehouses.GetActiveStockByItem(ctx, f.item.ID)
	assert.ErrorIs(t, err, whmodel.ErrStockRecordNotFound)
	assert.Equal(t, 1, f.shipments.calls)

	// Reservation released after success.
	held, _ := f.reservations.IsHeld(ctx, f.item.ID)
	assert.False(t, held)
}

func TestPurchaseConsignment_NotReserved(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	stranger := uuid.New()
	f.ledger.credit(stranger, decimal.NewFromInt(500))

	_, err := f.svc.PurchaseConsignment(ctx, stranger, consignmentRequest(f.item.ID))
	assert.ErrorIs(t, err, model.ErrItemNotReserved)

	// No money moved, nothing persisted.
	assert.Empty(t, f.ledger.appends)
	assert.Empty(t, f.orders.orders)
}

func TestPurchaseConsignment_InvalidDeliveryBeforeAnyMutation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req := consignmentRequest(f.item.ID)
	req.Delivery.FormattedAddress = ""
	_, err := f.svc.PurchaseConsignment(ctx, f.buyerID, req)
	assert.Error(t, err)

	assert.Empty(t, f.ledger.appends)
	stored, _ := f.items.GetByID(ctx, f.item.ID)
	assert.Equal(t, itemmodel.ItemStatusListed, stored.Status)
	held, _ := f.reservations.HeldBy(ctx, f.item.ID, f.buyerID)
	assert.True(t, held, "reservation must survive a validation failure")
}

func TestPurchaseConsignment_InsufficientFundsKeepsReservation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	poor := uuid.New()
	f.reservations.holders[f.item.ID] = poor // move the hold to a broke buyer

	_, err := f.svc.PurchaseConsignment(ctx, poor, consignmentRequest(f.item.ID))
	assert.True(t, ledgermodel.IsInsufficientFundsError(err))

	held, _ := f.reservations.HeldBy(ctx, f.item.ID, poor)
	assert.True(t, held, "buyer may top up and retry within the hold window")
	assert.Empty(t, f.orders.orders)
}

func TestPurchaseConsignment_GoodsFailureRefundsBuyer(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.shipments.fail = errors.New("courier backend down")

	_, err := f.svc.PurchaseConsignment(ctx, f.buyerID, consignmentRequest(f.item.ID))
	assert.ErrorIs(t, err, model.ErrPurchaseFailed)

	// PURCHASE debit then REFUND credit, net zero.
	require.Len(t, f.ledger.appends, 2)
	assert.Equal(t, ledgermodel.KindPurchase, f.ledger.appends[0].kind)
	assert.Equal(t, ledgermodel.KindRefund, f.ledger.appends[1].kind)
	balance, _ := f.ledger.CurrentBalance(ctx, f.buyerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(500)))

	// Definitive failure releases the hold.
	held, _ := f.reservations.IsHeld(ctx, f.item.ID)
	assert.False(t, held)
}

func TestPurchaseDirect_HappyPath(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PurchaseDirect(ctx, f.buyerID, model.PurchaseDirectRequest{ItemID: f.item.ID, PaymentRef: "wallet"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingReceipt, order.Status)
	assert.False(t, order.IsConsignment)
	assert.Equal(t, 0, f.shipments.calls, "direct sales need no courier task")

	balance, _ := f.ledger.CurrentBalance(ctx, f.buyerID)
	assert.True(t, balance.Equal(decimal.NewFromInt(400)))
}

// ===== confirmation tests =====

func TestConfirmReceipt_CreditsSellerThenTransitions(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PurchaseDirect(ctx, f.buyerID, model.PurchaseDirectRequest{ItemID: f.item.ID, PaymentRef: "wallet"})
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmReceipt(ctx, order.ID, f.buyerID, model.ConfirmReceiptRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)

	sellerBalance, _ := f.ledger.CurrentBalance(ctx, f.item.SellerID)
	assert.True(t, sellerBalance.Equal(decimal.NewFromInt(100)))
}

func TestConfirmReceipt_FailedCreditLeavesStatus(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PurchaseDirect(ctx, f.buyerID, model.PurchaseDirectRequest{ItemID: f.item.ID, PaymentRef: "wallet"})
	require.NoError(t, err)

	f.ledger.failKinds[ledgermodel.KindCommission] = errors.New("ledger unavailable")
	_, err = f.svc.ConfirmReceipt(ctx, order.ID, f.buyerID, model.ConfirmReceiptRequest{})
	assert.Error(t, err)

	stored, _ := f.orders.GetByID(ctx, order.ID)
	assert.Equal(t, model.StatusPendingReceipt, stored.Status, "a failed credit must not confirm the order")
}

func TestConfirmReceipt_FailedTransitionCompensatesCredit(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PurchaseDirect(ctx, f.buyerID, model.PurchaseDirectRequest{ItemID: f.item.ID, PaymentRef: "wallet"})
	require.NoError(t, err)

	f.orders.failConfirm = model.NewInvalidTransitionError(order.ID, model.StatusPendingReceipt, model.StatusConfirmed)
	_, err = f.svc.ConfirmReceipt(ctx, order.ID, f.buyerID, model.ConfirmReceiptRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// COMMISSION credit was reversed with an ADJUSTMENT debit.
	sellerBalance, _ := f.ledger.CurrentBalance(ctx, f.item.SellerID)
	assert.True(t, sellerBalance.IsZero())
	last := f.ledger.appends[len(f.ledger.appends)-1]
	assert.Equal(t, ledgermodel.KindAdjustment, last.kind)
}

func TestConfirmReceipt_ConsignmentRequiresDelivery(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	order, err := f.svc.PurchaseConsignment(ctx, f.buyerID, consignmentRequest(f.item.ID))
	require.NoError(t, err)

	// Not delivered yet: PENDING_SHIPMENT and PENDING_RECEIPT both refuse.
	_, err = f.svc.ConfirmReceipt(ctx, order.ID, f.buyerID, model.ConfirmReceiptRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	require.NoError(t, f.orders.UpdateStatus(ctx, order.ID, model.StatusPendingShipment, model.StatusPendingReceipt))
	_, err = f.svc.ConfirmReceipt(ctx, order.ID, f.buyerID, model.ConfirmReceiptRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	require.NoError(t, f.orders.UpdateStatus(ctx, order.ID, model.StatusPendingReceipt, model.StatusDelivered))
	confirmed, err := f.svc.ConfirmReceipt(ctx, order.ID, f.buyerID, model.ConfirmReceiptRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
}

// ===== refund request tests =====

func TestRequestRefund(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PurchaseDirect(ctx, f.buyerID, model.PurchaseDirectRequest{ItemID: f.item.ID, PaymentRef: "wallet"})
	require.NoError(t, err)

	req := model.RequestRefundRequest{Reason: "damaged on arrival", PickupAddress: "12 Nguyen Hue"}
	requestID, err := f.svc.RequestRefund(ctx, order.ID, f.buyerID, req)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, requestID)

	stored, _ := f.orders.GetByID(ctx, order.ID)
	assert.Equal(t, model.StatusReturnInitiated, stored.Status)

	// Duplicate request is rejected.
	_, err = f.svc.RequestRefund(ctx, order.ID, f.buyerID, req)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestRequestRefund_OnlyBuyer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PurchaseDirect(ctx, f.buyerID, model.PurchaseDirectRequest{ItemID: f.item.ID, PaymentRef: "wallet"})
	require.NoError(t, err)

	_, err = f.svc.RequestRefund(ctx, order.ID, f.item.SellerID, model.RequestRefundRequest{Reason: "not mine", PickupAddress: "x"})
	assert.ErrorIs(t, err, model.ErrNotBuyer)
}
