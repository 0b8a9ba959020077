package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	itemmodel "marketplace-backend/internal/domains/item/model"
	itemrepo "marketplace-backend/internal/domains/item/repository"
	ledgermodel "marketplace-backend/internal/domains/ledger/model"
	ledgersvc "marketplace-backend/internal/domains/ledger/service"
	reservationsvc "marketplace-backend/internal/domains/reservation/service"
	"marketplace-backend/internal/domains/trade/model"
	"marketplace-backend/internal/domains/trade/repository"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
	whrepo "marketplace-backend/internal/domains/warehouse/repository"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

// ShipmentTaskCreator opens the warehouse-to-buyer courier task inside the
// purchase transaction. Implemented by the logistics service.
type ShipmentTaskCreator interface {
	CreateShipmentTaskWithTx(ctx context.Context, tx pgx.Tx, itemID, orderID uuid.UUID, sourceAddress, targetAddress string) error
}

// RefundRecorder persists refund requests. Implemented by the returns
// service.
type RefundRecorder interface {
	CreateRefundRequest(ctx context.Context, orderID, buyerID uuid.UUID, reason, pickupAddress string) (uuid.UUID, error)
	HasOpenRefundRequest(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// PurchaseService orchestrates the money and goods legs of a trade. The
// ledger append happens first and is compensated with a REFUND when the
// goods-side transaction fails; the two sides are never inside one database
// transaction because the ledger is its own consistency domain.
type PurchaseService interface {
	PurchaseDirect(ctx context.Context, buyerID uuid.UUID, req model.PurchaseDirectRequest) (*model.OrderRecord, error)
	PurchaseConsignment(ctx context.Context, buyerID uuid.UUID, req model.PurchaseConsignmentRequest) (*model.OrderRecord, error)

	ConfirmReceipt(ctx context.Context, orderID, buyerID uuid.UUID, req model.ConfirmReceiptRequest) (*model.OrderRecord, error)
	RequestRefund(ctx context.Context, orderID, buyerID uuid.UUID, req model.RequestRefundRequest) (uuid.UUID, error)

	GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (*model.OrderRecord, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error)
}

type purchaseService struct {
	orderRepo     repository.RepositoryInterface
	itemRepo      itemrepo.RepositoryInterface
	warehouseRepo whrepo.RepositoryInterface
	reservations  reservationsvc.Manager
	ledger        ledgersvc.ServiceInterface
	shipments     ShipmentTaskCreator
	refunds       RefundRecorder
	asynqClient   *asynq.Client
}

// NewPurchaseService creates a purchase service
func NewPurchaseService(
	orderRepo repository.RepositoryInterface,
	itemRepo itemrepo.RepositoryInterface,
	warehouseRepo whrepo.RepositoryInterface,
	reservations reservationsvc.Manager,
	ledger ledgersvc.ServiceInterface,
	shipments ShipmentTaskCreator,
	refunds RefundRecorder,
	asynqClient *asynq.Client,
) PurchaseService {
	return &purchaseService{
		orderRepo:     orderRepo,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		reservations:  reservations,
		ledger:        ledger,
		shipments:     shipments,
		refunds:       refunds,
		asynqClient:   asynqClient,
	}
}

// =====================================================
// PURCHASE
// =====================================================

func (s *purchaseService) PurchaseDirect(ctx context.Context, buyerID uuid.UUID, req model.PurchaseDirectRequest) (*model.OrderRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	item, err := s.precheck(ctx, req.ItemID, buyerID)
	if err != nil {
		return nil, err
	}

	order := &model.OrderRecord{
		ID:            uuid.New(),
		ItemID:        item.ID,
		BuyerID:       buyerID,
		SellerID:      item.SellerID,
		Price:         item.Price,
		IsConsignment: false,
		IsSelfPickup:  req.SelfPickup,
		Status:        model.StatusPendingReceipt,
		PaymentRef:    req.PaymentRef,
	}

	err = s.executePurchase(ctx, order, func(txCtx context.Context, tx pgx.Tx) error {
		// Direct sale: just flip the item and create the order; the seller
		// ships on their own.
		if err := s.itemRepo.UpdateStatusWithTx(txCtx, tx, item.ID, itemmodel.ItemStatusListed, itemmodel.ItemStatusSold); err != nil {
			return err
		}
		return s.orderRepo.CreateWithTx(txCtx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *purchaseService) PurchaseConsignment(ctx context.Context, buyerID uuid.UUID, req model.PurchaseConsignmentRequest) (*model.OrderRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	item, err := s.precheck(ctx, req.ItemID, buyerID)
	if err != nil {
		return nil, err
	}

	// Consignment requires the goods to actually be on a shelf.
	stock, err := s.warehouseRepo.GetActiveStockByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	warehouse, err := s.warehouseRepo.GetWarehouse(ctx, stock.WarehouseID)
	if err != nil {
		return nil, err
	}

	order := &model.OrderRecord{
		ID:              uuid.New(),
		ItemID:          item.ID,
		BuyerID:         buyerID,
		SellerID:        item.SellerID,
		Price:           item.Price,
		IsConsignment:   true,
		Status:          model.StatusPendingShipment,
		PaymentRef:      req.PaymentRef,
		DeliveryAddress: req.Delivery.FormattedAddress,
	}

	err = s.executePurchase(ctx, order, func(txCtx context.Context, tx pgx.Tx) error {
		// 1. Stock out of the warehouse
		if err := s.warehouseRepo.UpdateStockStatusWithTx(txCtx, tx, stock.ID, whmodel.StockIn, whmodel.StockOut); err != nil {
			return err
		}
		// 2. Item leaves the shelf for good
		if err := s.itemRepo.UpdateStatusWithTx(txCtx, tx, item.ID, itemmodel.ItemStatusListed, itemmodel.ItemStatusSold); err != nil {
			return err
		}
		// 3. Order record
		if err := s.orderRepo.CreateWithTx(txCtx, tx, order); err != nil {
			return err
		}
		// 4. Courier task: warehouse -> buyer
		return s.shipments.CreateShipmentTaskWithTx(txCtx, tx, item.ID, order.ID, warehouse.FormattedAddress, req.Delivery.FormattedAddress)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// precheck verifies the reservation and the item state before any money
// moves.
func (s *purchaseService) precheck(ctx context.Context, itemID, buyerID uuid.UUID) (*itemmodel.Item, error) {
	held, err := s.reservations.HeldBy(ctx, itemID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reservation: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("%w: item_id=%s", model.ErrItemNotReserved, itemID)
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsListable() {
		return nil, fmt.Errorf("%w: id=%s, status=%s", itemmodel.ErrItemStateConflict, item.ID, item.Status)
	}
	return item, nil
}

// executePurchase runs the money leg, then the goods leg, and reconciles
// the two on failure:
//  1. debit the buyer (PURCHASE)
//  2. run the goods transaction
//  3. on failure, compensate the debit with a REFUND and release the
//     reservation (definitive failure); on success release the reservation.
//
// A debit rejection (insufficient funds) keeps the reservation so the buyer
// can top up and retry within the hold window.
func (s *purchaseService) executePurchase(ctx context.Context, order *model.OrderRecord, goods func(ctx context.Context, tx pgx.Tx) error) error {
	debit, err := s.ledger.Append(ctx, order.BuyerID, ledgermodel.KindPurchase, order.Price.Neg(),
		fmt.Sprintf("purchase of item %s, order %s", order.ItemID, order.ID))
	if err != nil {
		return err
	}

	txErr := s.runInTx(ctx, goods)
	if txErr != nil {
		logger.Error("purchase transaction failed, refunding buyer", map[string]interface{}{
			"order_id": order.ID.String(),
			"buyer_id": order.BuyerID.String(),
			"error":    txErr.Error(),
		})

		if _, refundErr := s.ledger.Append(ctx, order.BuyerID, ledgermodel.KindRefund, order.Price,
			fmt.Sprintf("refund of failed purchase, order %s", order.ID)); refundErr != nil {
			// The debit stands with no goods behind it; operators must
			// reconcile entry against the missing order.
			logger.Error("CRITICAL: compensation refund failed", map[string]interface{}{
				"order_id": order.ID.String(),
				"buyer_id": order.BuyerID.String(),
				"entry_id": debit.ID.String(),
				"error":    refundErr.Error(),
			})
			return fmt.Errorf("%w: compensation failed: %v", model.ErrPurchaseFailed, refundErr)
		}

		s.releaseReservation(ctx, order.ItemID, order.BuyerID)
		return fmt.Errorf("%w: %v", model.ErrPurchaseFailed, txErr)
	}

	s.releaseReservation(ctx, order.ItemID, order.BuyerID)
	s.enqueueOrderEvent(shared.TypeNotifyOrderCreated, order)

	logger.Info("purchase completed", map[string]interface{}{
		"order_id": order.ID.String(),
		"item_id":  order.ItemID.String(),
		"buyer_id": order.BuyerID.String(),
		"price":    order.Price.String(),
	})
	return nil
}

func (s *purchaseService) runInTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := s.orderRepo.RollbackTx(ctx, tx); rbErr != nil {
			logger.Warn("rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		return err
	}
	return s.orderRepo.CommitTx(ctx, tx)
}

func (s *purchaseService) releaseReservation(ctx context.Context, itemID, holderID uuid.UUID) {
	if _, err := s.reservations.Release(ctx, itemID, holderID); err != nil {
		// The hold expires on its own; losing the early release is harmless.
		logger.Warn("failed to release reservation", map[string]interface{}{
			"item_id": itemID.String(),
			"error":   err.Error(),
		})
	}
}

// =====================================================
// CONFIRMATION
// =====================================================

func (s *purchaseService) ConfirmReceipt(ctx context.Context, orderID, buyerID uuid.UUID, _ model.ConfirmReceiptRequest) (*model.OrderRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("%w: order_id=%s", model.ErrNotBuyer, orderID)
	}

	// Direct sales confirm from PENDING_RECEIPT; consignment only once the
	// courier has delivered.
	confirmable := (order.IsConsignment && order.Status == model.StatusDelivered) ||
		(!order.IsConsignment && order.Status == model.StatusPendingReceipt)
	if !confirmable {
		return nil, model.NewInvalidTransitionError(orderID, order.Status, model.StatusConfirmed)
	}

	// Credit first. A failed credit leaves the order untouched, so the buyer
	// simply retries.
	credit, err := s.ledger.Append(ctx, order.SellerID, ledgermodel.KindCommission, order.Price,
		fmt.Sprintf("sale proceeds for order %s", order.ID))
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.MarkConfirmed(ctx, orderID, order.Status); err != nil {
		// Someone moved the order between our read and the CAS. The credit
		// already happened, take it back.
		if _, compErr := s.ledger.Append(ctx, order.SellerID, ledgermodel.KindAdjustment, order.Price.Neg(),
			fmt.Sprintf("reversal of premature credit for order %s", order.ID)); compErr != nil {
			logger.Error("CRITICAL: credit reversal failed", map[string]interface{}{
				"order_id": order.ID.String(),
				"entry_id": credit.ID.String(),
				"error":    compErr.Error(),
			})
		}
		return nil, err
	}

	order.Status = model.StatusConfirmed
	s.enqueueOrderEvent(shared.TypeNotifyOrderConfirmed, order)
	return order, nil
}

// =====================================================
// REFUND REQUEST
// =====================================================

func (s *purchaseService) RequestRefund(ctx context.Context, orderID, buyerID uuid.UUID, req model.RequestRefundRequest) (uuid.UUID, error) {
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if order.BuyerID != buyerID {
		return uuid.Nil, fmt.Errorf("%w: order_id=%s", model.ErrNotBuyer, orderID)
	}
	if !order.Status.IsRefundable() {
		return uuid.Nil, model.NewInvalidTransitionError(orderID, order.Status, model.StatusReturnInitiated)
	}

	open, err := s.refunds.HasOpenRefundRequest(ctx, orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if open {
		return uuid.Nil, fmt.Errorf("%w: order_id=%s", model.ErrRefundAlreadyRequested, orderID)
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, order.Status, model.StatusReturnInitiated); err != nil {
		return uuid.Nil, err
	}

	requestID, err := s.refunds.CreateRefundRequest(ctx, orderID, buyerID, req.Reason, req.PickupAddress)
	if err != nil {
		// Roll the order back so the buyer is not stuck in RETURN_INITIATED
		// with no request on file.
		if rbErr := s.orderRepo.UpdateStatus(ctx, orderID, model.StatusReturnInitiated, order.Status); rbErr != nil {
			logger.Error("failed to roll back order after refund request failure", map[string]interface{}{
				"order_id": orderID.String(),
				"error":    rbErr.Error(),
			})
		}
		return uuid.Nil, err
	}

	s.enqueueRefundEvent(order, requestID, req.Reason)
	return requestID, nil
}

// =====================================================
// READS
// =====================================================

func (s *purchaseService) GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (*model.OrderRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID && order.SellerID != callerID {
		return nil, fmt.Errorf("%w: order_id=%s, caller is neither party", model.ErrNotBuyer, orderID)
	}
	return order, nil
}

func (s *purchaseService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerID, filter)
}

func (s *purchaseService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	return s.orderRepo.ListBySeller(ctx, sellerID, filter)
}

// =====================================================
// EVENTS
// =====================================================

func (s *purchaseService) enqueueOrderEvent(taskType string, order *model.OrderRecord) {
	if s.asynqClient == nil {
		return
	}
	payload, err := json.Marshal(shared.OrderEventPayload{
		OrderID:  order.ID,
		ItemID:   order.ItemID,
		BuyerID:  order.BuyerID,
		SellerID: order.SellerID,
	})
	if err != nil {
		return
	}
	task := asynq.NewTask(taskType, payload)
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueDefault), asynq.MaxRetry(3)); err != nil {
		logger.Warn("failed to enqueue order event", map[string]interface{}{
			"task_type": taskType,
			"order_id":  order.ID.String(),
			"error":     err.Error(),
		})
	}
}

func (s *purchaseService) enqueueRefundEvent(order *model.OrderRecord, requestID uuid.UUID, reason string) {
	if s.asynqClient == nil {
		return
	}
	payload, err := json.Marshal(shared.RefundEventPayload{
		OrderID:         order.ID,
		RefundRequestID: requestID,
		BuyerID:         order.BuyerID,
		Reason:          reason,
	})
	if err != nil {
		return
	}
	task := asynq.NewTask(shared.TypeNotifyRefundRequest, payload)
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueHigh), asynq.MaxRetry(3)); err != nil {
		logger.Warn("failed to enqueue refund event", map[string]interface{}{
			"order_id": order.ID.String(),
			"error":    err.Error(),
		})
	}
}
