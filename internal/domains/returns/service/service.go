package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	ledgermodel "marketplace-backend/internal/domains/ledger/model"
	ledgersvc "marketplace-backend/internal/domains/ledger/service"
	"marketplace-backend/internal/domains/returns/model"
	"marketplace-backend/internal/domains/returns/repository"
	trademodel "marketplace-backend/internal/domains/trade/model"
	traderepo "marketplace-backend/internal/domains/trade/repository"
	whsvc "marketplace-backend/internal/domains/warehouse/service"
	"marketplace-backend/internal/infrastructure/geo"
	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

// ReturnTaskCreator opens the courier task that physically moves the goods
// back. Implemented by the logistics service.
type ReturnTaskCreator interface {
	CreateReturnTask(ctx context.Context, itemID, refundRequestID uuid.UUID, sourceAddress, targetAddress string) error
	CreateReturnToSellerTask(ctx context.Context, itemID, rtsID uuid.UUID, sourceAddress, targetAddress string) error
}

// ServiceInterface runs the refund negotiation between buyer and seller.
// CreateRefundRequest and HasOpenRefundRequest also serve the purchase
// orchestrator when the buyer opens the dispute.
type ServiceInterface interface {
	CreateRefundRequest(ctx context.Context, orderID, buyerID uuid.UUID, reason, pickupAddress string) (uuid.UUID, error)
	HasOpenRefundRequest(ctx context.Context, orderID uuid.UUID) (bool, error)

	GetRefundRequest(ctx context.Context, id uuid.UUID) (*model.RefundRequest, error)
	ListSellerRefunds(ctx context.Context, sellerID uuid.UUID, filter model.ListRefundsRequest) ([]model.RefundRequest, int, error)

	// Approve accepts the buyer's request and routes the goods: consignment
	// stock goes back to the nearest warehouse, a direct sale goes back to
	// the seller's drop-off address.
	Approve(ctx context.Context, refundID, sellerID uuid.UUID, req model.ApproveRefundRequest) error

	// Reject closes the request and marks the order's negotiation as failed.
	Reject(ctx context.Context, refundID, sellerID uuid.UUID, req model.RejectRefundRequest) error

	// Complete settles an order whose goods have arrived back: the buyer is
	// repaid and the order reaches its terminal return state.
	Complete(ctx context.Context, refundID uuid.UUID) error
}

type returnService struct {
	repo        repository.RepositoryInterface
	orderRepo   traderepo.RepositoryInterface
	warehouses  whsvc.ServiceInterface
	geocoder    geo.Geocoder
	tasks       ReturnTaskCreator
	ledger      ledgersvc.ServiceInterface
	asynqClient *asynq.Client
}

// NewReturnService creates a returns service
func NewReturnService(
	repo repository.RepositoryInterface,
	orderRepo traderepo.RepositoryInterface,
	warehouses whsvc.ServiceInterface,
	geocoder geo.Geocoder,
	tasks ReturnTaskCreator,
	ledger ledgersvc.ServiceInterface,
	asynqClient *asynq.Client,
) ServiceInterface {
	return &returnService{
		repo:        repo,
		orderRepo:   orderRepo,
		warehouses:  warehouses,
		geocoder:    geocoder,
		tasks:       tasks,
		ledger:      ledger,
		asynqClient: asynqClient,
	}
}

// =====================================================
// REQUEST INTAKE
// =====================================================

func (s *returnService) CreateRefundRequest(ctx context.Context, orderID, buyerID uuid.UUID, reason, pickupAddress string) (uuid.UUID, error) {
	request := &model.RefundRequest{
		ID:            uuid.New(),
		OrderID:       orderID,
		BuyerID:       buyerID,
		Reason:        reason,
		PickupAddress: pickupAddress,
		Status:        model.RefundPending,
	}
	if err := s.repo.CreateRefund(ctx, request); err != nil {
		return uuid.Nil, err
	}
	return request.ID, nil
}

func (s *returnService) HasOpenRefundRequest(ctx context.Context, orderID uuid.UUID) (bool, error) {
	_, err := s.repo.GetOpenRefundByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrRefundRequestNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *returnService) GetRefundRequest(ctx context.Context, id uuid.UUID) (*model.RefundRequest, error) {
	return s.repo.GetRefund(ctx, id)
}

func (s *returnService) ListSellerRefunds(ctx context.Context, sellerID uuid.UUID, filter model.ListRefundsRequest) ([]model.RefundRequest, int, error) {
	filter.Normalize()
	offset := (filter.Page - 1) * filter.Limit
	return s.repo.ListRefundsBySeller(ctx, sellerID, filter.Limit, offset)
}

// =====================================================
// SELLER DECISION
// =====================================================

func (s *returnService) Approve(ctx context.Context, refundID, sellerID uuid.UUID, req model.ApproveRefundRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	refund, order, err := s.ownedRequest(ctx, refundID, sellerID)
	if err != nil {
		return err
	}

	if order.IsConsignment {
		err = s.approveConsignment(ctx, refund, order)
	} else {
		err = s.approveDirect(ctx, refund, order, req.DropoffAddress)
	}
	if err != nil {
		return err
	}

	s.enqueueDecision(refund, order, true)
	return nil
}

// approveConsignment routes warehouse-held goods back to the nearest
// warehouse: the destination is pinned on the request before the courier
// task opens so the delivery leg knows where to stock in.
func (s *returnService) approveConsignment(ctx context.Context, refund *model.RefundRequest, order *trademodel.OrderRecord) error {
	location, err := s.geocoder.ParseAddress(ctx, refund.PickupAddress)
	if err != nil {
		return fmt.Errorf("failed to resolve pickup address: %w", err)
	}
	warehouse, err := s.warehouses.NearestWarehouse(ctx, *location)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateRefundStatus(ctx, refund.ID, model.RefundPending, model.RefundApproved); err != nil {
		return err
	}
	if err := s.repo.SetRefundWarehouse(ctx, refund.ID, warehouse.ID); err != nil {
		return err
	}
	return s.tasks.CreateReturnTask(ctx, order.ItemID, refund.ID, refund.PickupAddress, warehouse.FormattedAddress)
}

func (s *returnService) approveDirect(ctx context.Context, refund *model.RefundRequest, order *trademodel.OrderRecord, dropoffAddress string) error {
	if dropoffAddress == "" {
		return validation.Errors{"dropoff_address": errors.New("required for direct sales")}
	}

	if err := s.repo.UpdateRefundStatus(ctx, refund.ID, model.RefundPending, model.RefundApproved); err != nil {
		return err
	}
	rts := &model.ReturnToSellerRecord{
		ID:       uuid.New(),
		OrderID:  order.ID,
		SellerID: order.SellerID,
		Status:   model.RTSCreated,
	}
	if err := s.repo.CreateRTS(ctx, rts); err != nil {
		return err
	}
	return s.tasks.CreateReturnToSellerTask(ctx, order.ItemID, rts.ID, refund.PickupAddress, dropoffAddress)
}

func (s *returnService) Reject(ctx context.Context, refundID, sellerID uuid.UUID, req model.RejectRefundRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	refund, order, err := s.ownedRequest(ctx, refundID, sellerID)
	if err != nil {
		return err
	}

	err = s.runInTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.repo.UpdateRefundStatusWithTx(txCtx, tx, refund.ID, model.RefundPending, model.RefundRejected); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusWithTx(txCtx, tx, order.ID,
			trademodel.StatusReturnInitiated, trademodel.StatusReturnNegotiationFailed)
	})
	if err != nil {
		return err
	}

	s.enqueueDecision(refund, order, false)
	return nil
}

func (s *returnService) ownedRequest(ctx context.Context, refundID, sellerID uuid.UUID) (*model.RefundRequest, *trademodel.OrderRecord, error) {
	refund, err := s.repo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, refund.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.SellerID != sellerID {
		return nil, nil, fmt.Errorf("%w: refund_request_id=%s", model.ErrNotSellerOfOrder, refundID)
	}
	return refund, order, nil
}

// =====================================================
// SETTLEMENT
// =====================================================

func (s *returnService) Complete(ctx context.Context, refundID uuid.UUID) error {
	refund, err := s.repo.GetRefund(ctx, refundID)
	if err != nil {
		return err
	}
	order, err := s.orderRepo.GetByID(ctx, refund.OrderID)
	if err != nil {
		return err
	}

	// The warehouse path reaches RETURNED when the courier delivers; the
	// return-to-seller path stays APPROVED because the goods never pass a
	// warehouse.
	if refund.Status != model.RefundReturned && refund.Status != model.RefundApproved {
		return fmt.Errorf("%w: refund_request_id=%s, status=%s", model.ErrRefundStateConflict, refund.ID, refund.Status)
	}
	if order.Status != trademodel.StatusReturnedToWarehouse && order.Status != trademodel.StatusReturnedToSeller {
		return trademodel.NewInvalidTransitionError(order.ID, order.Status, trademodel.StatusReturnCompleted)
	}

	// Repay first, then close both records. A failed close compensates the
	// repayment so the money and goods sides cannot drift apart.
	entry, err := s.ledger.Append(ctx, order.BuyerID, ledgermodel.KindRefund, order.Price,
		fmt.Sprintf("refund for order %s", order.ID))
	if err != nil {
		return err
	}

	err = s.runInTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.orderRepo.UpdateStatusWithTx(txCtx, tx, order.ID, order.Status, trademodel.StatusReturnCompleted); err != nil {
			return err
		}
		return s.repo.UpdateRefundStatusWithTx(txCtx, tx, refund.ID, refund.Status, model.RefundCompleted)
	})
	if err != nil {
		if _, compErr := s.ledger.Append(ctx, order.BuyerID, ledgermodel.KindAdjustment, order.Price.Neg(),
			fmt.Sprintf("reversal of refund entry %s", entry.ID)); compErr != nil {
			logger.Error("CRITICAL: refund settlement failed and reversal failed", map[string]interface{}{
				"refund_request_id": refund.ID.String(),
				"order_id":          order.ID.String(),
				"entry_id":          entry.ID.String(),
				"error":             compErr.Error(),
			})
		}
		return err
	}

	logger.Info("refund settled", map[string]interface{}{
		"refund_request_id": refund.ID.String(),
		"order_id":          order.ID.String(),
		"buyer_id":          order.BuyerID.String(),
	})
	return nil
}

func (s *returnService) runInTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
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

func (s *returnService) enqueueDecision(refund *model.RefundRequest, order *trademodel.OrderRecord, approved bool) {
	if s.asynqClient == nil {
		return
	}
	payload, err := json.Marshal(shared.RefundDecisionPayload{
		RefundRequestID: refund.ID,
		OrderID:         order.ID,
		BuyerID:         refund.BuyerID,
		Approved:        approved,
	})
	if err != nil {
		logger.Warn("failed to marshal refund decision payload", map[string]interface{}{"error": err.Error()})
		return
	}
	task := asynq.NewTask(shared.TypeNotifyRefundDecided, payload)
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueDefault), asynq.MaxRetry(3)); err != nil {
		logger.Warn("failed to enqueue refund decision notification", map[string]interface{}{
			"refund_request_id": refund.ID.String(),
			"error":             err.Error(),
		})
	}
}
