package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	itemmodel "marketplace-backend/internal/domains/item/model"
	itemrepo "marketplace-backend/internal/domains/item/repository"
	"marketplace-backend/internal/domains/logistics/model"
	"marketplace-backend/internal/domains/logistics/repository"
	returnsmodel "marketplace-backend/internal/domains/returns/model"
	returnsrepo "marketplace-backend/internal/domains/returns/repository"
	trademodel "marketplace-backend/internal/domains/trade/model"
	traderepo "marketplace-backend/internal/domains/trade/repository"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
	whrepo "marketplace-backend/internal/domains/warehouse/repository"
	"marketplace-backend/internal/infrastructure/storage"
	"marketplace-backend/pkg/logger"
)

// ServiceInterface drives courier tasks through their lifecycle. Pickup and
// Deliver pair the task transition with the sibling record updates the task
// type implies, inside one database transaction: the task never moves while
// its sibling stays behind.
type ServiceInterface interface {
	// Task creation, one constructor per type.
	CreatePickupTask(ctx context.Context, itemID, intakeID uuid.UUID, sourceAddress, targetAddress string) error
	CreateShipmentTaskWithTx(ctx context.Context, tx pgx.Tx, itemID, orderID uuid.UUID, sourceAddress, targetAddress string) error
	CreateReturnTask(ctx context.Context, itemID, refundRequestID uuid.UUID, sourceAddress, targetAddress string) error
	CreateReturnToSellerTask(ctx context.Context, itemID, rtsID uuid.UUID, sourceAddress, targetAddress string) error

	// Courier actions.
	Accept(ctx context.Context, taskID, courierID uuid.UUID) error
	Pickup(ctx context.Context, taskID, courierID uuid.UUID, evidence []model.EvidenceFile) error
	Deliver(ctx context.Context, taskID, courierID uuid.UUID, evidence []model.EvidenceFile) error

	GetTask(ctx context.Context, taskID uuid.UUID) (*model.LogisticsTask, error)
	ListAvailable(ctx context.Context, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error)
	ListMine(ctx context.Context, courierID uuid.UUID, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error)
}

type logisticsService struct {
	repo          repository.RepositoryInterface
	orderRepo     traderepo.RepositoryInterface
	itemRepo      itemrepo.RepositoryInterface
	warehouseRepo whrepo.RepositoryInterface
	returnsRepo   returnsrepo.RepositoryInterface
	evidence      storage.EvidenceStorage
}

// NewLogisticsService creates a logistics service
func NewLogisticsService(
	repo repository.RepositoryInterface,
	orderRepo traderepo.RepositoryInterface,
	itemRepo itemrepo.RepositoryInterface,
	warehouseRepo whrepo.RepositoryInterface,
	returnsRepo returnsrepo.RepositoryInterface,
	evidence storage.EvidenceStorage,
) ServiceInterface {
	return &logisticsService{
		repo:          repo,
		orderRepo:     orderRepo,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		returnsRepo:   returnsRepo,
		evidence:      evidence,
	}
}

// =====================================================
// TASK CREATION
// =====================================================

func (s *logisticsService) CreatePickupTask(ctx context.Context, itemID, intakeID uuid.UUID, sourceAddress, targetAddress string) error {
	return s.repo.Create(ctx, newTask(model.TypePickupService, itemID, intakeID, sourceAddress, targetAddress))
}

func (s *logisticsService) CreateShipmentTaskWithTx(ctx context.Context, tx pgx.Tx, itemID, orderID uuid.UUID, sourceAddress, targetAddress string) error {
	return s.repo.CreateWithTx(ctx, tx, newTask(model.TypeWarehouseShipment, itemID, orderID, sourceAddress, targetAddress))
}

func (s *logisticsService) CreateReturnTask(ctx context.Context, itemID, refundRequestID uuid.UUID, sourceAddress, targetAddress string) error {
	return s.repo.Create(ctx, newTask(model.TypeProductReturn, itemID, refundRequestID, sourceAddress, targetAddress))
}

func (s *logisticsService) CreateReturnToSellerTask(ctx context.Context, itemID, rtsID uuid.UUID, sourceAddress, targetAddress string) error {
	return s.repo.Create(ctx, newTask(model.TypeReturnToSeller, itemID, rtsID, sourceAddress, targetAddress))
}

func newTask(taskType model.TaskType, itemID, linkedID uuid.UUID, source, target string) *model.LogisticsTask {
	return &model.LogisticsTask{
		ID:             uuid.New(),
		TaskType:       taskType,
		ItemID:         itemID,
		LinkedRecordID: linkedID,
		SourceAddress:  source,
		TargetAddress:  target,
		Status:         model.StatusPendingAccept,
	}
}

// =====================================================
// COURIER ACTIONS
// =====================================================

func (s *logisticsService) Accept(ctx context.Context, taskID, courierID uuid.UUID) error {
	if err := s.repo.Accept(ctx, taskID, courierID); err != nil {
		return err
	}
	logger.Info("task accepted", map[string]interface{}{
		"task_id":    taskID.String(),
		"courier_id": courierID.String(),
	})
	return nil
}

func (s *logisticsService) Pickup(ctx context.Context, taskID, courierID uuid.UUID, evidence []model.EvidenceFile) error {
	task, err := s.ownedTask(ctx, taskID, courierID)
	if err != nil {
		return err
	}

	urls, err := s.uploadEvidence(ctx, task.ID, "pickup", evidence)
	if err != nil {
		return err
	}

	return s.runInTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.repo.RecordPickup(txCtx, tx, task.ID, urls); err != nil {
			return err
		}
		return s.applyPickupSibling(txCtx, tx, task)
	})
}

func (s *logisticsService) Deliver(ctx context.Context, taskID, courierID uuid.UUID, evidence []model.EvidenceFile) error {
	task, err := s.ownedTask(ctx, taskID, courierID)
	if err != nil {
		return err
	}

	urls, err := s.uploadEvidence(ctx, task.ID, "delivery", evidence)
	if err != nil {
		return err
	}

	return s.runInTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.repo.RecordDelivery(txCtx, tx, task.ID, urls); err != nil {
			return err
		}
		return s.applyDeliverySibling(txCtx, tx, task)
	})
}

func (s *logisticsService) ownedTask(ctx context.Context, taskID, courierID uuid.UUID) (*model.LogisticsTask, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CourierID == nil || *task.CourierID != courierID {
		return nil, fmt.Errorf("%w: task_id=%s", model.ErrNotAssignedCourier, taskID)
	}
	return task, nil
}

func (s *logisticsService) uploadEvidence(ctx context.Context, taskID uuid.UUID, stage string, evidence []model.EvidenceFile) ([]string, error) {
	if len(evidence) == 0 {
		return nil, fmt.Errorf("%w: task_id=%s, stage=%s", model.ErrEvidenceRequired, taskID, stage)
	}

	urls := make([]string, 0, len(evidence))
	for i, file := range evidence {
		key := fmt.Sprintf("tasks/%s/%s-%d", taskID, stage, i)
		url, err := s.evidence.Upload(ctx, key, file.Data, file.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload evidence photo: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *logisticsService) runInTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := s.repo.RollbackTx(ctx, tx); rbErr != nil {
			logger.Warn("rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		return err
	}
	return s.repo.CommitTx(ctx, tx)
}

// =====================================================
// SIBLING RECORD UPDATES
// =====================================================

func (s *logisticsService) applyPickupSibling(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error {
	switch task.TaskType {
	case model.TypePickupService:
		// Goods left the seller.
		return s.warehouseRepo.UpdateIntakeStatusWithTx(ctx, tx, task.LinkedRecordID,
			whmodel.IntakeRequested, whmodel.IntakeInTransit)

	case model.TypeWarehouseShipment:
		// Goods left the warehouse, the order is now in transit.
		return s.orderRepo.UpdateStatusWithTx(ctx, tx, task.LinkedRecordID,
			trademodel.StatusPendingShipment, trademodel.StatusPendingReceipt)

	case model.TypeProductReturn:
		// Nothing to update until the goods arrive back.
		return nil

	case model.TypeReturnToSeller:
		return s.returnsRepo.UpdateRTSStatusWithTx(ctx, tx, task.LinkedRecordID,
			returnsmodel.RTSCreated, returnsmodel.RTSShipped)
	}
	return fmt.Errorf("unknown task type %s", task.TaskType)
}

func (s *logisticsService) applyDeliverySibling(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error {
	switch task.TaskType {
	case model.TypePickupService:
		return s.completeIntake(ctx, tx, task)

	case model.TypeWarehouseShipment:
		// Normally the order sits in PENDING_RECEIPT here. If the pickup-side
		// order update never landed it is still in PENDING_SHIPMENT; delivery
		// moves it to DELIVERED either way, exactly once.
		err := s.orderRepo.UpdateStatusWithTx(ctx, tx, task.LinkedRecordID,
			trademodel.StatusPendingReceipt, trademodel.StatusDelivered)
		if trademodel.IsInvalidTransitionError(err) {
			return s.orderRepo.UpdateStatusWithTx(ctx, tx, task.LinkedRecordID,
				trademodel.StatusPendingShipment, trademodel.StatusDelivered)
		}
		return err

	case model.TypeProductReturn:
		return s.completeProductReturn(ctx, tx, task)

	case model.TypeReturnToSeller:
		if err := s.returnsRepo.UpdateRTSStatusWithTx(ctx, tx, task.LinkedRecordID,
			returnsmodel.RTSShipped, returnsmodel.RTSReceived); err != nil {
			return err
		}
		rts, err := s.returnsRepo.GetRTS(ctx, task.LinkedRecordID)
		if err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusWithTx(ctx, tx, rts.OrderID,
			trademodel.StatusReturnInitiated, trademodel.StatusReturnedToSeller)
	}
	return fmt.Errorf("unknown task type %s", task.TaskType)
}

// completeIntake lands a consignment item in the warehouse: intake record
// received, stock on the shelf, item visible to buyers.
func (s *logisticsService) completeIntake(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error {
	if err := s.warehouseRepo.UpdateIntakeStatusWithTx(ctx, tx, task.LinkedRecordID,
		whmodel.IntakeInTransit, whmodel.IntakeReceived); err != nil {
		return err
	}

	intake, err := s.warehouseRepo.GetIntake(ctx, task.LinkedRecordID)
	if err != nil {
		return err
	}
	stock := &whmodel.StockRecord{
		ID:          uuid.New(),
		ItemID:      task.ItemID,
		WarehouseID: intake.WarehouseID,
		Status:      whmodel.StockIn,
	}
	if err := s.warehouseRepo.CreateStockRecordWithTx(ctx, tx, stock); err != nil {
		return err
	}

	return s.itemRepo.UpdateStatusWithTx(ctx, tx, task.ItemID,
		itemmodel.ItemStatusPendingIntake, itemmodel.ItemStatusListed)
}

// completeProductReturn lands returned goods back in the warehouse: order
// and refund request move on, stock is recreated and the item re-listed.
func (s *logisticsService) completeProductReturn(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error {
	refund, err := s.returnsRepo.GetRefund(ctx, task.LinkedRecordID)
	if err != nil {
		return err
	}

	if err := s.returnsRepo.UpdateRefundStatusWithTx(ctx, tx, refund.ID,
		returnsmodel.RefundApproved, returnsmodel.RefundReturned); err != nil {
		return err
	}

	if err := s.orderRepo.UpdateStatusWithTx(ctx, tx, refund.OrderID,
		trademodel.StatusReturnInitiated, trademodel.StatusReturnedToWarehouse); err != nil {
		return err
	}

	if refund.WarehouseID == nil {
		return fmt.Errorf("%w: refund request %s has no destination warehouse", returnsmodel.ErrRefundStateConflict, refund.ID)
	}
	stock := &whmodel.StockRecord{
		ID:          uuid.New(),
		ItemID:      task.ItemID,
		WarehouseID: *refund.WarehouseID,
		Status:      whmodel.StockIn,
	}
	if err := s.warehouseRepo.CreateStockRecordWithTx(ctx, tx, stock); err != nil {
		return err
	}

	return s.itemRepo.UpdateStatusWithTx(ctx, tx, task.ItemID,
		itemmodel.ItemStatusSold, itemmodel.ItemStatusListed)
}

// =====================================================
// READS
// =====================================================

func (s *logisticsService) GetTask(ctx context.Context, taskID uuid.UUID) (*model.LogisticsTask, error) {
	return s.repo.GetByID(ctx, taskID)
}

func (s *logisticsService) ListAvailable(ctx context.Context, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	return s.repo.ListAvailable(ctx, filter)
}

func (s *logisticsService) ListMine(ctx context.Context, courierID uuid.UUID, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	return s.repo.ListByCourier(ctx, courierID, filter)
}
