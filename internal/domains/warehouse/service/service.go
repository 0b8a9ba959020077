package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"marketplace-backend/internal/domains/warehouse/model"
	"marketplace-backend/internal/domains/warehouse/repository"
	"marketplace-backend/internal/infrastructure/geo"
	"marketplace-backend/pkg/logger"
)

// PickupTaskCreator creates the courier task that moves an item from a
// seller to a warehouse. Implemented by the logistics service.
type PickupTaskCreator interface {
	CreatePickupTask(ctx context.Context, itemID, intakeID uuid.UUID, sourceAddress, targetAddress string) error
}

// ServiceInterface exposes warehouse selection and the consignment intake
// flow.
type ServiceInterface interface {
	// RequestIntake starts a pickup-service run: geocode the seller's
	// address, pick the nearest warehouse, record the intake and open the
	// courier task.
	RequestIntake(ctx context.Context, sellerID, itemID uuid.UUID, pickupAddress string) (*model.IntakeRecord, error)

	// NearestWarehouse returns the warehouse closest to a location. When the
	// routing collaborator cannot produce a distance for any candidate the
	// first warehouse is used; selection is an optimization, not a
	// correctness requirement.
	NearestWarehouse(ctx context.Context, from geo.Location) (*model.Warehouse, error)

	GetIntake(ctx context.Context, id uuid.UUID) (*model.IntakeRecord, error)
	GetActiveStockByItem(ctx context.Context, itemID uuid.UUID) (*model.StockRecord, error)
}

type warehouseService struct {
	repo     repository.RepositoryInterface
	geocoder geo.Geocoder
	tasks    PickupTaskCreator
}

// NewWarehouseService creates a warehouse service
func NewWarehouseService(repo repository.RepositoryInterface, geocoder geo.Geocoder, tasks PickupTaskCreator) ServiceInterface {
	return &warehouseService{
		repo:     repo,
		geocoder: geocoder,
		tasks:    tasks,
	}
}

func (s *warehouseService) RequestIntake(ctx context.Context, sellerID, itemID uuid.UUID, pickupAddress string) (*model.IntakeRecord, error) {
	location, err := s.geocoder.ParseAddress(ctx, pickupAddress)
	if err != nil {
		return nil, err
	}

	warehouse, err := s.NearestWarehouse(ctx, *location)
	if err != nil {
		return nil, err
	}

	record := &model.IntakeRecord{
		ID:            uuid.New(),
		ItemID:        itemID,
		SellerID:      sellerID,
		WarehouseID:   warehouse.ID,
		PickupAddress: location.FormattedAddress,
		Status:        model.IntakeRequested,
	}
	if err := s.repo.CreateIntake(ctx, record); err != nil {
		return nil, err
	}

	if err := s.tasks.CreatePickupTask(ctx, itemID, record.ID, location.FormattedAddress, warehouse.FormattedAddress); err != nil {
		return nil, fmt.Errorf("failed to create pickup task: %w", err)
	}

	logger.Info("consignment intake requested", map[string]interface{}{
		"intake_id":    record.ID.String(),
		"item_id":      itemID.String(),
		"warehouse_id": warehouse.ID.String(),
	})
	return record, nil
}

func (s *warehouseService) NearestWarehouse(ctx context.Context, from geo.Location) (*model.Warehouse, error) {
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	if len(warehouses) == 0 {
		return nil, model.ErrNoWarehouseAvailable
	}

	best := &warehouses[0]
	bestMeters := -1
	for i := range warehouses {
		w := &warehouses[i]
		route, err := s.geocoder.Distance(ctx, from, geo.Location{
			FormattedAddress: w.FormattedAddress,
			Latitude:         w.Latitude,
			Longitude:        w.Longitude,
		})
		if err != nil {
			logger.Warn("distance lookup failed, skipping candidate", map[string]interface{}{
				"warehouse_id": w.ID.String(),
				"error":        err.Error(),
			})
			continue
		}
		if bestMeters < 0 || route.Meters < bestMeters {
			best = w
			bestMeters = route.Meters
		}
	}
	return best, nil
}

func (s *warehouseService) GetIntake(ctx context.Context, id uuid.UUID) (*model.IntakeRecord, error) {
	return s.repo.GetIntake(ctx, id)
}

func (s *warehouseService) GetActiveStockByItem(ctx context.Context, itemID uuid.UUID) (*model.StockRecord, error) {
	return s.repo.GetActiveStockByItem(ctx, itemID)
}
