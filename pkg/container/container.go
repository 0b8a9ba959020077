package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/cache"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/infrastructure/geo"
	"marketplace-backend/internal/infrastructure/storage"
	"marketplace-backend/pkg/jwt"

	"marketplace-backend/internal/domains/payment/gateway"
	"marketplace-backend/internal/domains/payment/gateway/mock"

	itemHandler "marketplace-backend/internal/domains/item/handler"
	itemRepo "marketplace-backend/internal/domains/item/repository"
	itemService "marketplace-backend/internal/domains/item/service"

	reservationHandler "marketplace-backend/internal/domains/reservation/handler"
	reservationService "marketplace-backend/internal/domains/reservation/service"

	ledgerHandler "marketplace-backend/internal/domains/ledger/handler"
	ledgerRepo "marketplace-backend/internal/domains/ledger/repository"
	ledgerService "marketplace-backend/internal/domains/ledger/service"

	tradeHandler "marketplace-backend/internal/domains/trade/handler"
	tradeRepo "marketplace-backend/internal/domains/trade/repository"
	tradeService "marketplace-backend/internal/domains/trade/service"

	warehouseHandler "marketplace-backend/internal/domains/warehouse/handler"
	warehouseRepo "marketplace-backend/internal/domains/warehouse/repository"
	warehouseService "marketplace-backend/internal/domains/warehouse/service"

	logisticsHandler "marketplace-backend/internal/domains/logistics/handler"
	logisticsRepo "marketplace-backend/internal/domains/logistics/repository"
	logisticsService "marketplace-backend/internal/domains/logistics/service"

	returnsHandler "marketplace-backend/internal/domains/returns/handler"
	returnsRepo "marketplace-backend/internal/domains/returns/repository"
	returnsService "marketplace-backend/internal/domains/returns/service"
)

// Container is the root of the dependency graph. Construction order is
// config, infrastructure, repositories, services, handlers; services that
// feed each other (logistics tasks into warehouse and trade) are built
// before their consumers.
type Container struct {
	// ===== Infrastructure =====
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *cache.RedisClient
	Storage     storage.EvidenceStorage
	Geocoder    geo.Geocoder
	Gateway     gateway.Gateway
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	// ===== Repositories =====
	ItemRepo      itemRepo.RepositoryInterface
	LedgerRepo    ledgerRepo.RepositoryInterface
	TradeRepo     tradeRepo.RepositoryInterface
	WarehouseRepo warehouseRepo.RepositoryInterface
	LogisticsRepo logisticsRepo.RepositoryInterface
	ReturnsRepo   returnsRepo.RepositoryInterface

	// ===== Services =====
	ItemService      itemService.ServiceInterface
	Reservations     reservationService.Manager
	LedgerService    ledgerService.ServiceInterface
	LogisticsService logisticsService.ServiceInterface
	WarehouseService warehouseService.ServiceInterface
	ReturnService    returnsService.ServiceInterface
	PurchaseService  tradeService.PurchaseService

	// ===== Handlers =====
	ItemHandler        *itemHandler.ItemHandler
	ReservationHandler *reservationHandler.ReservationHandler
	LedgerHandler      *ledgerHandler.LedgerHandler
	TradeHandler       *tradeHandler.TradeHandler
	WarehouseHandler   *warehouseHandler.WarehouseHandler
	LogisticsHandler   *logisticsHandler.LogisticsHandler
	ReturnsHandler     *returnsHandler.ReturnsHandler
}

// NewContainer loads configuration, connects infrastructure and wires every
// domain.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Printf("[Container] Initialized (environment: %s)", cfg.App.Environment)
	return c, nil
}

func (c *Container) initInfrastructure() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.DB = database.NewPostgresDB(&database.DBConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		Username: c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.Database,
		SSLMode:  c.Config.Database.SSLMode,
		MaxConns: int32(c.Config.Database.MaxConns),
		MinConns: int32(c.Config.Database.MinConns),
	})
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	c.Redis = cache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	evidenceStorage, err := storage.NewMinIOStorage(c.Config.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init evidence storage: %w", err)
	}
	c.Storage = evidenceStorage

	c.Geocoder = geo.NewHTTPGeocoder(c.Config.Geo)
	c.Gateway = mock.NewMockGateway(c.Config.Gateway.SecretKey)
	c.JWTManager = jwt.NewManager(c.Config.JWT.Secret)
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool
	c.ItemRepo = itemRepo.NewRepository(pool)
	c.LedgerRepo = ledgerRepo.NewRepository(pool)
	c.TradeRepo = tradeRepo.NewRepository(pool)
	c.WarehouseRepo = warehouseRepo.NewRepository(pool)
	c.LogisticsRepo = logisticsRepo.NewRepository(pool)
	c.ReturnsRepo = returnsRepo.NewRepository(pool)
}

func (c *Container) initServices() {
	c.ItemService = itemService.NewService(c.ItemRepo)
	c.Reservations = reservationService.NewManager(c.Redis, c.ItemService, c.Config.Reservation.TTL)
	c.LedgerService = ledgerService.NewLedgerService(c.LedgerRepo, c.Gateway, c.Redis)

	// Logistics only touches repositories, so it is safe to build first and
	// hand to the services that open courier tasks.
	c.LogisticsService = logisticsService.NewLogisticsService(
		c.LogisticsRepo, c.TradeRepo, c.ItemRepo, c.WarehouseRepo, c.ReturnsRepo, c.Storage)

	c.WarehouseService = warehouseService.NewWarehouseService(c.WarehouseRepo, c.Geocoder, c.LogisticsService)
	c.ReturnService = returnsService.NewReturnService(
		c.ReturnsRepo, c.TradeRepo, c.WarehouseService, c.Geocoder,
		c.LogisticsService, c.LedgerService, c.AsynqClient)
	c.PurchaseService = tradeService.NewPurchaseService(
		c.TradeRepo, c.ItemRepo, c.WarehouseRepo, c.Reservations, c.LedgerService,
		c.LogisticsService, c.ReturnService, c.AsynqClient)
}

func (c *Container) initHandlers() {
	c.ItemHandler = itemHandler.NewItemHandler(c.ItemService)
	c.ReservationHandler = reservationHandler.NewReservationHandler(c.Reservations)
	c.LedgerHandler = ledgerHandler.NewLedgerHandler(c.LedgerService)
	c.TradeHandler = tradeHandler.NewTradeHandler(c.PurchaseService)
	c.WarehouseHandler = warehouseHandler.NewWarehouseHandler(c.WarehouseService)
	c.LogisticsHandler = logisticsHandler.NewLogisticsHandler(c.LogisticsService)
	c.ReturnsHandler = returnsHandler.NewReturnsHandler(c.ReturnService)
}

// Cleanup releases infrastructure connections.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("[Container] asynq client close: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("[Container] redis close: %v", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
