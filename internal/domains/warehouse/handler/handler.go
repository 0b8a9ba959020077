package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"marketplace-backend/internal/domains/warehouse/model"
	"marketplace-backend/internal/domains/warehouse/service"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

// =====================================================
// WAREHOUSE HANDLER
// =====================================================

type WarehouseHandler struct {
	warehouseService service.ServiceInterface
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(warehouseService service.ServiceInterface) *WarehouseHandler {
	return &WarehouseHandler{
		warehouseService: warehouseService,
	}
}

// RegisterRoutes registers intake routes (auth required)
func (h *WarehouseHandler) RegisterRoutes(router *gin.RouterGroup) {
	intakes := router.Group("/intakes")
	{
		intakes.POST("", h.RequestIntake) // POST /v1/intakes
		intakes.GET("/:id", h.GetIntake)  // GET /v1/intakes/:id
	}
}

// RequestIntake godoc
// @Summary Request warehouse pickup for a consignment item
// @Tags Intakes
// @Accept json
// @Produce json
// @Param request body model.RequestIntakeRequest true "Intake request"
// @Success 201 {object} response.Response{data=model.IntakeRecord}
// @Router /v1/intakes [post]
func (h *WarehouseHandler) RequestIntake(c *gin.Context) {
	sellerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.RequestIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.handleServiceError(c, err)
		return
	}

	record, err := h.warehouseService.RequestIntake(c.Request.Context(), sellerID, req.ItemID, req.PickupAddress)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// GetIntake godoc
// @Summary Get an intake record by ID
// @Tags Intakes
// @Produce json
// @Param id path string true "Intake ID"
// @Success 200 {object} response.Response{data=model.IntakeRecord}
// @Router /v1/intakes/{id} [get]
func (h *WarehouseHandler) GetIntake(c *gin.Context) {
	intakeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intake ID")
		return
	}

	record, err := h.warehouseService.GetIntake(c.Request.Context(), intakeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, record)
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *WarehouseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", false, verrs)
	case model.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case errors.Is(err, model.ErrNoWarehouseAvailable):
		response.DependencyFailure(c, "no warehouse available for pickup")
	case model.IsStateConflictError(err):
		response.Conflict(c, "INVALID_STATE", err.Error(), false)
	default:
		response.InternalServerError(c, "failed to process intake request")
	}
}
