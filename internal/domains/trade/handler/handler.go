package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	itemmodel "marketplace-backend/internal/domains/item/model"
	ledgermodel "marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/trade/model"
	"marketplace-backend/internal/domains/trade/service"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

// =====================================================
// TRADE HANDLER
// =====================================================

type TradeHandler struct {
	purchaseService service.PurchaseService
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(purchaseService service.PurchaseService) *TradeHandler {
	return &TradeHandler{
		purchaseService: purchaseService,
	}
}

// RegisterRoutes registers all trade routes (auth required)
func (h *TradeHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("/direct", h.PurchaseDirect)           // POST /v1/orders/direct
		orders.POST("/consignment", h.PurchaseConsignment) // POST /v1/orders/consignment
		orders.GET("", h.ListOrders)                       // GET /v1/orders?role=buyer&status=DELIVERED
		orders.GET("/:id", h.GetOrder)                     // GET /v1/orders/:id
		orders.PATCH("/:id/confirm", h.ConfirmReceipt)     // PATCH /v1/orders/:id/confirm
		orders.POST("/:id/refund", h.RequestRefund)        // POST /v1/orders/:id/refund
	}
}

// =====================================================
// PURCHASE
// =====================================================

// PurchaseDirect godoc
// @Summary Buy a seller-shipped item
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body model.PurchaseDirectRequest true "Purchase request"
// @Success 201 {object} response.Response{data=model.OrderRecord}
// @Router /v1/orders/direct [post]
func (h *TradeHandler) PurchaseDirect(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.PurchaseDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	order, err := h.purchaseService.PurchaseDirect(c.Request.Context(), buyerID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, order)
}

// PurchaseConsignment godoc
// @Summary Buy a warehouse-stocked item with delivery
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body model.PurchaseConsignmentRequest true "Purchase request"
// @Success 201 {object} response.Response{data=model.OrderRecord}
// @Router /v1/orders/consignment [post]
func (h *TradeHandler) PurchaseConsignment(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.PurchaseConsignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	order, err := h.purchaseService.PurchaseConsignment(c.Request.Context(), buyerID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, order)
}

// =====================================================
// ORDER LIFECYCLE
// =====================================================

func (h *TradeHandler) ConfirmReceipt(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	// Body (review text) is optional.
	var req model.ConfirmReceiptRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.purchaseService.ConfirmReceipt(c.Request.Context(), orderID, buyerID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *TradeHandler) RequestRefund(c *gin.Context) {
	buyerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req model.RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	requestID, err := h.purchaseService.RequestRefund(c.Request.Context(), orderID, buyerID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"refund_request_id": requestID})
}

// =====================================================
// READS
// =====================================================

func (h *TradeHandler) GetOrder(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	order, err := h.purchaseService.GetOrder(c.Request.Context(), orderID, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *TradeHandler) ListOrders(c *gin.Context) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var filter model.ListOrdersRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	var (
		orders []model.OrderRecord
		total  int
		err    error
	)
	if c.Query("role") == "seller" {
		orders, total, err = h.purchaseService.ListSellerOrders(c.Request.Context(), callerID, filter)
	} else {
		orders, total, err = h.purchaseService.ListBuyerOrders(c.Request.Context(), callerID, filter)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filter.Normalize()
	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *TradeHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	switch {
	case errors.As(err, &validationErrs):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", false, validationErrs)
	case model.IsAuthorizationError(err):
		response.Forbidden(c, err.Error())
	case model.IsNotFoundError(err), errors.Is(err, itemmodel.ErrItemNotFound), whmodel.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case model.IsInvalidTransitionError(err),
		errors.Is(err, itemmodel.ErrItemStateConflict),
		errors.Is(err, model.ErrRefundAlreadyRequested):
		response.Conflict(c, "INVALID_STATE", err.Error(), false)
	case ledgermodel.IsInsufficientFundsError(err):
		response.Conflict(c, "INSUFFICIENT_FUNDS", err.Error(), false)
	case errors.Is(err, model.ErrPurchaseFailed):
		response.DependencyFailure(c, "purchase could not be completed, buyer refunded")
	default:
		response.InternalServerError(c, "internal server error")
	}
}
