package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	ledgermodel "marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/returns/model"
	"marketplace-backend/internal/domains/returns/service"
	trademodel "marketplace-backend/internal/domains/trade/model"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

// =====================================================
// RETURNS HANDLER
// =====================================================

type ReturnsHandler struct {
	returnService service.ServiceInterface
}

// NewReturnsHandler creates a new returns handler
func NewReturnsHandler(returnService service.ServiceInterface) *ReturnsHandler {
	return &ReturnsHandler{
		returnService: returnService,
	}
}

// RegisterRoutes registers the seller-facing refund routes (auth required)
func (h *ReturnsHandler) RegisterRoutes(router *gin.RouterGroup) {
	refunds := router.Group("/refunds")
	{
		refunds.GET("", h.ListSellerRefunds)     // GET /v1/refunds
		refunds.GET("/:id", h.GetRefundRequest)  // GET /v1/refunds/:id
		refunds.PATCH("/:id/approve", h.Approve) // PATCH /v1/refunds/:id/approve
		refunds.PATCH("/:id/reject", h.Reject)   // PATCH /v1/refunds/:id/reject
	}
}

// RegisterAdminRoutes registers the settlement route (admin role required)
func (h *ReturnsHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin/refunds")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/:id/complete", h.Complete) // POST /v1/admin/refunds/:id/complete
	}
}

// ListSellerRefunds godoc
// @Summary List refund requests against the caller's orders
// @Tags Refunds
// @Produce json
// @Success 200 {object} response.Response{data=[]model.RefundRequest}
// @Router /v1/refunds [get]
func (h *ReturnsHandler) ListSellerRefunds(c *gin.Context) {
	sellerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var filter model.ListRefundsRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	filter.Normalize()

	refunds, total, err := h.returnService.ListSellerRefunds(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, refunds, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// GetRefundRequest godoc
// @Summary Get a refund request by ID
// @Tags Refunds
// @Produce json
// @Param id path string true "Refund request ID"
// @Success 200 {object} response.Response{data=model.RefundRequest}
// @Router /v1/refunds/{id} [get]
func (h *ReturnsHandler) GetRefundRequest(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund request ID")
		return
	}

	refund, err := h.returnService.GetRefundRequest(c.Request.Context(), refundID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, refund)
}

// Approve godoc
// @Summary Approve a refund request and open the return run
// @Tags Refunds
// @Accept json
// @Produce json
// @Param id path string true "Refund request ID"
// @Param request body model.ApproveRefundRequest false "Approval details"
// @Success 200 {object} response.Response
// @Router /v1/refunds/{id}/approve [patch]
func (h *ReturnsHandler) Approve(c *gin.Context) {
	sellerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund request ID")
		return
	}

	// Body is optional for consignment approvals.
	var req model.ApproveRefundRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.returnService.Approve(c.Request.Context(), refundID, sellerID, req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_request_id": refundID, "status": model.RefundApproved})
}

// Reject godoc
// @Summary Reject a refund request
// @Tags Refunds
// @Accept json
// @Produce json
// @Param id path string true "Refund request ID"
// @Param request body model.RejectRefundRequest false "Rejection note"
// @Success 200 {object} response.Response
// @Router /v1/refunds/{id}/reject [patch]
func (h *ReturnsHandler) Reject(c *gin.Context) {
	sellerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund request ID")
		return
	}

	var req model.RejectRefundRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.returnService.Reject(c.Request.Context(), refundID, sellerID, req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_request_id": refundID, "status": model.RefundRejected})
}

// Complete godoc
// @Summary Settle a refund whose goods arrived back
// @Tags Refunds
// @Produce json
// @Param id path string true "Refund request ID"
// @Success 200 {object} response.Response
// @Router /v1/admin/refunds/{id}/complete [post]
func (h *ReturnsHandler) Complete(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund request ID")
		return
	}

	if err := h.returnService.Complete(c.Request.Context(), refundID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_request_id": refundID, "status": model.RefundCompleted})
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *ReturnsHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", false, verrs)
	case errors.Is(err, model.ErrNotSellerOfOrder):
		response.Forbidden(c, "only the seller of the order may decide")
	case model.IsNotFoundError(err), trademodel.IsNotFoundError(err), errors.Is(err, whmodel.ErrNoWarehouseAvailable):
		response.NotFound(c, err.Error())
	case model.IsStateConflictError(err), trademodel.IsInvalidTransitionError(err):
		response.Conflict(c, "INVALID_STATE", err.Error(), false)
	case errors.Is(err, ledgermodel.ErrInsufficientFunds):
		response.Conflict(c, "INSUFFICIENT_FUNDS", err.Error(), false)
	default:
		response.InternalServerError(c, "failed to process refund request")
	}
}
