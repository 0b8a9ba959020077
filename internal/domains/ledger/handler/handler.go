package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/internal/domains/ledger/service"
	"marketplace-backend/internal/domains/payment/gateway"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

// =====================================================
// LEDGER HANDLER
// =====================================================

type LedgerHandler struct {
	ledgerService service.ServiceInterface
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService service.ServiceInterface) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// =====================================================
// ROUTES REGISTRATION
// =====================================================

// RegisterRoutes registers wallet routes (auth required)
func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallet := router.Group("/wallet")
	{
		wallet.GET("/balance", h.GetBalance)            // GET /v1/wallet/balance
		wallet.GET("/entries", h.ListEntries)           // GET /v1/wallet/entries?kind=deposit&page=1
		wallet.GET("/totals", h.GetTotals)              // GET /v1/wallet/totals
		wallet.POST("/deposits", h.CreateDeposit)       // POST /v1/wallet/deposits
		wallet.POST("/withdrawals", h.CreateWithdrawal) // POST /v1/wallet/withdrawals
		wallet.POST("/bills", h.PayBill)                // POST /v1/wallet/bills
	}
}

// RegisterWebhookRoutes registers the unauthenticated gateway callback
func (h *LedgerHandler) RegisterWebhookRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/payment", h.PaymentWebhook)
}

// RegisterAdminRoutes registers operator-only routes
func (h *LedgerHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin/ledger")
	{
		admin.GET("/:userId/verify", h.VerifyChain)  // GET /v1/admin/ledger/:userId/verify
		admin.POST("/:userId/adjustments", h.Adjust) // POST /v1/admin/ledger/:userId/adjustments
	}
}

// =====================================================
// BALANCE & HISTORY
// =====================================================

// GetBalance godoc
// @Summary Get wallet balance
// @Tags Wallet
// @Produce json
// @Success 200 {object} response.Response{data=model.BalanceResponse}
// @Router /v1/wallet/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	balance, err := h.ledgerService.CurrentBalance(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.BalanceResponse{
		UserID:  userID,
		Balance: balance,
	})
}

// ListEntries godoc
// @Summary List wallet transaction history
// @Tags Wallet
// @Produce json
// @Param kind query string false "Filter by transaction kind"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=[]model.LedgerEntry}
// @Router /v1/wallet/entries [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var filter model.ListEntriesRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	entries, total, err := h.ledgerService.EntriesFor(c.Request.Context(), userID, filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filter.Normalize()
	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

func (h *LedgerHandler) GetTotals(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	sums, err := h.ledgerService.TotalByKind(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, sums)
}

// =====================================================
// DEPOSITS
// =====================================================

type depositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CreateDeposit godoc
// @Summary Create a deposit intent
// @Tags Wallet
// @Accept json
// @Produce json
// @Param request body depositRequest true "Deposit amount"
// @Success 201 {object} response.Response
// @Router /v1/wallet/deposits [post]
func (h *LedgerHandler) CreateDeposit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	ref, err := h.ledgerService.CreateDepositIntent(c.Request.Context(), userID, req.Amount)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"intent_ref": ref})
}

// PaymentWebhook receives the signed gateway callback. The signature is
// verified inside the service; an invalid one is rejected before any credit.
func (h *LedgerHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable payload")
		return
	}
	signature := c.GetHeader("X-Gateway-Signature")

	entry, err := h.ledgerService.ConfirmDeposit(c.Request.Context(), payload, signature)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if entry == nil {
		// Non-success event, acknowledged without a ledger write.
		response.Success(c, http.StatusOK, gin.H{"processed": false})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"processed": true, "entry_id": entry.ID})
}

// =====================================================
// WITHDRAWALS & BILLS
// =====================================================

type withdrawalRequest struct {
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	DestinationAccount string          `json:"destination_account" binding:"required"`
}

func (h *LedgerHandler) CreateWithdrawal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	entry, err := h.ledgerService.Withdraw(c.Request.Context(), userID, req.Amount, req.DestinationAccount)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

type billRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	BillRef string          `json:"bill_ref" binding:"required"`
}

func (h *LedgerHandler) PayBill(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	entry, err := h.ledgerService.PayBill(c.Request.Context(), userID, req.Amount, req.BillRef)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

// =====================================================
// ADMIN
// =====================================================

func (h *LedgerHandler) VerifyChain(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	report, verr := h.ledgerService.VerifyChain(c.Request.Context(), userID)
	if verr != nil && !model.IsChainConflictError(verr) {
		// A broken chain still returns the report so operators see the delta.
		if report != nil {
			response.Success(c, http.StatusOK, report)
			return
		}
		h.handleServiceError(c, verr)
		return
	}

	response.Success(c, http.StatusOK, report)
}

type adjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required"`
}

func (h *LedgerHandler) Adjust(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req adjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	entry, aerr := h.ledgerService.Append(c.Request.Context(), userID, model.KindAdjustment, req.Amount, req.Description)
	if aerr != nil {
		h.handleServiceError(c, aerr)
		return
	}

	response.Success(c, http.StatusCreated, entry)
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *LedgerHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case model.IsInsufficientFundsError(err):
		response.Conflict(c, "INSUFFICIENT_FUNDS", err.Error(), false)
	case model.IsChainConflictError(err):
		response.Conflict(c, "INVALID_STATE", "concurrent balance update, please retry", true)
	case model.IsValidationError(err):
		response.UnprocessableEntity(c, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, gateway.ErrInvalidSignature):
		response.Unauthorized(c, "invalid webhook signature")
	case errors.Is(err, gateway.ErrInsufficientPlatformBalance):
		response.DependencyFailure(c, "payout temporarily unavailable")
	default:
		response.InternalServerError(c, "internal server error")
	}
}
