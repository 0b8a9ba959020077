package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace-backend/internal/domains/reservation/model"
	"marketplace-backend/internal/domains/reservation/service"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

// =====================================================
// RESERVATION HANDLER
// =====================================================

type ReservationHandler struct {
	manager service.Manager
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(manager service.Manager) *ReservationHandler {
	return &ReservationHandler{
		manager: manager,
	}
}

// RegisterRoutes registers reservation routes (auth required)
func (h *ReservationHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items")
	{
		items.POST("/:id/reservation", h.Acquire)   // POST /v1/items/:id/reservation
		items.DELETE("/:id/reservation", h.Release) // DELETE /v1/items/:id/reservation
		items.GET("/:id/reservation", h.Remaining)  // GET /v1/items/:id/reservation
	}
}

// Acquire godoc
// @Summary Reserve an item for checkout
// @Tags Reservations
// @Produce json
// @Param id path string true "Item ID"
// @Success 201 {object} response.Response
// @Router /v1/items/{id}/reservation [post]
func (h *ReservationHandler) Acquire(c *gin.Context) {
	holderID, itemID, ok := h.callerAndItem(c)
	if !ok {
		return
	}

	acquired, err := h.manager.Acquire(c.Request.Context(), itemID, holderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !acquired {
		response.Conflict(c, "ALREADY_RESERVED", "item is reserved by another buyer", true)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"item_id":    itemID,
		"expires_in": h.manager.TTL().Seconds(),
	})
}

// Release godoc
// @Summary Release the caller's reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Response
// @Router /v1/items/{id}/reservation [delete]
func (h *ReservationHandler) Release(c *gin.Context) {
	holderID, itemID, ok := h.callerAndItem(c)
	if !ok {
		return
	}

	released, err := h.manager.Release(c.Request.Context(), itemID, holderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !released {
		response.NotFound(c, "no reservation held by caller")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item_id": itemID, "released": true})
}

// Remaining godoc
// @Summary Remaining time on the caller's reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Response
// @Router /v1/items/{id}/reservation [get]
func (h *ReservationHandler) Remaining(c *gin.Context) {
	holderID, itemID, ok := h.callerAndItem(c)
	if !ok {
		return
	}

	remaining, err := h.manager.RemainingTTL(c.Request.Context(), itemID, holderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"item_id":           itemID,
		"remaining_seconds": remaining.Seconds(),
	})
}

func (h *ReservationHandler) callerAndItem(c *gin.Context) (holderID, itemID uuid.UUID, ok bool) {
	holderID, authed := middleware.GetUserID(c)
	if !authed {
		response.Unauthorized(c, "authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return uuid.Nil, uuid.Nil, false
	}
	return holderID, itemID, true
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *ReservationHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case model.IsNotHeldError(err):
		response.NotFound(c, "no reservation held by caller")
	case model.IsAlreadyReservedError(err):
		response.Conflict(c, "ALREADY_RESERVED", err.Error(), true)
	case errors.Is(err, model.ErrItemNotListable):
		response.Conflict(c, "INVALID_STATE", err.Error(), false)
	default:
		response.InternalServerError(c, "failed to process reservation")
	}
}
