package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace-backend/internal/domains/item/model"
	"marketplace-backend/internal/domains/item/service"
	"marketplace-backend/internal/shared/response"
)

type ItemHandler struct {
	itemService service.ServiceInterface
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService service.ServiceInterface) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// RegisterRoutes registers item routes (auth required)
func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items")
	{
		items.GET("/:id", h.GetItem) // GET /v1/items/:id
	}
}

// GetItem godoc
// @Summary Get an item by ID
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Response{data=model.Item}
// @Router /v1/items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	item, err := h.itemService.GetByID(c.Request.Context(), itemID)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalServerError(c, "failed to load item")
		return
	}
	response.Success(c, http.StatusOK, item)
}
