package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	itemmodel "marketplace-backend/internal/domains/item/model"
	"marketplace-backend/internal/domains/logistics/model"
	"marketplace-backend/internal/domains/logistics/service"
	returnsmodel "marketplace-backend/internal/domains/returns/model"
	trademodel "marketplace-backend/internal/domains/trade/model"
	whmodel "marketplace-backend/internal/domains/warehouse/model"
	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/internal/shared/response"
)

// maxEvidenceSize caps a single evidence photo at 10 MB.
const maxEvidenceSize = 10 << 20

// =====================================================
// LOGISTICS HANDLER
// =====================================================

type LogisticsHandler struct {
	logisticsService service.ServiceInterface
}

// NewLogisticsHandler creates a new logistics handler
func NewLogisticsHandler(logisticsService service.ServiceInterface) *LogisticsHandler {
	return &LogisticsHandler{
		logisticsService: logisticsService,
	}
}

// RegisterRoutes registers courier task routes (auth + courier role required)
func (h *LogisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	tasks := router.Group("/tasks")
	tasks.Use(middleware.CourierMiddleware())
	{
		tasks.GET("/available", h.ListAvailable) // GET /v1/tasks/available?task_type=PICKUP_SERVICE
		tasks.GET("/mine", h.ListMine)           // GET /v1/tasks/mine
		tasks.GET("/:id", h.GetTask)             // GET /v1/tasks/:id
		tasks.POST("/:id/accept", h.Accept)      // POST /v1/tasks/:id/accept
		tasks.POST("/:id/pickup", h.Pickup)      // POST /v1/tasks/:id/pickup (multipart)
		tasks.POST("/:id/delivery", h.Deliver)   // POST /v1/tasks/:id/delivery (multipart)
	}
}

// ListAvailable godoc
// @Summary List unassigned tasks the courier can claim
// @Tags Tasks
// @Produce json
// @Param task_type query string false "Filter by task type"
// @Success 200 {object} response.Response{data=[]model.LogisticsTask}
// @Router /v1/tasks/available [get]
func (h *LogisticsHandler) ListAvailable(c *gin.Context) {
	var filter model.ListTasksRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	filter.Normalize()

	tasks, total, err := h.logisticsService.ListAvailable(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, tasks, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// ListMine godoc
// @Summary List the courier's assigned tasks
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Response{data=[]model.LogisticsTask}
// @Router /v1/tasks/mine [get]
func (h *LogisticsHandler) ListMine(c *gin.Context) {
	courierID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var filter model.ListTasksRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	filter.Normalize()

	tasks, total, err := h.logisticsService.ListMine(c.Request.Context(), courierID, filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, tasks, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// GetTask godoc
// @Summary Get a task by ID
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Response{data=model.LogisticsTask}
// @Router /v1/tasks/{id} [get]
func (h *LogisticsHandler) GetTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task ID")
		return
	}

	task, err := h.logisticsService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// Accept godoc
// @Summary Claim an unassigned task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Response
// @Router /v1/tasks/{id}/accept [post]
func (h *LogisticsHandler) Accept(c *gin.Context) {
	courierID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task ID")
		return
	}

	if err := h.logisticsService.Accept(c.Request.Context(), taskID, courierID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task_id": taskID, "status": model.StatusPendingPickup})
}

// Pickup godoc
// @Summary Record pickup with evidence photos
// @Tags Tasks
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Task ID"
// @Param photos formData file true "Evidence photos"
// @Success 200 {object} response.Response
// @Router /v1/tasks/{id}/pickup [post]
func (h *LogisticsHandler) Pickup(c *gin.Context) {
	h.recordTransition(c, h.logisticsService.Pickup)
}

// Deliver godoc
// @Summary Record delivery with evidence photos
// @Tags Tasks
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Task ID"
// @Param photos formData file true "Evidence photos"
// @Success 200 {object} response.Response
// @Router /v1/tasks/{id}/delivery [post]
func (h *LogisticsHandler) Deliver(c *gin.Context) {
	h.recordTransition(c, h.logisticsService.Deliver)
}

func (h *LogisticsHandler) recordTransition(
	c *gin.Context,
	transition func(ctx context.Context, taskID, courierID uuid.UUID, evidence []model.EvidenceFile) error,
) {
	courierID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task ID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "multipart form with evidence photos required")
		return
	}
	evidence, err := readEvidenceFiles(form.File["photos"])
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := transition(c.Request.Context(), taskID, courierID, evidence); err != nil {
		h.handleServiceError(c, err)
		return
	}

	task, err := h.logisticsService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

func readEvidenceFiles(headers []*multipart.FileHeader) ([]model.EvidenceFile, error) {
	evidence := make([]model.EvidenceFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxEvidenceSize {
			return nil, fmt.Errorf("photo %s exceeds the 10MB limit", header.Filename)
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(file, maxEvidenceSize))
		file.Close()
		if err != nil {
			return nil, err
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		evidence = append(evidence, model.EvidenceFile{Data: data, ContentType: contentType})
	}
	return evidence, nil
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *LogisticsHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case model.IsAuthorizationError(err):
		response.Forbidden(c, "task is assigned to another courier")
	case errors.Is(err, model.ErrTaskNotFound):
		response.NotFound(c, err.Error())
	case model.IsStateConflictError(err):
		response.Conflict(c, "INVALID_STATE", err.Error(), false)
	case errors.Is(err, model.ErrEvidenceRequired):
		response.BadRequest(c, "at least one evidence photo is required")
	case trademodel.IsInvalidTransitionError(err),
		itemmodel.IsStateConflictError(err),
		whmodel.IsStateConflictError(err),
		returnsmodel.IsStateConflictError(err):
		// A sibling record refused its transition, so the whole task
		// transition was rolled back.
		response.Conflict(c, "INVALID_STATE", err.Error(), false)
	default:
		response.InternalServerError(c, "failed to process task")
	}
}
