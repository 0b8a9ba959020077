package response

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Error struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
	Details   interface{} `json:"details,omitempty"`
}

type Meta struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
	Total int `json:"total,omitempty"`
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error responses. Retryable tells the client whether the same call may
// succeed later (lock contention, transient collaborator failure) or is a
// definitive rejection.
func ErrorResponse(c *gin.Context, statusCode int, code, message string, retryable bool) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, retryable bool, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Retryable: retryable,
			Details:   details,
		},
	})
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, 400, "VALIDATION_ERROR", message, false)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, 401, "NOT_AUTHENTICATED", message, false)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, 403, "NOT_AUTHORIZED", message, false)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, 404, "NOT_FOUND", message, false)
}

func Conflict(c *gin.Context, code, message string, retryable bool) {
	ErrorResponse(c, 409, code, message, retryable)
}

func UnprocessableEntity(c *gin.Context, code, message string) {
	ErrorResponse(c, 422, code, message, false)
}

func DependencyFailure(c *gin.Context, message string) {
	ErrorResponse(c, 502, "DEPENDENCY_FAILURE", message, true)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, 500, "INTERNAL_SERVER_ERROR", message, true)
}
