package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

// Error codes returned in ErrorResponse.Code
const (
	CodeValidation          = "validation_error"
	CodeUnauthenticated     = "unauthenticated"
	CodeTokenExpired        = "token_expired"
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeConcurrencyConflict = "concurrency_conflict"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal_error"
)

// BaseHandler carries the logger shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam writes a 400 and returns 0 when the path parameter is not
// a positive integer
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Code:    CodeBadRequest,
			Details: "ID must be a positive number",
		})
		return 0
	}
	return uint(id)
}

// parseOptionalIDQuery returns nil when the query parameter is absent
func (h *BaseHandler) parseOptionalIDQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Code:    CodeBadRequest,
			Details: "ID must be a positive number",
		})
		return nil, false
	}
	v := uint(id)
	return &v, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Code:    CodeBadRequest,
			Details: err.Error(),
		})
		return false
	}
	return true
}

// actor returns the authenticated actor set by AuthMiddleware
func (h *BaseHandler) actor(c *gin.Context) (models.Actor, bool) {
	actor, err := GetActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
			Code:    CodeUnauthenticated,
		})
		return models.Actor{}, false
	}
	return actor, true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Code:    CodeValidation,
			Details: validationErrors,
		})
		return
	}

	var permissionError *auth.PermissionError
	if errors.As(err, &permissionError) {
		utils.FromContext(c, h.logger).Warn("Access denied",
			"actor_id", permissionError.ActorID,
			"operation", permissionError.Operation.String(),
			"reason", permissionError.Reason.String())
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Code:    CodeUnauthorized,
			Details: map[string]interface{}{
				"operation": permissionError.Operation.String(),
				"reason":    permissionError.Reason.String(),
			},
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Session expired",
			Code:    CodeTokenExpired,
		})
	case errors.Is(err, auth.ErrUnauthenticated):
		utils.FromContext(c, h.logger).Warn("Authentication failed", "error", err)
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: unauthenticatedMessage(err),
			Code:    CodeUnauthenticated,
		})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Code:    CodeUnauthorized,
		})
	case errors.Is(err, permissions.ErrMalformedInput):
		// Only reachable through a bug in the caller, never through user input.
		h.LogError(c, err, "Malformed authorization input")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Code:    CodeInternal,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: notFoundMessage(err),
			Code:    CodeNotFound,
		})
	case errors.Is(err, services.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Record was modified by another request, reload and retry",
			Code:    CodeConcurrencyConflict,
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Resource conflict",
			Code:    CodeConflict,
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Code:    CodeInternal,
		})
	}
}

func unauthenticatedMessage(err error) string {
	if errors.Is(err, services.ErrInvalidCredentials) {
		return "Invalid email or password"
	}
	return "User not authenticated"
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, services.ErrProgramNotFound):
		return "Educational program not found"
	case errors.Is(err, services.ErrGroupNotFound):
		return "Group not found"
	case errors.Is(err, services.ErrLessonNotFound):
		return "Lesson not found"
	case errors.Is(err, services.ErrMaterialNotFound):
		return "Material not found"
	case errors.Is(err, services.ErrMessageNotFound):
		return "Message not found"
	case errors.Is(err, services.ErrAttendanceNotFound):
		return "Attendance record not found"
	default:
		return "Resource not found"
	}
}
