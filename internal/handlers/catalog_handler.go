package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// CatalogHandler serves educational programs and groups
type CatalogHandler struct {
	BaseHandler
	programService services.ProgramService
	groupService   services.GroupService
}

func NewCatalogHandler(programService services.ProgramService, groupService services.GroupService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		programService: programService,
		groupService:   groupService,
	}
}

// ===== PROGRAMS =====

func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	programs, err := h.programService.List(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, programs)
}

func (h *CatalogHandler) GetProgram(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	program, err := h.programService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, program)
}

func (h *CatalogHandler) CreateProgram(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.CreateProgramRequest
	if !h.bindJSON(c, &req) {
		return
	}

	program, err := h.programService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, program)
}

func (h *CatalogHandler) UpdateProgram(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.UpdateProgramRequest
	if !h.bindJSON(c, &req) {
		return
	}

	program, err := h.programService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, program)
}

func (h *CatalogHandler) DeleteProgram(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.programService.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Program deactivated successfully"})
}

// ===== GROUPS =====

func (h *CatalogHandler) ListGroups(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filters repositories.GroupFilters
	if filters.ProgramID, ok = h.parseOptionalIDQuery(c, "program_id"); !ok {
		return
	}
	if filters.TeacherID, ok = h.parseOptionalIDQuery(c, "teacher_id"); !ok {
		return
	}
	filters.OpenOnly = c.Query("open_only") == "true"

	groups, err := h.groupService.List(c.Request.Context(), actor, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h *CatalogHandler) MyGroups(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	groups, err := h.groupService.MyGroups(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h *CatalogHandler) GetGroup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	group, err := h.groupService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.CreateGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

func (h *CatalogHandler) UpdateGroup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.UpdateGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *CatalogHandler) DeleteGroup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Group deleted successfully"})
}

// JoinGroup adds the calling student to the group
// @Summary Join group
// @Tags groups
// @Produce json
// @Param id path uint true "Group ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Group is closed, full, or already joined"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{id}/join [post]
func (h *CatalogHandler) JoinGroup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.groupService.Join(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Joined group successfully"})
}

func (h *CatalogHandler) LeaveGroup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.groupService.Leave(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Left group successfully"})
}
