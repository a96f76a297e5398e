package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-ledger/internal/dto"
	"github.com/ignatzorin/escrow-ledger/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-ledger/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "название проекта обязательно")
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), userID, req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// CompleteMilestone POST /projects/:id/milestones/:position/complete
func (h *ProjectHandler) CompleteMilestone(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		common.RespondBadRequest(c, "позиция этапа должна быть неотрицательным числом")
		return
	}

	milestone, err := h.projects.CompleteMilestone(c.Request.Context(), projectID, position, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}

// ApproveMilestone POST /projects/:id/milestones/:position/approve
func (h *ProjectHandler) ApproveMilestone(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		common.RespondBadRequest(c, "позиция этапа должна быть неотрицательным числом")
		return
	}

	milestone, err := h.projects.ApproveMilestone(c.Request.Context(), projectID, position, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}

// Cancel POST /projects/:id/cancel
func (h *ProjectHandler) Cancel(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.CancelProject(c.Request.Context(), projectID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}
