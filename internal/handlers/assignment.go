// internal/handlers/assignment.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/equipdesk/equipdesk-backend/internal/i18n"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type AssignmentHandler struct {
	assignmentService *services.AssignmentService
}

func NewAssignmentHandler(assignmentService *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

// POST /assignments
func (h *AssignmentHandler) AssignPackage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	operatorIDStr, exists := utils.GetOperatorIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	operatorID, err := uuid.Parse(operatorIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid operator ID", nil)
		return
	}

	var req services.AssignPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.assignmentService.Assign(&req, operatorID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentCreated),
		"assignment": result.Assignment,
		"approval":   result.Approval,
	})
}

// GET /assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var subjectID *uuid.UUID
	if raw := c.Query("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid subject ID", nil)
			return
		}
		subjectID = &id
	}

	status := models.AssignmentStatus(c.Query("status"))

	assignments, total, err := h.assignmentService.ListAssignments(params, subjectID, status)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(assignments, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid assignment ID", nil)
		return
	}

	assignment, err := h.assignmentService.GetAssignment(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"assignment": assignment})
}

// GET /assignments/:id/equipment
func (h *AssignmentHandler) GetEffectiveEquipment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid assignment ID", nil)
		return
	}

	items, err := h.assignmentService.EffectiveEquipment(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"equipment": items})
}

// POST /assignments/:id/unassign
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid assignment ID", nil)
		return
	}

	assignment, err := h.assignmentService.Unassign(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAssignmentRemoved),
		"assignment": assignment,
	})
}
