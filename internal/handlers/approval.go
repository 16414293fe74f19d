// internal/handlers/approval.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/equipdesk/equipdesk-backend/internal/i18n"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type ApprovalHandler struct {
	approvalService *services.ApprovalService
	ticketService   *services.TicketService
}

func NewApprovalHandler(approvalService *services.ApprovalService, ticketService *services.TicketService) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		ticketService:   ticketService,
	}
}

// POST /approvals
func (h *ApprovalHandler) SubmitRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SubmitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, err := h.approvalService.Submit(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyApprovalSubmitted),
		"request": request,
	})
}

// GET /approvals
func (h *ApprovalHandler) ListRequests(c *gin.Context) {
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

	status := models.ApprovalStatus(c.Query("status"))

	requests, total, err := h.approvalService.ListRequests(params, status, subjectID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(requests, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /approvals/:id
func (h *ApprovalHandler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	request, err := h.approvalService.GetRequest(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"request": request})
}

// POST /approvals/:id/decide
func (h *ApprovalHandler) DecideRequest(c *gin.Context) {
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

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	var req services.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, err := h.approvalService.Decide(id, operatorID, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	messageKey := i18n.KeyApprovalApproved
	if !req.Approve {
		messageKey = i18n.KeyApprovalRejected
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"request": request,
	})
}

// POST /approvals/:id/cancel
func (h *ApprovalHandler) CancelRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	request, err := h.approvalService.Cancel(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyApprovalCancelled),
		"request": request,
	})
}

// POST /approvals/:id/escalate
func (h *ApprovalHandler) EscalateRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	var req services.EscalateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, err := h.approvalService.Escalate(id, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyApprovalEscalated),
		"request": request,
	})
}

// GET /tickets
func (h *ApprovalHandler) ListTickets(c *gin.Context) {
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

	status := models.TicketStatus(c.Query("status"))

	tickets, total, err := h.ticketService.ListTickets(params, status, subjectID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(tickets, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /tickets/:id
func (h *ApprovalHandler) GetTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ticket ID", nil)
		return
	}

	ticket, err := h.ticketService.GetTicket(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"ticket": ticket})
}

// POST /tickets/:id/close
func (h *ApprovalHandler) CloseTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ticket ID", nil)
		return
	}

	ticket, err := h.ticketService.CloseTicket(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"ticket": ticket})
}
