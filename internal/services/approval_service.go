// internal/services/approval_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/database"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// ApprovalService runs the request state machine. Pending requests accept
// exactly one decision; the decision write is a conditional UPDATE on the
// pending status so a racing second decider loses cleanly. Approved and
// rejected and cancelled are terminal.
type ApprovalService struct {
	db            *gorm.DB
	ticketService *TicketService
}

type SubmitApprovalRequest struct {
	SubjectID           uuid.UUID              `json:"subject_id" validate:"required"`
	SubjectType         models.SubjectType     `json:"subject_type" validate:"required,oneof=prehire employee"`
	PackageAssignmentID *uuid.UUID             `json:"package_assignment_id,omitempty"`
	ApproverIDs         []string               `json:"approver_ids,omitempty" validate:"omitempty,dive,uuid"`
	RequestData         map[string]interface{} `json:"request_data,omitempty"`
}

type DecideApprovalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

type EscalateApprovalRequest struct {
	EscalateTo uuid.UUID `json:"escalate_to" validate:"required"`
	Reason     string    `json:"reason" validate:"required"`
}

func NewApprovalService(db *gorm.DB, ticketService *TicketService) *ApprovalService {
	return &ApprovalService{
		db:            db,
		ticketService: ticketService,
	}
}

// Submit files a request for the subject. With no approvers named the
// request is born approved, marked as an automated decision, and its
// provisioning ticket is created in the same transaction. With approvers
// it starts pending and they are notified.
func (s *ApprovalService) Submit(req *SubmitApprovalRequest) (*models.ApprovalRequest, error) {
	var request *models.ApprovalRequest
	var ticket *models.ProvisioningTicket
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		request, ticket, err = s.submitInTx(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifySubmitted(request, ticket)

	logrus.WithFields(logrus.Fields{
		"request_id": request.ID,
		"subject_id": request.SubjectID,
		"status":     request.Status,
		"automated":  request.AutomatedDecision,
	}).Info("Approval request submitted")

	return request, nil
}

// submitInTx files the request inside the caller's transaction, so whatever
// else the caller writes alongside it (typically the package assignment)
// commits or rolls back together with the request and its ticket.
func (s *ApprovalService) submitInTx(tx *gorm.DB, req *SubmitApprovalRequest) (*models.ApprovalRequest, *models.ProvisioningTicket, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, nil, apperrors.ValidationWrap("approval_request", err)
	}

	request := &models.ApprovalRequest{
		SubjectID:           req.SubjectID,
		SubjectType:         req.SubjectType,
		PackageAssignmentID: req.PackageAssignmentID,
		ApproverIDs:         pq.StringArray(req.ApproverIDs),
		RequestData:         models.JSONB(req.RequestData),
		Status:              models.ApprovalStatusPending,
	}
	if len(req.ApproverIDs) == 0 {
		now := time.Now()
		request.Status = models.ApprovalStatusApproved
		request.AutomatedDecision = true
		request.ApprovalDate = &now
	}

	if err := tx.Create(request).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create approval request: %w", err)
	}

	var ticket *models.ProvisioningTicket
	if request.Status == models.ApprovalStatusApproved {
		var err error
		ticket, err = s.ticketService.CreateForApproval(tx, request,
			fmt.Sprintf("Provision equipment for subject %s", request.SubjectID),
			map[string]interface{}{
				"approval_request_id": request.ID.String(),
				"automated":           true,
			})
		if err != nil {
			return nil, nil, err
		}
	}

	return request, ticket, nil
}

// notifySubmitted fires the post-commit side effects for a new request.
func (s *ApprovalService) notifySubmitted(request *models.ApprovalRequest, ticket *models.ProvisioningTicket) {
	if ticket != nil {
		go s.ticketService.NotifyFulfillment(ticket)
	} else {
		go s.notifyApprovers(request)
	}
}

// Decide records a single approve or reject by an effective approver.
// The pending check and the write are one statement, so a second decider
// gets AlreadyDecided instead of overwriting the first.
func (s *ApprovalService) Decide(requestID, actorID uuid.UUID, req *DecideApprovalRequest) (*models.ApprovalRequest, error) {
	if !req.Approve && req.Reason == "" {
		return nil, apperrors.Validation("approval_request", "a rejection requires a reason")
	}

	request, err := s.GetRequest(requestID)
	if err != nil {
		return nil, err
	}

	if !s.isEffectiveApprover(request, actorID) {
		return nil, apperrors.Validation("approval_request",
			fmt.Sprintf("operator %s is not an approver for this request", actorID))
	}

	var ticket *models.ProvisioningTicket
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{}
		if req.Approve {
			updates["status"] = models.ApprovalStatusApproved
			updates["approved_by"] = actorID
			updates["approval_date"] = now
		} else {
			updates["status"] = models.ApprovalStatusRejected
			updates["rejected_by"] = actorID
			updates["rejection_reason"] = req.Reason
		}

		result := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ?", requestID, models.ApprovalStatusPending).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to record decision: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.AlreadyDecided("approval_request", requestID.String(),
				"request is no longer pending")
		}

		if req.Approve {
			request.Status = models.ApprovalStatusApproved
			request.ApprovedBy = &actorID
			request.ApprovalDate = &now

			var err error
			ticket, err = s.ticketService.CreateForApproval(tx, request,
				fmt.Sprintf("Provision equipment for subject %s", request.SubjectID),
				map[string]interface{}{
					"approval_request_id": request.ID.String(),
					"approved_by":         actorID.String(),
				})
			return err
		}

		request.Status = models.ApprovalStatusRejected
		request.RejectedBy = &actorID
		request.RejectionReason = req.Reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ticket != nil {
		go s.ticketService.NotifyFulfillment(ticket)
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"actor_id":   actorID,
		"approved":   req.Approve,
	}).Info("Approval decision recorded")

	return request, nil
}

// Cancel withdraws a pending request, e.g. when the hire falls through.
func (s *ApprovalService) Cancel(requestID uuid.UUID) (*models.ApprovalRequest, error) {
	request, err := s.GetRequest(requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&models.ApprovalRequest{}).
		Where("id = ? AND status = ?", requestID, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":       models.ApprovalStatusCancelled,
			"cancelled_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.AlreadyDecided("approval_request", requestID.String(),
			"request is no longer pending")
	}

	request.Status = models.ApprovalStatusCancelled
	request.CancelledAt = &now
	return request, nil
}

// Escalate hands a pending request to a different operator, who becomes the
// sole effective approver.
func (s *ApprovalService) Escalate(requestID uuid.UUID, req *EscalateApprovalRequest) (*models.ApprovalRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("approval_request", err)
	}

	request, err := s.GetRequest(requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&models.ApprovalRequest{}).
		Where("id = ? AND status = ?", requestID, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"escalated_to":      req.EscalateTo,
			"escalated_at":      now,
			"escalation_reason": req.Reason,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to escalate request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.AlreadyDecided("approval_request", requestID.String(),
			"request is no longer pending")
	}

	request.EscalatedTo = &req.EscalateTo
	request.EscalatedAt = &now
	request.EscalationReason = req.Reason

	go s.notifyApprovers(request)

	return request, nil
}

func (s *ApprovalService) GetRequest(id uuid.UUID) (*models.ApprovalRequest, error) {
	var request models.ApprovalRequest
	if err := s.db.Preload("Tickets").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("approval_request", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &request, nil
}

func (s *ApprovalService) ListRequests(params utils.PaginationParams, status models.ApprovalStatus, subjectID *uuid.UUID) ([]models.ApprovalRequest, int64, error) {
	query := s.db.Model(&models.ApprovalRequest{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count approval requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var requests []models.ApprovalRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch approval requests: %w", err)
	}

	return requests, total, nil
}

// isEffectiveApprover checks who may decide: the escalation target when one
// is set, otherwise anyone in the original approver list.
func (s *ApprovalService) isEffectiveApprover(request *models.ApprovalRequest, actorID uuid.UUID) bool {
	if request.EscalatedTo != nil {
		return *request.EscalatedTo == actorID
	}
	for _, id := range request.ApproverIDs {
		if id == actorID.String() {
			return true
		}
	}
	return false
}

func (s *ApprovalService) notifyApprovers(request *models.ApprovalRequest) {
	ids := make([]string, 0, len(request.ApproverIDs))
	if request.EscalatedTo != nil {
		ids = append(ids, request.EscalatedTo.String())
	} else {
		ids = append(ids, request.ApproverIDs...)
	}
	if len(ids) == 0 {
		return
	}

	var emails []string
	if err := s.db.Model(&models.Operator{}).
		Where("id IN ?", ids).
		Pluck("email", &emails).Error; err != nil {
		logrus.WithError(err).WithField("request_id", request.ID).
			Error("Failed to resolve approver emails")
		return
	}

	s.ticketService.NotifyApprovers(request, emails)
}
