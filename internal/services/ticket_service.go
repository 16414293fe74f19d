// internal/services/ticket_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/config"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// TicketService turns approved requests into provisioning work items and
// notifies the fulfillment queue. Ticket rows are written synchronously
// inside the caller's transaction; email is best effort.
type TicketService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewTicketService(db *gorm.DB, config *config.Config) *TicketService {
	return &TicketService{
		db:     db,
		config: config,
	}
}

// CreateForApproval writes the provisioning ticket for an approved request
// using the caller's transaction handle so the ticket lands with the
// approval decision or not at all.
func (s *TicketService) CreateForApproval(tx *gorm.DB, request *models.ApprovalRequest, summary string, details map[string]interface{}) (*models.ProvisioningTicket, error) {
	if request.Status != models.ApprovalStatusApproved {
		return nil, apperrors.Validation("provisioning_ticket",
			"tickets are only created for approved requests")
	}

	reference, err := utils.GenerateTicketReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket reference: %w", err)
	}

	ticket := &models.ProvisioningTicket{
		Reference:         reference,
		ApprovalRequestID: request.ID,
		SubjectID:         request.SubjectID,
		Summary:           summary,
		Details:           models.JSONB(details),
		Status:            models.TicketStatusOpen,
	}

	if err := tx.Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create provisioning ticket: %w", err)
	}

	return ticket, nil
}

func (s *TicketService) GetTicket(id uuid.UUID) (*models.ProvisioningTicket, error) {
	var ticket models.ProvisioningTicket
	if err := s.db.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("provisioning_ticket", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &ticket, nil
}

func (s *TicketService) ListTickets(params utils.PaginationParams, status models.TicketStatus, subjectID *uuid.UUID) ([]models.ProvisioningTicket, int64, error) {
	query := s.db.Model(&models.ProvisioningTicket{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	allowedSortFields := []string{"created_at", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var tickets []models.ProvisioningTicket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}

	return tickets, total, nil
}

func (s *TicketService) CloseTicket(id uuid.UUID) (*models.ProvisioningTicket, error) {
	ticket, err := s.GetTicket(id)
	if err != nil {
		return nil, err
	}

	if ticket.Status == models.TicketStatusClosed {
		return ticket, nil
	}

	now := time.Now()
	ticket.Status = models.TicketStatusClosed
	ticket.ClosedAt = &now

	if err := s.db.Save(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to close ticket: %w", err)
	}

	return ticket, nil
}

// NotifyFulfillment emails the IT queue about a new ticket. Callers invoke
// this in a goroutine; failures are logged, never propagated.
func (s *TicketService) NotifyFulfillment(ticket *models.ProvisioningTicket) {
	emailTemplate := s.getEmailTemplate("ticket_opened")

	data := map[string]interface{}{
		"Reference": ticket.Reference,
		"Summary":   ticket.Summary,
		"SubjectID": ticket.SubjectID.String(),
		"TicketURL": fmt.Sprintf("%s/tickets/%s", s.config.Frontend.BaseURL, ticket.ID),
	}

	body, err := s.renderTemplate(emailTemplate.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("ticket_id", ticket.ID).
			Error("Failed to render ticket notification")
		return
	}

	subject := fmt.Sprintf("%s - %s", emailTemplate.Subject, ticket.Reference)
	if err := s.sendEmail(s.config.Email.ITQueueEmail, subject, body); err != nil {
		logrus.WithError(err).WithField("ticket_id", ticket.ID).
			Error("Failed to send ticket notification")
	}
}

// NotifyApprovers emails each pending approver. Best effort, run async.
func (s *TicketService) NotifyApprovers(request *models.ApprovalRequest, approverEmails []string) {
	emailTemplate := s.getEmailTemplate("approval_pending")

	data := map[string]interface{}{
		"SubjectID":  request.SubjectID.String(),
		"RequestURL": fmt.Sprintf("%s/approvals/%s", s.config.Frontend.BaseURL, request.ID),
	}

	body, err := s.renderTemplate(emailTemplate.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("request_id", request.ID).
			Error("Failed to render approval notification")
		return
	}

	for _, to := range approverEmails {
		if err := s.sendEmail(to, emailTemplate.Subject, body); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"request_id": request.ID,
				"approver":   to,
			}).Error("Failed to send approval notification")
		}
	}
}

func (s *TicketService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *TicketService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *TicketService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"ticket_opened": {
			Subject: "New Provisioning Ticket",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>New Provisioning Ticket {{.Reference}}</h2>
	<p>{{.Summary}}</p>
	<p>Subject: {{.SubjectID}}</p>
	<a href="{{.TicketURL}}">View Ticket</a>
	<p>EquipDesk</p>
</body>
</html>`,
		},
		"approval_pending": {
			Subject: "Equipment Request Awaiting Approval",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Approval Needed</h2>
	<p>An equipment request for subject {{.SubjectID}} is waiting for your decision.</p>
	<a href="{{.RequestURL}}">Review Request</a>
	<p>EquipDesk</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "EquipDesk Notification",
		Body:    "<html><body><p>You have a new notification.</p></body></html>",
	}
}
