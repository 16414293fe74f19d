// internal/models/approval.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ApprovalRequest gates an assignment behind zero or more named approvers.
// AutomatedDecision is true iff ApproverIDs was empty at creation; such
// requests are born approved. Terminal states are final.
type ApprovalRequest struct {
	BaseModel
	SubjectID           uuid.UUID      `json:"subject_id" gorm:"type:uuid;not null;index"`
	SubjectType         SubjectType    `json:"subject_type" gorm:"type:varchar(20);not null"`
	PackageAssignmentID *uuid.UUID     `json:"package_assignment_id" gorm:"type:uuid;index"`
	ApproverIDs         pq.StringArray `json:"approver_ids" gorm:"type:text[]"`
	Status              ApprovalStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	AutomatedDecision   bool           `json:"automated_decision" gorm:"default:false"`
	RequestData         JSONB          `json:"request_data" gorm:"type:jsonb"`
	ApprovedBy          *uuid.UUID     `json:"approved_by" gorm:"type:uuid"`
	ApprovalDate        *time.Time     `json:"approval_date"`
	RejectedBy          *uuid.UUID     `json:"rejected_by" gorm:"type:uuid"`
	RejectionReason     string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	CancelledAt         *time.Time     `json:"cancelled_at"`
	EscalatedTo         *uuid.UUID     `json:"escalated_to" gorm:"type:uuid"`
	EscalatedAt         *time.Time     `json:"escalated_at"`
	EscalationReason    string         `json:"escalation_reason,omitempty" gorm:"type:text"`

	// Relationships
	PackageAssignment *PackageAssignment `json:"package_assignment,omitempty" gorm:"foreignKey:PackageAssignmentID"`
	Tickets           []ProvisioningTicket `json:"tickets,omitempty" gorm:"foreignKey:ApprovalRequestID"`
}

// ProvisioningTicket is the downstream work item created when a request is
// approved. The engine creates the row synchronously; notifying the
// fulfillment side is fire-and-forget.
type ProvisioningTicket struct {
	BaseModel
	Reference         string       `json:"reference" gorm:"size:40;uniqueIndex;not null"`
	ApprovalRequestID uuid.UUID    `json:"approval_request_id" gorm:"type:uuid;not null;index"`
	SubjectID         uuid.UUID    `json:"subject_id" gorm:"type:uuid;not null;index"`
	Summary           string       `json:"summary" gorm:"size:255;not null"`
	Details           JSONB        `json:"details" gorm:"type:jsonb"`
	Status            TicketStatus `json:"status" gorm:"type:varchar(20);default:'open';index"`
	ClosedAt          *time.Time   `json:"closed_at"`
}
