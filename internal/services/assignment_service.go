// internal/services/assignment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/database"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// AssignmentService hands packages to people. An assignment pins the
// package version current at assignment time; later edits to the package
// never change what an existing assignment resolves to.
type AssignmentService struct {
	db              *gorm.DB
	versionService  *VersionService
	catalogService  *CatalogService
	approvalService *ApprovalService
}

type AssignPackageRequest struct {
	SubjectID   uuid.UUID          `json:"subject_id" validate:"required"`
	SubjectType models.SubjectType `json:"subject_type" validate:"required,oneof=prehire employee"`
	PackageID   uuid.UUID          `json:"package_id" validate:"required"`
}

// AssignmentResult bundles the assignment with the approval request filed
// alongside it.
type AssignmentResult struct {
	Assignment *models.PackageAssignment `json:"assignment"`
	Approval   *models.ApprovalRequest   `json:"approval"`
}

func NewAssignmentService(db *gorm.DB, versionService *VersionService, catalogService *CatalogService, approvalService *ApprovalService) *AssignmentService {
	return &AssignmentService{
		db:              db,
		versionService:  versionService,
		catalogService:  catalogService,
		approvalService: approvalService,
	}
}

// Assign pins the package's current content as a version, records the
// assignment against that version, and files the approval request. When
// the pinned version needs no approval the request auto-approves and the
// provisioning ticket opens immediately.
func (s *AssignmentService) Assign(req *AssignPackageRequest, assignedBy uuid.UUID) (*AssignmentResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("package_assignment", err)
	}

	var pkg models.EquipmentPackage
	if err := s.db.First(&pkg, req.PackageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("package", req.PackageID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if pkg.Status != models.PackageStatusActive {
		return nil, apperrors.Validation("package",
			fmt.Sprintf("package %s is archived and cannot be assigned", req.PackageID))
	}

	version, err := s.versionService.GetOrCreateVersion(req.PackageID)
	if err != nil {
		return nil, err
	}

	assignment := &models.PackageAssignment{
		SubjectID:        req.SubjectID,
		SubjectType:      req.SubjectType,
		PackageVersionID: version.ID,
		AssignedDate:     time.Now(),
		AssignedBy:       &assignedBy,
		Status:           models.AssignmentStatusActive,
	}

	var approverIDs []string
	if version.RequiresApproval {
		approverIDs = pkg.ApproverIDs
	}

	// The assignment and its approval request commit together. A failed
	// submission must not leave an assignment with no request attached.
	var approval *models.ApprovalRequest
	var ticket *models.ProvisioningTicket
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(assignment).Error; err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		var err error
		approval, ticket, err = s.approvalService.submitInTx(tx, &SubmitApprovalRequest{
			SubjectID:           req.SubjectID,
			SubjectType:         req.SubjectType,
			PackageAssignmentID: &assignment.ID,
			ApproverIDs:         approverIDs,
			RequestData: map[string]interface{}{
				"package_id":         req.PackageID.String(),
				"package_version_id": version.ID.String(),
				"version_number":     version.VersionNumber,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.approvalService.notifySubmitted(approval, ticket)

	logrus.WithFields(logrus.Fields{
		"assignment_id":  assignment.ID,
		"subject_id":     req.SubjectID,
		"package_id":     req.PackageID,
		"version_number": version.VersionNumber,
	}).Info("Package assigned")

	return &AssignmentResult{Assignment: assignment, Approval: approval}, nil
}

func (s *AssignmentService) GetAssignment(id uuid.UUID) (*models.PackageAssignment, error) {
	var assignment models.PackageAssignment
	if err := s.db.Preload("PackageVersion").First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("assignment", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &assignment, nil
}

func (s *AssignmentService) ListAssignments(params utils.PaginationParams, subjectID *uuid.UUID, status models.AssignmentStatus) ([]models.PackageAssignment, int64, error) {
	query := s.db.Model(&models.PackageAssignment{}).Preload("PackageVersion")

	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	allowedSortFields := []string{"created_at", "assigned_date", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var assignments []models.PackageAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	return assignments, total, nil
}

// EffectiveEquipment resolves what the assignment actually grants: the item
// lists of the pinned version, looked up in the catalog as of now.
func (s *AssignmentService) EffectiveEquipment(assignmentID uuid.UUID) ([]models.CatalogItem, error) {
	assignment, err := s.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}

	version, err := s.versionService.GetVersion(assignment.PackageVersionID)
	if err != nil {
		return nil, err
	}

	return s.catalogService.ResolveItems(version.HardwareIDs, version.SoftwareIDs)
}

func (s *AssignmentService) Unassign(id uuid.UUID) (*models.PackageAssignment, error) {
	assignment, err := s.GetAssignment(id)
	if err != nil {
		return nil, err
	}

	if assignment.Status == models.AssignmentStatusUnassigned {
		return assignment, nil
	}

	now := time.Now()
	assignment.Status = models.AssignmentStatusUnassigned
	assignment.UnassignedAt = &now

	if err := s.db.Save(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to unassign package: %w", err)
	}

	return assignment, nil
}
