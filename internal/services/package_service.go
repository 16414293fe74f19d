// internal/services/package_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// PackageService manages the mutable package definitions. Edits only touch
// the live definition; promises are captured by versions, which only the
// VersionService writes.
type PackageService struct {
	db             *gorm.DB
	versionService *VersionService
}

type CreatePackageRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description,omitempty"`
	RoleTargets []string `json:"role_targets,omitempty"`
	HardwareIDs []string `json:"hardware_ids,omitempty" validate:"dive,uuid"`
	SoftwareIDs []string `json:"software_ids,omitempty" validate:"dive,uuid"`
	ApproverIDs []string `json:"approver_ids,omitempty" validate:"dive,uuid"`
}

type UpdatePackageRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string   `json:"description,omitempty"`
	RoleTargets *[]string `json:"role_targets,omitempty"`
	HardwareIDs *[]string `json:"hardware_ids,omitempty" validate:"omitempty,dive,uuid"`
	SoftwareIDs *[]string `json:"software_ids,omitempty" validate:"omitempty,dive,uuid"`
	ApproverIDs *[]string `json:"approver_ids,omitempty" validate:"omitempty,dive,uuid"`
}

func NewPackageService(db *gorm.DB, versionService *VersionService) *PackageService {
	return &PackageService{
		db:             db,
		versionService: versionService,
	}
}

func (s *PackageService) CreatePackage(req *CreatePackageRequest) (*models.EquipmentPackage, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("package", err)
	}

	if err := s.checkCatalogRefs(req.HardwareIDs, req.SoftwareIDs); err != nil {
		return nil, err
	}

	pkg := &models.EquipmentPackage{
		Name:        req.Name,
		Description: req.Description,
		RoleTargets: req.RoleTargets,
		HardwareIDs: req.HardwareIDs,
		SoftwareIDs: req.SoftwareIDs,
		ApproverIDs: req.ApproverIDs,
		Status:      models.PackageStatusActive,
	}

	if err := s.db.Create(pkg).Error; err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	return pkg, nil
}

func (s *PackageService) GetPackage(id uuid.UUID) (*models.EquipmentPackage, error) {
	var pkg models.EquipmentPackage
	if err := s.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("package", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &pkg, nil
}

func (s *PackageService) SearchPackages(params utils.PaginationParams) ([]models.EquipmentPackage, int64, error) {
	query := s.db.Model(&models.EquipmentPackage{})

	if params.Search != "" {
		query = query.Where("name LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count packages: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var packages []models.EquipmentPackage
	if err := query.Find(&packages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch packages: %w", err)
	}

	return packages, total, nil
}

// UpdatePackage edits the live definition only. Nothing already promised
// changes: a snapshot is taken on the next save.
func (s *PackageService) UpdatePackage(id uuid.UUID, req *UpdatePackageRequest) (*models.EquipmentPackage, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("package", err)
	}

	pkg, err := s.GetPackage(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.Description != nil {
		pkg.Description = *req.Description
	}
	if req.RoleTargets != nil {
		pkg.RoleTargets = *req.RoleTargets
	}
	if req.HardwareIDs != nil {
		pkg.HardwareIDs = *req.HardwareIDs
	}
	if req.SoftwareIDs != nil {
		pkg.SoftwareIDs = *req.SoftwareIDs
	}
	if req.ApproverIDs != nil {
		pkg.ApproverIDs = *req.ApproverIDs
	}

	if err := s.checkCatalogRefs(pkg.HardwareIDs, pkg.SoftwareIDs); err != nil {
		return nil, err
	}

	if err := s.db.Save(pkg).Error; err != nil {
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	return pkg, nil
}

// SavePackage snapshots the current definition, creating a new version only
// when content changed.
func (s *PackageService) SavePackage(id uuid.UUID) (*models.PackageVersion, error) {
	return s.versionService.GetOrCreateVersion(id)
}

func (s *PackageService) ArchivePackage(id uuid.UUID) (*models.EquipmentPackage, error) {
	pkg, err := s.GetPackage(id)
	if err != nil {
		return nil, err
	}

	if pkg.Status == models.PackageStatusArchived {
		return nil, apperrors.Validation("package", "package is already archived")
	}

	pkg.Status = models.PackageStatusArchived
	if err := s.db.Save(pkg).Error; err != nil {
		return nil, fmt.Errorf("failed to archive package: %w", err)
	}
	return pkg, nil
}

func (s *PackageService) checkCatalogRefs(hardwareIDs, softwareIDs []string) error {
	if len(hardwareIDs) > 0 {
		var count int64
		if err := s.db.Model(&models.HardwareItem{}).Where("id IN ?", hardwareIDs).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check hardware references: %w", err)
		}
		if count != int64(len(hardwareIDs)) {
			return apperrors.Validation("package", "one or more hardware ids are unknown")
		}
	}

	if len(softwareIDs) > 0 {
		var count int64
		if err := s.db.Model(&models.SoftwareItem{}).Where("id IN ?", softwareIDs).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check software references: %w", err)
		}
		if count != int64(len(softwareIDs)) {
			return apperrors.Validation("package", "one or more software ids are unknown")
		}
	}

	return nil
}
