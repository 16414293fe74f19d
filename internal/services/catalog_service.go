// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// CatalogService owns the reference data: hardware and software items are
// created once and retired, never edited in place. Hardware replacement is
// expressed through the superseding chain, and this service propagates it
// into every live package without touching existing assignments.
type CatalogService struct {
	db             *gorm.DB
	versionService *VersionService
}

type CreateHardwareRequest struct {
	Model          string                 `json:"model" validate:"required,max=255"`
	Manufacturer   string                 `json:"manufacturer,omitempty" validate:"max=100"`
	Category       string                 `json:"category,omitempty" validate:"max=100"`
	UnitCost       float64                `json:"unit_cost,omitempty" validate:"gte=0"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

type CreateSoftwareRequest struct {
	Name             string               `json:"name" validate:"required,max=255"`
	Vendor           string               `json:"vendor,omitempty" validate:"max=100"`
	Cost             float64              `json:"cost" validate:"gte=0"`
	CostFrequency    models.CostFrequency `json:"cost_frequency,omitempty" validate:"omitempty,oneof=monthly annual one_time"`
	RequiresApproval bool                 `json:"requires_approval,omitempty"`
}

type SupersedeHardwareRequest struct {
	SupersededByID uuid.UUID `json:"superseded_by_id" validate:"required"`
}

func NewCatalogService(db *gorm.DB, versionService *VersionService) *CatalogService {
	return &CatalogService{
		db:             db,
		versionService: versionService,
	}
}

func (s *CatalogService) CreateHardware(req *CreateHardwareRequest) (*models.HardwareItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("hardware", err)
	}

	hardware := &models.HardwareItem{
		Model:          req.Model,
		Manufacturer:   req.Manufacturer,
		Category:       req.Category,
		UnitCost:       req.UnitCost,
		Status:         models.CatalogStatusActive,
		Specifications: models.JSONB(req.Specifications),
	}

	if err := s.db.Create(hardware).Error; err != nil {
		return nil, fmt.Errorf("failed to create hardware item: %w", err)
	}

	return hardware, nil
}

func (s *CatalogService) GetHardware(id uuid.UUID) (*models.HardwareItem, error) {
	var hardware models.HardwareItem
	if err := s.db.Preload("SupersededBy").First(&hardware, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("hardware", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &hardware, nil
}

func (s *CatalogService) SearchHardware(params utils.PaginationParams) ([]models.HardwareItem, int64, error) {
	query := s.db.Model(&models.HardwareItem{})

	if params.Search != "" {
		query = query.Where("model LIKE ? OR manufacturer LIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count hardware items: %w", err)
	}

	allowedSortFields := []string{"created_at", "model", "manufacturer", "category"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var items []models.HardwareItem
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch hardware items: %w", err)
	}

	return items, total, nil
}

func (s *CatalogService) RetireHardware(id uuid.UUID) (*models.HardwareItem, error) {
	hardware, err := s.GetHardware(id)
	if err != nil {
		return nil, err
	}

	if hardware.Status == models.CatalogStatusRetired {
		return nil, apperrors.Validation("hardware", "hardware item is already retired")
	}

	hardware.Status = models.CatalogStatusRetired
	if err := s.db.Save(hardware).Error; err != nil {
		return nil, fmt.Errorf("failed to retire hardware item: %w", err)
	}
	return hardware, nil
}

func (s *CatalogService) AddHardwareAttachment(id uuid.UUID, url string) (*models.HardwareItem, error) {
	hardware, err := s.GetHardware(id)
	if err != nil {
		return nil, err
	}

	hardware.AttachmentURLs = append(hardware.AttachmentURLs, url)
	if err := s.db.Save(hardware).Error; err != nil {
		return nil, fmt.Errorf("failed to save hardware attachment: %w", err)
	}
	return hardware, nil
}

// SupersedeHardware marks hardware as replaced and propagates the
// replacement into every live package that references the old item. Each
// touched package gets a fresh version through the Version Manager, so new
// assignments pick up the replacement while existing assignments keep
// resolving to the hardware they were promised.
func (s *CatalogService) SupersedeHardware(hardwareID uuid.UUID, req *SupersedeHardwareRequest) ([]uuid.UUID, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("hardware", err)
	}

	if hardwareID == req.SupersededByID {
		return nil, apperrors.SupersedingCycle("hardware", hardwareID.String(),
			"hardware item cannot supersede itself")
	}

	hardware, err := s.GetHardware(hardwareID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetHardware(req.SupersededByID); err != nil {
		return nil, err
	}

	if err := s.checkSupersedingCycle(hardwareID, req.SupersededByID); err != nil {
		return nil, err
	}

	supersededByID := req.SupersededByID
	hardware.SupersededByID = &supersededByID
	if err := s.db.Save(hardware).Error; err != nil {
		return nil, fmt.Errorf("failed to set superseding pointer: %w", err)
	}

	// Rewrite live package definitions. Package lists are catalog-sized,
	// so the scan stays in memory.
	var packages []models.EquipmentPackage
	if err := s.db.Where("status = ?", models.PackageStatusActive).Find(&packages).Error; err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	oldID := hardwareID.String()
	newID := supersededByID.String()
	updated := make([]uuid.UUID, 0)

	for i := range packages {
		pkg := &packages[i]
		replaced := false
		for j, id := range pkg.HardwareIDs {
			if id == oldID {
				pkg.HardwareIDs[j] = newID
				replaced = true
			}
		}
		if !replaced {
			continue
		}

		if err := s.db.Save(pkg).Error; err != nil {
			return updated, fmt.Errorf("failed to update package %s: %w", pkg.ID, err)
		}
		if _, err := s.versionService.GetOrCreateVersion(pkg.ID); err != nil {
			return updated, err
		}

		updated = append(updated, pkg.ID)
	}

	logrus.WithFields(logrus.Fields{
		"hardware_id":      hardwareID,
		"superseded_by_id": supersededByID,
		"packages_updated": len(updated),
	}).Info("Hardware superseded")

	return updated, nil
}

// checkSupersedingCycle walks the chain starting at the proposed
// replacement. Reaching the item being superseded means the pointer would
// close a loop. The walk is bounded by the catalog size so a corrupt chain
// cannot spin forever.
func (s *CatalogService) checkSupersedingCycle(hardwareID, supersededByID uuid.UUID) error {
	var catalogSize int64
	if err := s.db.Model(&models.HardwareItem{}).Count(&catalogSize).Error; err != nil {
		return fmt.Errorf("failed to size hardware catalog: %w", err)
	}

	current := supersededByID
	for steps := int64(0); steps <= catalogSize; steps++ {
		if current == hardwareID {
			return apperrors.SupersedingCycle("hardware", hardwareID.String(),
				fmt.Sprintf("superseding by %s would create a cycle", supersededByID))
		}

		var item models.HardwareItem
		if err := s.db.Select("superseded_by_id").First(&item, current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to walk superseding chain: %w", err)
		}
		if item.SupersededByID == nil {
			return nil
		}
		current = *item.SupersededByID
	}

	return apperrors.SupersedingCycle("hardware", hardwareID.String(),
		"superseding chain does not terminate")
}

func (s *CatalogService) CreateSoftware(req *CreateSoftwareRequest) (*models.SoftwareItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("software", err)
	}

	frequency := req.CostFrequency
	if frequency == "" {
		frequency = models.CostFrequencyMonthly
	}

	software := &models.SoftwareItem{
		Name:             req.Name,
		Vendor:           req.Vendor,
		Cost:             req.Cost,
		CostFrequency:    frequency,
		RequiresApproval: req.RequiresApproval,
		Status:           models.CatalogStatusActive,
	}

	if err := s.db.Create(software).Error; err != nil {
		return nil, fmt.Errorf("failed to create software item: %w", err)
	}

	return software, nil
}

func (s *CatalogService) GetSoftware(id uuid.UUID) (*models.SoftwareItem, error) {
	var software models.SoftwareItem
	if err := s.db.First(&software, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("software", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &software, nil
}

func (s *CatalogService) SearchSoftware(params utils.PaginationParams) ([]models.SoftwareItem, int64, error) {
	query := s.db.Model(&models.SoftwareItem{})

	if params.Search != "" {
		query = query.Where("name LIKE ? OR vendor LIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count software items: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "vendor", "cost"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var items []models.SoftwareItem
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch software items: %w", err)
	}

	return items, total, nil
}

func (s *CatalogService) RetireSoftware(id uuid.UUID) (*models.SoftwareItem, error) {
	software, err := s.GetSoftware(id)
	if err != nil {
		return nil, err
	}

	if software.Status == models.CatalogStatusRetired {
		return nil, apperrors.Validation("software", "software item is already retired")
	}

	software.Status = models.CatalogStatusRetired
	if err := s.db.Save(software).Error; err != nil {
		return nil, fmt.Errorf("failed to retire software item: %w", err)
	}
	return software, nil
}

// ResolveItems loads the catalog records behind mixed hardware/software id
// lists as a tagged list, preserving hardware-then-software order.
func (s *CatalogService) ResolveItems(hardwareIDs, softwareIDs []string) ([]models.CatalogItem, error) {
	items := make([]models.CatalogItem, 0, len(hardwareIDs)+len(softwareIDs))

	if len(hardwareIDs) > 0 {
		var hardware []models.HardwareItem
		if err := s.db.Where("id IN ?", hardwareIDs).Find(&hardware).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve hardware items: %w", err)
		}
		for i := range hardware {
			items = append(items, models.CatalogItem{Kind: models.ItemKindHardware, Hardware: &hardware[i]})
		}
	}

	if len(softwareIDs) > 0 {
		var software []models.SoftwareItem
		if err := s.db.Where("id IN ?", softwareIDs).Find(&software).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve software items: %w", err)
		}
		for i := range software {
			items = append(items, models.CatalogItem{Kind: models.ItemKindSoftware, Software: &software[i]})
		}
	}

	return items, nil
}
