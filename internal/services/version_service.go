// internal/services/version_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/database"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// VersionService produces and retrieves immutable package snapshots. A
// version is only created when content actually changed; repeated no-change
// saves return the existing latest version so assignments never see churn.
type VersionService struct {
	db *gorm.DB
}

func NewVersionService(db *gorm.DB) *VersionService {
	return &VersionService{db: db}
}

type packageSnapshot struct {
	HardwareIDs      []string
	SoftwareIDs      []string
	RequiresApproval bool
	Digest           string
}

// GetOrCreateVersion snapshots the live package content. If the latest
// version already matches (order-independent on each id list), it is
// returned as-is. Otherwise a new version with the next contiguous number
// is created. A concurrent save of the same package loses the race on the
// (package_id, version_number) unique index and surfaces as a conflict the
// caller retries.
func (s *VersionService) GetOrCreateVersion(packageID uuid.UUID) (*models.PackageVersion, error) {
	var pkg models.EquipmentPackage
	if err := s.db.First(&pkg, packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("package", packageID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	snapshot, err := s.buildSnapshot(&pkg)
	if err != nil {
		return nil, err
	}

	var latest models.PackageVersion
	err = s.db.Where("package_id = ?", packageID).
		Order("version_number DESC").
		First(&latest).Error
	if err == nil && latest.ContentDigest == snapshot.Digest {
		return &latest, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load latest version: %w", err)
	}

	nextNumber := 1
	if err == nil {
		nextNumber = latest.VersionNumber + 1
	}

	version := &models.PackageVersion{
		PackageID:        packageID,
		VersionNumber:    nextNumber,
		HardwareIDs:      snapshot.HardwareIDs,
		SoftwareIDs:      snapshot.SoftwareIDs,
		RequiresApproval: snapshot.RequiresApproval,
		ContentDigest:    snapshot.Digest,
		CreatedDate:      time.Now(),
	}

	if err := s.createVersion(version); err != nil {
		return nil, err
	}

	return version, nil
}

// createVersion inserts the snapshot. A concurrent save that already took
// the same version number trips the (package_id, version_number) unique
// index and comes back as a conflict the caller retries.
func (s *VersionService) createVersion(version *models.PackageVersion) error {
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return tx.Create(version).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("package", version.PackageID.String(),
				"package was versioned concurrently, re-fetch and retry")
		}
		return fmt.Errorf("failed to create package version: %w", err)
	}
	return nil
}

func (s *VersionService) GetVersion(versionID uuid.UUID) (*models.PackageVersion, error) {
	var version models.PackageVersion
	if err := s.db.First(&version, versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("package_version", versionID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &version, nil
}

// LatestVersion returns the newest version for a package, or NotFound when
// the package has never been saved.
func (s *VersionService) LatestVersion(packageID uuid.UUID) (*models.PackageVersion, error) {
	var version models.PackageVersion
	err := s.db.Where("package_id = ?", packageID).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("package_version", packageID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &version, nil
}

func (s *VersionService) ListVersions(packageID uuid.UUID) ([]models.PackageVersion, error) {
	var count int64
	if err := s.db.Model(&models.EquipmentPackage{}).Where("id = ?", packageID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return nil, apperrors.NotFound("package", packageID.String())
	}

	var versions []models.PackageVersion
	if err := s.db.Where("package_id = ?", packageID).
		Order("version_number ASC").
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// buildSnapshot canonicalizes the live package content. The digest is
// computed over sorted id lists plus the approval bit, so list order in the
// mutable package never produces a spurious new version.
func (s *VersionService) buildSnapshot(pkg *models.EquipmentPackage) (*packageSnapshot, error) {
	hardwareIDs := append([]string(nil), pkg.HardwareIDs...)
	softwareIDs := append([]string(nil), pkg.SoftwareIDs...)
	sort.Strings(hardwareIDs)
	sort.Strings(softwareIDs)

	requiresApproval := len(pkg.ApproverIDs) > 0
	if !requiresApproval && len(softwareIDs) > 0 {
		var count int64
		if err := s.db.Model(&models.SoftwareItem{}).
			Where("id IN ? AND requires_approval = ?", softwareIDs, true).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check software approval flags: %w", err)
		}
		requiresApproval = count > 0
	}

	canonical := fmt.Sprintf("hw:%s|sw:%s|approval:%t",
		strings.Join(hardwareIDs, ","),
		strings.Join(softwareIDs, ","),
		requiresApproval,
	)

	return &packageSnapshot{
		HardwareIDs:      hardwareIDs,
		SoftwareIDs:      softwareIDs,
		RequiresApproval: requiresApproval,
		Digest:           utils.HashString(canonical),
	}, nil
}
