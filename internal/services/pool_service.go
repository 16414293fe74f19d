// internal/services/pool_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/database"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

// PoolService tracks finite license seats. Allocation past TotalSeats is
// recorded rather than rejected (over-commit happens in the real world and
// must stay visible until resolved), unless the hard-cap policy is enabled
// in config. Every seat mutation goes through the pool's LockVersion so
// concurrent writers surface as conflicts instead of drifting the count.
type PoolService struct {
	db             *gorm.DB
	enforceSeatCap bool
}

type CreatePoolRequest struct {
	SoftwareID uuid.UUID `json:"software_id" validate:"required"`
	TotalSeats int       `json:"total_seats" validate:"gte=0"`
}

type AllocateSeatRequest struct {
	SubjectID      uuid.UUID          `json:"subject_id" validate:"required"`
	SubjectType    models.SubjectType `json:"subject_type" validate:"required,oneof=prehire employee"`
	ExpirationDate *time.Time         `json:"expiration_date,omitempty"`
}

// ReclaimSeatsRequest selects seats to reclaim. Exactly one mode per call:
// an explicit subject list, or a sweep of expired assignments.
type ReclaimSeatsRequest struct {
	SubjectIDs     []uuid.UUID `json:"subject_ids,omitempty"`
	ReclaimExpired bool        `json:"reclaim_expired,omitempty"`
}

type PoolUtilization struct {
	PoolID        uuid.UUID `json:"pool_id"`
	TotalSeats    int       `json:"total_seats"`
	AssignedSeats int       `json:"assigned_seats"`
	Percent       float64   `json:"percent"`
	OverAllocated bool      `json:"over_allocated"`
}

func NewPoolService(db *gorm.DB, enforceSeatCap bool) *PoolService {
	return &PoolService{
		db:             db,
		enforceSeatCap: enforceSeatCap,
	}
}

func (s *PoolService) CreatePool(req *CreatePoolRequest) (*models.LicensePool, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("license_pool", err)
	}

	var software models.SoftwareItem
	if err := s.db.First(&software, req.SoftwareID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("software", req.SoftwareID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	pool := &models.LicensePool{
		SoftwareID: req.SoftwareID,
		TotalSeats: req.TotalSeats,
	}

	if err := s.db.Create(pool).Error; err != nil {
		return nil, fmt.Errorf("failed to create license pool: %w", err)
	}

	return pool, nil
}

func (s *PoolService) GetPool(id uuid.UUID) (*models.LicensePool, error) {
	var pool models.LicensePool
	if err := s.db.Preload("Software").First(&pool, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("license_pool", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &pool, nil
}

func (s *PoolService) ListPools(params utils.PaginationParams) ([]models.LicensePool, int64, error) {
	query := s.db.Model(&models.LicensePool{}).Preload("Software")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count license pools: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_seats", "assigned_seats"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var pools []models.LicensePool
	if err := query.Find(&pools).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch license pools: %w", err)
	}

	return pools, total, nil
}

// Allocate creates an active seat for the subject. A subject can hold at
// most one active seat per pool. Over-allocation is allowed by default and
// reported through utilization, not failed.
func (s *PoolService) Allocate(poolID uuid.UUID, req *AllocateSeatRequest) (*models.LicenseAssignment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.ValidationWrap("license_pool", err)
	}

	var assignment *models.LicenseAssignment
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var pool models.LicensePool
		if err := tx.First(&pool, poolID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("license_pool", poolID.String())
			}
			return fmt.Errorf("database error: %w", err)
		}

		var existing models.LicenseAssignment
		err := tx.Where("pool_id = ? AND subject_id = ? AND status = ?",
			poolID, req.SubjectID, models.LicenseStatusActive).
			First(&existing).Error
		if err == nil {
			return apperrors.DuplicateActiveAssignment("license_pool", poolID.String(),
				fmt.Sprintf("subject %s already holds an active seat", req.SubjectID))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		if s.enforceSeatCap && pool.AssignedSeats+1 > pool.TotalSeats {
			return apperrors.Validation("license_pool",
				fmt.Sprintf("pool %s has no free seats (%d of %d assigned) and the hard cap is enforced",
					poolID, pool.AssignedSeats, pool.TotalSeats))
		}

		assignment = &models.LicenseAssignment{
			PoolID:         poolID,
			SubjectID:      req.SubjectID,
			SubjectType:    req.SubjectType,
			AssignedDate:   time.Now(),
			ExpirationDate: req.ExpirationDate,
			Status:         models.LicenseStatusActive,
		}
		if err := tx.Create(assignment).Error; err != nil {
			return fmt.Errorf("failed to create license assignment: %w", err)
		}

		return s.bumpSeats(tx, &pool, pool.AssignedSeats+1)
	})
	if err != nil {
		return nil, err
	}

	return assignment, nil
}

// Reclaim revokes seats selected by exactly one mode and returns how many
// were reclaimed. AssignedSeats decreases by that count, floored at zero.
func (s *PoolService) Reclaim(poolID uuid.UUID, req *ReclaimSeatsRequest) (int, error) {
	hasSubjects := len(req.SubjectIDs) > 0
	if hasSubjects == req.ReclaimExpired {
		return 0, apperrors.Validation("license_pool",
			"reclaim takes either a subject list or reclaim_expired, not both and not neither")
	}

	reclaimed := 0
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var pool models.LicensePool
		if err := tx.First(&pool, poolID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("license_pool", poolID.String())
			}
			return fmt.Errorf("database error: %w", err)
		}

		query := tx.Where("pool_id = ? AND status = ?", poolID, models.LicenseStatusActive)
		if hasSubjects {
			query = query.Where("subject_id IN ?", req.SubjectIDs)
		} else {
			query = query.Where("expiration_date IS NOT NULL AND expiration_date < ?", time.Now())
		}

		var matches []models.LicenseAssignment
		if err := query.Find(&matches).Error; err != nil {
			return fmt.Errorf("failed to select assignments: %w", err)
		}
		if len(matches) == 0 {
			return nil
		}

		now := time.Now()
		ids := make([]uuid.UUID, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID)
		}

		if err := tx.Model(&models.LicenseAssignment{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     models.LicenseStatusRevoked,
				"revoked_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to revoke assignments: %w", err)
		}

		newAssigned := pool.AssignedSeats - len(matches)
		if newAssigned < 0 {
			newAssigned = 0
		}
		if err := s.bumpSeats(tx, &pool, newAssigned); err != nil {
			return err
		}

		reclaimed = len(matches)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return reclaimed, nil
}

func (s *PoolService) Utilization(poolID uuid.UUID) (*PoolUtilization, error) {
	pool, err := s.GetPool(poolID)
	if err != nil {
		return nil, err
	}

	percent := 0.0
	if pool.TotalSeats > 0 {
		percent = float64(pool.AssignedSeats) / float64(pool.TotalSeats) * 100
	}

	return &PoolUtilization{
		PoolID:        pool.ID,
		TotalSeats:    pool.TotalSeats,
		AssignedSeats: pool.AssignedSeats,
		Percent:       percent,
		OverAllocated: percent > 100,
	}, nil
}

func (s *PoolService) IsOverAllocated(poolID uuid.UUID) (bool, error) {
	utilization, err := s.Utilization(poolID)
	if err != nil {
		return false, err
	}
	return utilization.OverAllocated, nil
}

func (s *PoolService) GetPoolStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var poolStats struct {
		TotalPools         int64 `json:"total_pools"`
		TotalSeats         int64 `json:"total_seats"`
		AssignedSeats      int64 `json:"assigned_seats"`
		OverAllocatedPools int64 `json:"over_allocated_pools"`
		ActiveAssignments  int64 `json:"active_assignments"`
		ExpiredAssignments int64 `json:"expired_assignments"`
		RevokedAssignments int64 `json:"revoked_assignments"`
	}

	s.db.Model(&models.LicensePool{}).Count(&poolStats.TotalPools)
	s.db.Model(&models.LicensePool{}).Select("COALESCE(SUM(total_seats), 0)").Scan(&poolStats.TotalSeats)
	s.db.Model(&models.LicensePool{}).Select("COALESCE(SUM(assigned_seats), 0)").Scan(&poolStats.AssignedSeats)
	s.db.Model(&models.LicensePool{}).Where("assigned_seats > total_seats").Count(&poolStats.OverAllocatedPools)
	s.db.Model(&models.LicenseAssignment{}).Where("status = ?", models.LicenseStatusActive).Count(&poolStats.ActiveAssignments)
	s.db.Model(&models.LicenseAssignment{}).Where("status = ?", models.LicenseStatusExpired).Count(&poolStats.ExpiredAssignments)
	s.db.Model(&models.LicenseAssignment{}).Where("status = ?", models.LicenseStatusRevoked).Count(&poolStats.RevokedAssignments)

	stats["pool_stats"] = poolStats
	return stats, nil
}

// bumpSeats applies the optimistic write: the update only lands if nobody
// else touched the pool since it was read in this transaction.
func (s *PoolService) bumpSeats(tx *gorm.DB, pool *models.LicensePool, newAssigned int) error {
	result := tx.Model(&models.LicensePool{}).
		Where("id = ? AND lock_version = ?", pool.ID, pool.LockVersion).
		Updates(map[string]interface{}{
			"assigned_seats": newAssigned,
			"lock_version":   pool.LockVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update pool seats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("license_pool", pool.ID.String(),
			"pool was modified concurrently, re-fetch and retry")
	}
	return nil
}
