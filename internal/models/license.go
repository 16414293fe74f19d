// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// LicensePool tracks the seat inventory for one software product.
// AssignedSeats always equals the count of active assignments; going over
// TotalSeats is a recorded warning state, not a hard failure. LockVersion
// is bumped on every seat mutation so concurrent writers detect each other.
type LicensePool struct {
	BaseModel
	SoftwareID    uuid.UUID `json:"software_id" gorm:"type:uuid;not null;index"`
	TotalSeats    int       `json:"total_seats" gorm:"not null;default:0"`
	AssignedSeats int       `json:"assigned_seats" gorm:"not null;default:0"`
	LockVersion   int64     `json:"-" gorm:"not null;default:0"`

	// Relationships
	Software    SoftwareItem        `json:"software,omitempty" gorm:"foreignKey:SoftwareID"`
	Assignments []LicenseAssignment `json:"assignments,omitempty" gorm:"foreignKey:PoolID"`
}

// LicenseAssignment is one seat bound to a subject. Rows are append-only;
// reclamation flips Status to revoked, nothing is deleted.
type LicenseAssignment struct {
	BaseModel
	PoolID         uuid.UUID     `json:"pool_id" gorm:"type:uuid;not null;index"`
	SubjectID      uuid.UUID     `json:"subject_id" gorm:"type:uuid;not null;index"`
	SubjectType    SubjectType   `json:"subject_type" gorm:"type:varchar(20);not null"`
	AssignedDate   time.Time     `json:"assigned_date" gorm:"not null"`
	ExpirationDate *time.Time    `json:"expiration_date"`
	Status         LicenseStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	RevokedAt      *time.Time    `json:"revoked_at"`

	// Relationships
	Pool LicensePool `json:"pool,omitempty" gorm:"foreignKey:PoolID"`
}
