// internal/models/equipment_package.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EquipmentPackage is the mutable "current" definition of a role bundle.
// It is never assigned to anyone directly; assignments always pin a
// PackageVersion so later edits cannot rewrite a past promise.
type EquipmentPackage struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	RoleTargets pq.StringArray `json:"role_targets" gorm:"type:text[]"`
	HardwareIDs pq.StringArray `json:"hardware_ids" gorm:"type:text[]"`
	SoftwareIDs pq.StringArray `json:"software_ids" gorm:"type:text[]"`
	ApproverIDs pq.StringArray `json:"approver_ids" gorm:"type:text[]"`
	Status      PackageStatus  `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Versions []PackageVersion `json:"versions,omitempty" gorm:"foreignKey:PackageID"`
}

// PackageVersion is an append-only snapshot of a package's contents.
// VersionNumber is strictly increasing by 1 per package, starting at 1;
// the unique index doubles as the optimistic-concurrency guard for
// concurrent saves of the same package.
type PackageVersion struct {
	BaseModel
	PackageID        uuid.UUID      `json:"package_id" gorm:"type:uuid;not null;uniqueIndex:idx_package_version,priority:1"`
	VersionNumber    int            `json:"version_number" gorm:"not null;uniqueIndex:idx_package_version,priority:2"`
	HardwareIDs      pq.StringArray `json:"hardware_ids" gorm:"type:text[]"`
	SoftwareIDs      pq.StringArray `json:"software_ids" gorm:"type:text[]"`
	RequiresApproval bool           `json:"requires_approval" gorm:"default:false"`
	ContentDigest    string         `json:"content_digest" gorm:"size:64;not null;index"`
	CreatedDate      time.Time      `json:"created_date" gorm:"not null"`

	// Relationships
	Package EquipmentPackage `json:"package,omitempty" gorm:"foreignKey:PackageID"`
}

// PackageAssignment links a subject to one immutable PackageVersion. The
// version pin never changes after creation; unassignment is a status flip
// and the row stays forever as an audit record.
type PackageAssignment struct {
	BaseModel
	SubjectID        uuid.UUID        `json:"subject_id" gorm:"type:uuid;not null;index"`
	SubjectType      SubjectType      `json:"subject_type" gorm:"type:varchar(20);not null"`
	PackageVersionID uuid.UUID        `json:"package_version_id" gorm:"type:uuid;not null;index"`
	AssignedDate     time.Time        `json:"assigned_date" gorm:"not null"`
	AssignedBy       *uuid.UUID       `json:"assigned_by" gorm:"type:uuid"`
	Status           AssignmentStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	UnassignedAt     *time.Time       `json:"unassigned_at"`

	// Relationships
	PackageVersion PackageVersion `json:"package_version,omitempty" gorm:"foreignKey:PackageVersionID"`
}
