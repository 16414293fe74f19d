// internal/models/catalog.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// HardwareItem is an immutable catalog entry. A "change" to hardware is
// modeled as superseding: the old record stays valid for every promise that
// references it and SupersededByID points at its replacement. Following the
// pointer chain must always terminate.
type HardwareItem struct {
	BaseModel
	Model          string         `json:"model" gorm:"size:255;not null"`
	Manufacturer   string         `json:"manufacturer" gorm:"size:100;index"`
	Category       string         `json:"category" gorm:"size:100;index"`
	UnitCost       float64        `json:"unit_cost" gorm:"type:decimal(10,2);default:0"`
	SupersededByID *uuid.UUID     `json:"superseded_by_id" gorm:"type:uuid;index"`
	Status         CatalogStatus  `json:"status" gorm:"type:varchar(20);default:'active';index"`
	AttachmentURLs pq.StringArray `json:"attachment_urls" gorm:"type:text[]"`
	Specifications JSONB          `json:"specifications" gorm:"type:jsonb"`

	// Relationships
	SupersededBy *HardwareItem `json:"superseded_by,omitempty" gorm:"foreignKey:SupersededByID"`
}

// SoftwareItem is an immutable catalog entry referenced by id from packages
// and license pools.
type SoftwareItem struct {
	BaseModel
	Name             string        `json:"name" gorm:"size:255;not null"`
	Vendor           string        `json:"vendor" gorm:"size:100;index"`
	Cost             float64       `json:"cost" gorm:"type:decimal(10,2);not null"`
	CostFrequency    CostFrequency `json:"cost_frequency" gorm:"type:varchar(20);default:'monthly'"`
	RequiresApproval bool          `json:"requires_approval" gorm:"default:false"`
	Status           CatalogStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// LegacySeatCount is the deprecated per-software seat field. It is
	// migrated into a LicensePool once at startup and cleared; LicensePool
	// is the single source of truth afterwards.
	LegacySeatCount int `json:"-" gorm:"column:legacy_seat_count;default:0"`

	// Relationships
	Pools []LicensePool `json:"pools,omitempty" gorm:"foreignKey:SoftwareID"`
}

// CatalogItem is the tagged variant used wherever hardware and software
// appear in one list (resolved package contents, search results).
type CatalogItem struct {
	Kind     ItemKind      `json:"kind"`
	Hardware *HardwareItem `json:"hardware,omitempty"`
	Software *SoftwareItem `json:"software,omitempty"`
}
