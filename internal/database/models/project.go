package models

import "github.com/google/uuid"

// Project is a customer site under test. Scans always run against the
// project's base URL.
type Project struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	URL            string    `gorm:"not null" json:"url"`
	Description    string    `json:"description,omitempty"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Scans        []Scan        `gorm:"foreignKey:ProjectID" json:"-"`
	Monitors     []Monitor     `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}
