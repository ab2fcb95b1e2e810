package models

import "github.com/google/uuid"

// Monitor is a recurring scan on a cron schedule.
type Monitor struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	Name           string    `gorm:"not null" json:"name"`
	CronExpr       string    `gorm:"not null" json:"cron_expr"`
	ScanType       ScanType  `gorm:"not null" json:"scan_type"`
	IsEnabled      bool      `gorm:"default:true" json:"is_enabled"`

	LastRunAt int64 `json:"last_run_at,omitempty"`
	NextRunAt int64 `gorm:"index" json:"next_run_at"`
	RunCount  int   `gorm:"default:0" json:"run_count"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Project      *Project      `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Monitor) TableName() string {
	return "monitors"
}
