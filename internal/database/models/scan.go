package models

import "github.com/google/uuid"

type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
	ScanStatusCancelled ScanStatus = "cancelled"
)

// ScanType is the canonical internal name of a scan category. The API layer
// accepts lowercase tokens (seo, accessibility, ssl, ...) and translates them
// through the results package.
type ScanType string

const (
	ScanTypeSEO           ScanType = "SEO"
	ScanTypeAccessibility ScanType = "Accessibility"
	ScanTypeSecurity      ScanType = "Security"
	ScanTypeSSLTLS        ScanType = "SSLTLS"
	ScanTypePerformance   ScanType = "Performance"
	ScanTypeUptime        ScanType = "Uptime"
)

type Scan struct {
	Base
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	ProjectID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`
	Type           ScanType   `gorm:"not null" json:"type"`
	Status         ScanStatus `gorm:"not null;index;default:'pending'" json:"status"`

	// Execution
	StartedAt   int64  `json:"started_at,omitempty"`
	CompletedAt int64  `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`

	// Stats
	ResultsCount int `gorm:"default:0" json:"results_count"`
	PagesChecked int `gorm:"default:0" json:"pages_checked"`

	// Asynq task ID for tracking
	TaskID string `gorm:"index" json:"task_id,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Project      *Project      `gorm:"foreignKey:ProjectID" json:"-"`
	Results      []ScanResult  `gorm:"foreignKey:ScanID" json:"-"`
}

func (Scan) TableName() string {
	return "scans"
}
