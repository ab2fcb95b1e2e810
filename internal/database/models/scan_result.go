package models

import "github.com/google/uuid"

// Severity is the internal canonical urgency of a finding. Clients speak a
// different lowercase vocabulary (critical, serious, moderate, minor, info);
// the results package translates between the two.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Info"
)

// ScanResult is one finding produced by one automated scan. Rows are written
// by the worker pipeline and never mutated afterwards except for the
// is_resolved toggle.
type ScanResult struct {
	Base
	ScanID uuid.UUID `gorm:"type:uuid;index;not null" json:"scan_id"`

	URL     string `gorm:"not null" json:"url"`
	Message string `gorm:"not null" json:"message"`
	Help    string `gorm:"type:text" json:"help,omitempty"`

	// DOM locators, when the finding points at a specific element
	Element     string `gorm:"type:text" json:"element,omitempty"`
	ElementPath string `gorm:"type:text" json:"element_path,omitempty"`

	Severity Severity `gorm:"not null;index" json:"severity"`
	Impact   string   `json:"impact,omitempty"`

	// Compliance/category tags, e.g. WCAG success criteria
	Tags StringArray `gorm:"type:text" json:"tags,omitempty"`

	ScanType ScanType `gorm:"not null;index" json:"scan_type"`
	Category string   `gorm:"index" json:"category,omitempty"` // headers, tls, csp, xss, ...

	IsResolved bool `gorm:"not null;index;default:false" json:"is_resolved"`

	// Opaque structured payload, passed through unmodified
	Details string `gorm:"type:text;default:'{}'" json:"details,omitempty"`

	// Relationships
	Scan *Scan `gorm:"foreignKey:ScanID" json:"-"`
}

func (ScanResult) TableName() string {
	return "scan_results"
}
