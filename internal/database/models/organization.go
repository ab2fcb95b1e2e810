package models

type Organization struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Plan        string `gorm:"default:'free'" json:"plan"` // free, pro, enterprise
	MaxUsers    int    `gorm:"default:5" json:"max_users"`
	MaxProjects int    `gorm:"default:10" json:"max_projects"`
	MaxScansDay int    `gorm:"default:20" json:"max_scans_day"`

	// Relationships
	Users    []User    `gorm:"foreignKey:OrganizationID" json:"-"`
	Projects []Project `gorm:"foreignKey:OrganizationID" json:"-"`
	Scans    []Scan    `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
