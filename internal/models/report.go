package models

import (
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Report struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title"`
	Filename       string    `gorm:"type:varchar(255);not null" json:"filename"`
	FilePath       string    `gorm:"type:varchar(1024);not null" json:"-"`
	OwnerID        string    `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	OrganizationID string    `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	FolderID       *string   `gorm:"type:varchar(36);index" json:"folder_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Owner  User    `gorm:"foreignKey:OwnerID" json:"-"`
	Folder *Folder `gorm:"foreignKey:FolderID" json:"-"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}

// Extension returns the lower-cased file extension without the dot
func (r *Report) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(r.Filename)), ".")
}

// IsTabular reports whether the file can back a visualization
func (r *Report) IsTabular() bool {
	return r.Extension() == "csv"
}

// AllowedReportExtensions are the upload types accepted for reports
var AllowedReportExtensions = map[string]bool{
	"pdf":  true,
	"csv":  true,
	"xlsx": true,
	"pptx": true,
}
