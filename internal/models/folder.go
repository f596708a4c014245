package models

import (
	"time"

	"gorm.io/gorm"
)

type Folder struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_folders_org_name" json:"name"`
	OrganizationID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_folders_org_name" json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = newID()
	}
	return nil
}
