package models

import (
	"time"

	"gorm.io/gorm"
)

type Dashboard struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_dashboards_org_name" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	OrganizationID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_dashboards_org_name" json:"organization_id"`
	CreatedByID    *string   `gorm:"type:varchar(36);index" json:"created_by_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Visualizations []Visualization `gorm:"foreignKey:DashboardID" json:"visualizations,omitempty"`
}

func (d *Dashboard) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = newID()
	}
	return nil
}

// IsCreator reports whether userID created the dashboard
func (d *Dashboard) IsCreator(userID string) bool {
	return d.CreatedByID != nil && *d.CreatedByID == userID
}
