package models

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	OrganizationID string    `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`

	// Relations
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = newID()
	}
	return nil
}

// GroupMember is the user <-> group junction row
type GroupMember struct {
	GroupID string `gorm:"type:varchar(36);primaryKey" json:"group_id"`
	UserID  string `gorm:"type:varchar(36);primaryKey;index" json:"user_id"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
