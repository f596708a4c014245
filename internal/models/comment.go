package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is append-only; there is no update path.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReportID  string    `gorm:"type:varchar(36);not null;index" json:"report_id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}
