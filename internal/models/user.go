package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	FullName             string     `gorm:"type:varchar(255);not null;default:''" json:"full_name"`
	Email                string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"type:varchar(255);not null;default:''" json:"-"`
	RoleID               uint       `gorm:"not null" json:"role_id"`
	OrganizationID       *string    `gorm:"type:varchar(36);index" json:"organization_id"`
	InviteToken          *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	InviteTokenExpiresAt *time.Time `json:"-"`
	ResetToken           *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	ResetTokenExpiresAt  *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Relations
	Role         Role          `gorm:"foreignKey:RoleID" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Memberships  []GroupMember `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}

func (u *User) RoleName() RoleName {
	return RoleNameFor(u.RoleID)
}

// IsPending reports whether the user was invited but never completed registration
func (u *User) IsPending() bool {
	return u.PasswordHash == ""
}

// InOrganization reports whether the user belongs to orgID
func (u *User) InOrganization(orgID string) bool {
	return u.OrganizationID != nil && *u.OrganizationID == orgID
}
