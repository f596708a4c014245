package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PermissionLevel is a closed, totally ordered set of access levels.
// The string form is only used at the JSON and database boundary.
type PermissionLevel string

const (
	LevelViewer    PermissionLevel = "Viewer"
	LevelCommenter PermissionLevel = "Commenter"
	LevelEditor    PermissionLevel = "Editor"
	LevelOwner     PermissionLevel = "Owner"
)

var ErrInvalidPermissionLevel = errors.New("invalid permission level")

// ErrInvalidPrincipal is returned when a grant names both or neither of user and group
var ErrInvalidPrincipal = errors.New("grant must target exactly one of user or group")

// Rank orders levels: Viewer 1 < Commenter 2 < Editor 3 < Owner 4. Unknown levels rank 0.
func (l PermissionLevel) Rank() int {
	switch l {
	case LevelViewer:
		return 1
	case LevelCommenter:
		return 2
	case LevelEditor:
		return 3
	case LevelOwner:
		return 4
	default:
		return 0
	}
}

func (l PermissionLevel) Valid() bool {
	return l.Rank() > 0
}

// AtLeast reports whether l grants everything required grants
func (l PermissionLevel) AtLeast(required PermissionLevel) bool {
	return l.Valid() && l.Rank() >= required.Rank()
}

// Grantable reports whether the level may be handed out when replacing report grants.
// Owner is reserved for the uploader.
func (l PermissionLevel) Grantable() bool {
	return l == LevelViewer || l == LevelCommenter || l == LevelEditor
}

// ValidForDashboard reports whether the level exists for dashboards
func (l PermissionLevel) ValidForDashboard() bool {
	return l == LevelViewer || l == LevelEditor
}

// ParsePermissionLevel accepts level names case-insensitively
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	for _, l := range []PermissionLevel{LevelViewer, LevelCommenter, LevelEditor, LevelOwner} {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPermissionLevel, s)
}

// MaxLevel returns the highest valid level, or false when none is valid
func MaxLevel(levels ...PermissionLevel) (PermissionLevel, bool) {
	var best PermissionLevel
	for _, l := range levels {
		if l.Rank() > best.Rank() {
			best = l
		}
	}
	return best, best.Valid()
}

// ReportPermission grants a level on a report to exactly one user or group
type ReportPermission struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReportID  string          `gorm:"type:varchar(36);not null;index" json:"report_id"`
	UserID    *string         `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	GroupID   *string         `gorm:"type:varchar(36);index" json:"group_id,omitempty"`
	Level     PermissionLevel `gorm:"type:varchar(20);not null" json:"level"`
	CreatedAt time.Time       `json:"created_at"`
}

func (p *ReportPermission) BeforeCreate(tx *gorm.DB) error {
	if err := validatePrincipal(p.UserID, p.GroupID); err != nil {
		return err
	}
	if !p.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPermissionLevel, p.Level)
	}
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

// DashboardPermission grants Viewer or Editor on a dashboard to exactly one user or group
type DashboardPermission struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	DashboardID string          `gorm:"type:varchar(36);not null;index" json:"dashboard_id"`
	UserID      *string         `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	GroupID     *string         `gorm:"type:varchar(36);index" json:"group_id,omitempty"`
	Level       PermissionLevel `gorm:"type:varchar(20);not null" json:"level"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p *DashboardPermission) BeforeCreate(tx *gorm.DB) error {
	if err := validatePrincipal(p.UserID, p.GroupID); err != nil {
		return err
	}
	if !p.Level.ValidForDashboard() {
		return fmt.Errorf("%w: %q", ErrInvalidPermissionLevel, p.Level)
	}
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func validatePrincipal(userID, groupID *string) error {
	hasUser := userID != nil && *userID != ""
	hasGroup := groupID != nil && *groupID != ""
	if hasUser == hasGroup {
		return ErrInvalidPrincipal
	}
	return nil
}
