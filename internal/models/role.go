package models

type RoleName string

const (
	RoleSuperadmin RoleName = "Superadmin"
	RoleAdmin      RoleName = "Admin"
	RoleUser       RoleName = "User"
)

// Role ids are fixed so they can be seeded idempotently.
const (
	RoleIDSuperadmin uint = 1
	RoleIDAdmin      uint = 2
	RoleIDUser       uint = 3
)

type Role struct {
	ID   uint     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name RoleName `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
}

func DefaultRoles() []Role {
	return []Role{
		{ID: RoleIDSuperadmin, Name: RoleSuperadmin},
		{ID: RoleIDAdmin, Name: RoleAdmin},
		{ID: RoleIDUser, Name: RoleUser},
	}
}

// RoleIDFor maps a role name onto its seeded id
func RoleIDFor(name RoleName) (uint, bool) {
	switch name {
	case RoleSuperadmin:
		return RoleIDSuperadmin, true
	case RoleAdmin:
		return RoleIDAdmin, true
	case RoleUser:
		return RoleIDUser, true
	default:
		return 0, false
	}
}

// RoleNameFor is the inverse of RoleIDFor. Unknown ids map to the empty role.
func RoleNameFor(id uint) RoleName {
	switch id {
	case RoleIDSuperadmin:
		return RoleSuperadmin
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDUser:
		return RoleUser
	default:
		return ""
	}
}
