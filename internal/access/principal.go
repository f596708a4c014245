package access

import "github.com/yukikurage/report-hub-api/internal/models"

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID         string
	Role           models.RoleName
	OrganizationID *string
}

// PrincipalFromUser builds a Principal from a stored user
func PrincipalFromUser(u *models.User) Principal {
	return Principal{
		UserID:         u.ID,
		Role:           u.RoleName(),
		OrganizationID: u.OrganizationID,
	}
}

func (p Principal) IsSuperadmin() bool {
	return p.Role == models.RoleSuperadmin
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// InOrganization reports whether the principal belongs to orgID
func (p Principal) InOrganization(orgID string) bool {
	return p.OrganizationID != nil && *p.OrganizationID == orgID
}

// OrgID returns the organization id or the empty string
func (p Principal) OrgID() string {
	if p.OrganizationID == nil {
		return ""
	}
	return *p.OrganizationID
}
