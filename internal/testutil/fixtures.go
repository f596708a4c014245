package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// Password is the plain-text password of every active fixture user
const Password = "password123"

// Fixtures creates rows directly through gorm, bypassing services
type Fixtures struct {
	t  testing.TB
	DB *gorm.DB

	passwordHash string
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	return &Fixtures{t: t, DB: db, passwordHash: string(hash)}
}

func (f *Fixtures) create(value interface{}) {
	f.t.Helper()
	require.NoError(f.t, f.DB.Create(value).Error)
}

func (f *Fixtures) Organization(name string) *models.Organization {
	org := &models.Organization{Name: name}
	f.create(org)
	return org
}

// User creates an active user. orgID may be nil for Superadmins.
func (f *Fixtures) User(email string, roleID uint, org *models.Organization) *models.User {
	user := &models.User{
		FullName:     email,
		Email:        email,
		PasswordHash: f.passwordHash,
		RoleID:       roleID,
	}
	if org != nil {
		user.OrganizationID = &org.ID
	}
	f.create(user)
	user.Role = models.Role{ID: roleID, Name: models.RoleNameFor(roleID)}
	return user
}

func (f *Fixtures) Superadmin(email string) *models.User {
	return f.User(email, models.RoleIDSuperadmin, nil)
}

func (f *Fixtures) Admin(email string, org *models.Organization) *models.User {
	return f.User(email, models.RoleIDAdmin, org)
}

func (f *Fixtures) Member(email string, org *models.Organization) *models.User {
	return f.User(email, models.RoleIDUser, org)
}

func (f *Fixtures) Group(org *models.Organization, name string, members ...*models.User) *models.Group {
	group := &models.Group{Name: name, OrganizationID: org.ID}
	f.create(group)
	for _, m := range members {
		f.create(&models.GroupMember{GroupID: group.ID, UserID: m.ID})
	}
	return group
}

func (f *Fixtures) Folder(org *models.Organization, name string) *models.Folder {
	folder := &models.Folder{Name: name, OrganizationID: org.ID}
	f.create(folder)
	return folder
}

// Report creates a CSV report owned by owner together with its Owner grant
func (f *Fixtures) Report(owner *models.User, title string) *models.Report {
	f.t.Helper()
	require.NotNil(f.t, owner.OrganizationID, "report owner needs an organization")

	report := &models.Report{
		Title:          title,
		Filename:       title + ".csv",
		OwnerID:        owner.ID,
		OrganizationID: *owner.OrganizationID,
	}
	f.create(report)
	report.FilePath = fmt.Sprintf("%s/%s_%s", report.OrganizationID, report.ID, report.Filename)
	require.NoError(f.t, f.DB.Model(report).Update("file_path", report.FilePath).Error)

	f.GrantUser(report, owner, models.LevelOwner)
	return report
}

func (f *Fixtures) GrantUser(report *models.Report, user *models.User, level models.PermissionLevel) *models.ReportPermission {
	perm := &models.ReportPermission{ReportID: report.ID, UserID: &user.ID, Level: level}
	f.create(perm)
	return perm
}

func (f *Fixtures) GrantGroup(report *models.Report, group *models.Group, level models.PermissionLevel) *models.ReportPermission {
	perm := &models.ReportPermission{ReportID: report.ID, GroupID: &group.ID, Level: level}
	f.create(perm)
	return perm
}

func (f *Fixtures) Dashboard(org *models.Organization, creator *models.User, name string) *models.Dashboard {
	dashboard := &models.Dashboard{
		Name:           name,
		Description:    "fixture",
		OrganizationID: org.ID,
	}
	if creator != nil {
		dashboard.CreatedByID = &creator.ID
	}
	f.create(dashboard)
	return dashboard
}

func (f *Fixtures) ShareDashboardWithUser(dashboard *models.Dashboard, user *models.User, level models.PermissionLevel) {
	f.create(&models.DashboardPermission{DashboardID: dashboard.ID, UserID: &user.ID, Level: level})
}

func (f *Fixtures) ShareDashboardWithGroup(dashboard *models.Dashboard, group *models.Group, level models.PermissionLevel) {
	f.create(&models.DashboardPermission{DashboardID: dashboard.ID, GroupID: &group.ID, Level: level})
}

// Visualization appends a bar chart over report to dashboard
func (f *Fixtures) Visualization(dashboard *models.Dashboard, report *models.Report, position int) *models.Visualization {
	viz := &models.Visualization{
		DashboardID: dashboard.ID,
		Title:       fmt.Sprintf("chart %d", position),
		Type:        models.ChartBar,
		Config: datatypes.NewJSONType(models.VisualizationConfig{
			ReportID: report.ID,
			X:        "region",
			Y:        "revenue",
			Filters:  map[string]models.Filter{},
		}),
		Position: position,
	}
	f.create(viz)
	return viz
}
