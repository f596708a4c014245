package access

import (
	"github.com/yukikurage/report-hub-api/internal/models"
)

// ReportLevel returns the effective level userID holds on report.
//
// grants must already be restricted to rows naming the user directly or one of the
// user's groups. The owner always resolves to Owner. With no matching grant, members
// of the report's organization get ambient Viewer access and everyone else gets none.
func ReportLevel(userID string, userOrgID *string, report *models.Report, grants []models.ReportPermission) (models.PermissionLevel, bool) {
	if report == nil || userID == "" {
		return "", false
	}
	if report.OwnerID == userID {
		return models.LevelOwner, true
	}

	levels := make([]models.PermissionLevel, 0, len(grants))
	for _, g := range grants {
		if g.ReportID == report.ID {
			levels = append(levels, g.Level)
		}
	}

	if level, ok := models.MaxLevel(levels...); ok {
		return level, true
	}

	if userOrgID != nil && *userOrgID == report.OrganizationID {
		return models.LevelViewer, true
	}
	return "", false
}

// DashboardAllowed reports whether p may use dashboard at the required level.
//
// The creator and Admins of the dashboard's organization always pass. Admins of
// other organizations get no bypass, unlike a global Admin check. Otherwise a grant for the user or one of their
// groups is needed; an empty required level accepts any grant, and a non-empty one
// is compared with at-least semantics, the same rule used for reports.
func DashboardAllowed(p Principal, dashboard *models.Dashboard, grants []models.DashboardPermission, required models.PermissionLevel) bool {
	if dashboard == nil || p.UserID == "" {
		return false
	}
	if dashboard.IsCreator(p.UserID) || (p.IsAdmin() && p.InOrganization(dashboard.OrganizationID)) {
		return true
	}

	levels := make([]models.PermissionLevel, 0, len(grants))
	for _, g := range grants {
		if g.DashboardID == dashboard.ID {
			levels = append(levels, g.Level)
		}
	}

	level, ok := models.MaxLevel(levels...)
	if !ok {
		return false
	}
	if required == "" {
		return true
	}
	return level.AtLeast(required)
}

// CanManagePermissions gates who may replace grants on a report
func CanManagePermissions(level models.PermissionLevel) bool {
	return level == models.LevelEditor || level == models.LevelOwner
}

// ReferencedReportIDs returns the distinct source reports of the visualizations,
// in first-seen order. Visualizations without a report id are skipped.
func ReferencedReportIDs(visualizations []models.Visualization) []string {
	seen := make(map[string]struct{}, len(visualizations))
	ids := make([]string, 0, len(visualizations))

	for i := range visualizations {
		id := visualizations[i].ReportID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
