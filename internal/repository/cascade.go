package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/report-hub-api/internal/models"
)

// deleteReports removes reports with their grants and comments inside tx
func deleteReports(tx *gorm.DB, reportIDs []string) error {
	if len(reportIDs) == 0 {
		return nil
	}
	if err := tx.Where("report_id IN ?", reportIDs).Delete(&models.ReportPermission{}).Error; err != nil {
		return fmt.Errorf("%w: report grants: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("report_id IN ?", reportIDs).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("%w: comments: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("id IN ?", reportIDs).Delete(&models.Report{}).Error; err != nil {
		return fmt.Errorf("%w: reports: %w", ErrCascadeDelete, err)
	}
	return nil
}

// deleteDashboards removes dashboards with their visualizations and grants inside tx
func deleteDashboards(tx *gorm.DB, dashboardIDs []string) error {
	if len(dashboardIDs) == 0 {
		return nil
	}
	if err := tx.Where("dashboard_id IN ?", dashboardIDs).Delete(&models.Visualization{}).Error; err != nil {
		return fmt.Errorf("%w: visualizations: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("dashboard_id IN ?", dashboardIDs).Delete(&models.DashboardPermission{}).Error; err != nil {
		return fmt.Errorf("%w: dashboard grants: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("id IN ?", dashboardIDs).Delete(&models.Dashboard{}).Error; err != nil {
		return fmt.Errorf("%w: dashboards: %w", ErrCascadeDelete, err)
	}
	return nil
}

// deleteGroups removes groups with their memberships and grants inside tx
func deleteGroups(tx *gorm.DB, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}
	if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.GroupMember{}).Error; err != nil {
		return fmt.Errorf("%w: group members: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.ReportPermission{}).Error; err != nil {
		return fmt.Errorf("%w: report grants: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.DashboardPermission{}).Error; err != nil {
		return fmt.Errorf("%w: dashboard grants: %w", ErrCascadeDelete, err)
	}
	if err := tx.Where("id IN ?", groupIDs).Delete(&models.Group{}).Error; err != nil {
		return fmt.Errorf("%w: groups: %w", ErrCascadeDelete, err)
	}
	return nil
}

type reportBlob struct {
	ID       string
	FilePath string
}

func splitBlobs(rows []reportBlob) (ids, paths []string) {
	ids = make([]string, 0, len(rows))
	paths = make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		if r.FilePath != "" {
			paths = append(paths, r.FilePath)
		}
	}
	return ids, paths
}
