package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/report-hub-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates every table and seeds the fixed roles
func Migrate(db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("Running database migrations")

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db, log); err != nil {
		return err
	}
	if err := SeedRoles(db); err != nil {
		return err
	}

	log.Info().Msg("Database migrations completed")
	return nil
}

// SeedRoles inserts Superadmin, Admin and User if they are missing
func SeedRoles(db *gorm.DB) error {
	roles := models.DefaultRoles()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	return nil
}

// AddIndexes adds composite indexes used by permission resolution
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"report_permissions", "idx_report_permissions_report_user", "report_id, user_id"},
		{"report_permissions", "idx_report_permissions_report_group", "report_id, group_id"},
		{"dashboard_permissions", "idx_dashboard_permissions_dashboard_user", "dashboard_id, user_id"},
		{"dashboard_permissions", "idx_dashboard_permissions_dashboard_group", "dashboard_id, group_id"},
		{"visualizations", "idx_visualizations_dashboard_position", "dashboard_id, position"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Debug().Str("index", idx.name).Str("table", idx.table).Msg("Created index")
	}

	return nil
}
