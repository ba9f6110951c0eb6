package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Migration represents a single database migration
type Migration struct {
	ID   int
	Name string
	Up   func(*gorm.DB) error
}

// allMigrations is the ordered list of manual migrations. The first schema is
// created by AutoMigrate, so schema changes that AutoMigrate cannot express are
// appended here with the next ID.
var allMigrations = []Migration{}

// AllModels returns all the models that need to be migrated
func AllModels() []any {
	return []any{
		&MigrationModel{},
		&UserModel{},
		&ProjectModel{},
		&CodeGenerationModel{},
		&DeploymentModel{},
		&AuditLogModel{},
	}
}

// AutoMigrateAll runs manual migrations followed by auto-migration for all models
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationModel{}); err != nil {
		return err
	}

	if err := runMigrations(db, allMigrations, 0); err != nil {
		return err
	}

	return db.AutoMigrate(AllModels()...)
}

// runMigrations runs the migrations up to and including the specified ID.
// If targetID is 0 or negative, all migrations are run.
func runMigrations(db *gorm.DB, migrations []Migration, targetID int) error {
	if targetID <= 0 {
		targetID = len(migrations)
	}

	for _, migration := range migrations {
		if migration.ID > targetID {
			break
		}

		applied, err := migrationApplied(db, migration.Name)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration.Name, err)
		}
		if applied {
			continue
		}

		if err := migration.Up(db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Name, err)
		}

		if err := recordMigration(db, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
		}
	}

	return nil
}

func migrationApplied(db *gorm.DB, name string) (bool, error) {
	var count int64
	err := db.Model(&MigrationModel{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *gorm.DB, name string) error {
	return db.Create(&MigrationModel{Name: name, AppliedAt: time.Now()}).Error
}
