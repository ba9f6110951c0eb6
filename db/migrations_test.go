package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMigrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDatabase(DBConfig{Path: MemoryPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, AutoMigrateAll(db))
	return db
}

func TestRunMigrations_AppliesInOrderUpToTarget(t *testing.T) {
	db := setupMigrationDB(t)

	var applied []string
	step := func(name string) Migration {
		return Migration{Name: name, Up: func(*gorm.DB) error {
			applied = append(applied, name)
			return nil
		}}
	}
	migrations := []Migration{step("0001_first"), step("0002_second"), step("0003_third")}
	for i := range migrations {
		migrations[i].ID = i + 1
	}

	require.NoError(t, runMigrations(db, migrations, 2))
	assert.Equal(t, []string{"0001_first", "0002_second"}, applied)

	require.NoError(t, runMigrations(db, migrations, 0))
	assert.Equal(t, []string{"0001_first", "0002_second", "0003_third"}, applied)

	var count int64
	require.NoError(t, db.Model(&MigrationModel{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestRunMigrations_FailureIsNotRecorded(t *testing.T) {
	db := setupMigrationDB(t)

	migrations := []Migration{{
		ID:   1,
		Name: "0001_broken",
		Up:   func(*gorm.DB) error { return errors.New("boom") },
	}}

	err := runMigrations(db, migrations, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply migration 0001_broken")

	applied, err := migrationApplied(db, "0001_broken")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestAutoMigrateAll_Idempotent(t *testing.T) {
	db := setupMigrationDB(t)
	require.NoError(t, AutoMigrateAll(db))

	var count int64
	require.NoError(t, db.Model(&MigrationModel{}).Count(&count).Error)
	assert.Equal(t, int64(len(allMigrations)), count)

	for _, model := range AllModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}
}
