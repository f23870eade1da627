package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bugtrail/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		t.Fatal("failed to connect database:", err)
	}
	// a second pooled connection to :memory: would be a fresh empty database
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestRunMigrations_RecordsLedger(t *testing.T) {
	db := setupTestDB(t)

	err := RunMigrations(db)
	assert.NoError(t, err)

	var applied []schemaMigration
	db.Order("version ASC").Find(&applied)

	assert.Equal(t, len(migrations), len(applied))
	for i, m := range migrations {
		assert.Equal(t, m.Version, applied[i].Version)
		assert.Equal(t, m.Name, applied[i].Name)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, RunMigrations(db))
	assert.NoError(t, RunMigrations(db))

	var count int64
	db.Model(&schemaMigration{}).Count(&count)
	assert.Equal(t, int64(len(migrations)), count)
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, RunMigrations(db))

	for _, table := range []string{"users", "domains", "bugs", "tags", "bug_tags", "user_follows"} {
		var exists int64
		db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&exists)
		assert.Equal(t, int64(1), exists, "expected table %s", table)
	}
}

func TestModifiedTrigger(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, RunMigrations(db))

	old := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	user := models.User{Username: "alice", Email: "alice@example.com", Password: "x", IsActive: true, Created: old, Modified: old}
	assert.NoError(t, db.Create(&user).Error)

	err := db.Exec("UPDATE users SET total_score = 10 WHERE id = ?", user.ID).Error
	assert.NoError(t, err)

	var modified string
	db.Raw("SELECT modified FROM users WHERE id = ?", user.ID).Scan(&modified)
	assert.NotEqual(t, "2024-03-01 12:00:00+00:00", modified)
	assert.NotContains(t, modified, "2024-03-01")
}

func TestForeignKeysEnforced(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, RunMigrations(db))

	// bug_tags requires both sides to exist
	err := db.Create(&models.BugTag{BugID: 999, TagID: 999}).Error
	assert.Error(t, err)
}
