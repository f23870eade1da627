package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"bugtrail/models"
)

func seededDB(t *testing.T) *gorm.DB {
	db := setupTestDB(t)
	assert.NoError(t, RunMigrations(db))
	assert.NoError(t, Seed(db))
	return db
}

func TestSeed_PopulatesFixtures(t *testing.T) {
	db := seededDB(t)

	counts := map[string]int64{
		"users":           3,
		"domains":         3,
		"tags":            4,
		"bugs":            5,
		"bug_screenshots": 3,
		"bug_tags":        4,
	}
	for table, want := range counts {
		var got int64
		db.Table(table).Count(&got)
		assert.Equal(t, want, got, "table %s", table)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := seededDB(t)

	var firstUsers []models.User
	db.Order("id ASC").Find(&firstUsers)

	assert.NoError(t, Seed(db))

	var secondUsers []models.User
	db.Order("id ASC").Find(&secondUsers)

	assert.Equal(t, len(firstUsers), len(secondUsers))
	for i := range firstUsers {
		assert.Equal(t, firstUsers[i].ID, secondUsers[i].ID)
		assert.Equal(t, firstUsers[i].Username, secondUsers[i].Username)
		assert.Equal(t, firstUsers[i].Password, secondUsers[i].Password)
	}

	var bugCount int64
	db.Table("bugs").Count(&bugCount)
	assert.Equal(t, int64(5), bugCount)

	// ids restart from 1 every run, not from where the last run stopped
	var maxID int
	db.Raw("SELECT MAX(id) FROM bugs").Scan(&maxID)
	assert.Equal(t, 5, maxID)
}

func TestSeed_RefusesProduction(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, RunMigrations(db))

	t.Setenv("ENV", "production")

	err := Seed(db)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "production")
}

func TestSeed_FixtureShape(t *testing.T) {
	db := seededDB(t)

	var closed []models.Bug
	db.Where("status = ? AND verified = ?", "closed", true).Find(&closed)
	assert.Equal(t, 1, len(closed))
	assert.Equal(t, 2, closed[0].ID)
	assert.Equal(t, 500, closed[0].Rewarded)
	assert.NotNil(t, closed[0].ClosedByID)
	assert.Equal(t, 1, *closed[0].ClosedByID)

	var cveBug models.Bug
	db.First(&cveBug, 5)
	assert.Equal(t, "CVE-2023-12345", cveBug.CVEID)
	assert.NotNil(t, cveBug.CVEScore)
	assert.Equal(t, 7.5, *cveBug.CVEScore)
	assert.Nil(t, cveBug.DomainID)
}
