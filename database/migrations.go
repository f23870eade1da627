package database

import (
	"fmt"
	"log"
	"time"

	"bugtrail/models"

	"gorm.io/gorm"
)

// schemaMigration is the persistent ledger of applied schema versions.
type schemaMigration struct {
	Version   int    `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string { return "schema_migrations" }

type migration struct {
	Version int
	Name    string
	Run     func(db *gorm.DB) error
}

// migrations is append-only. Steps are never renumbered or edited once
// deployed; each one is safe to re-apply (AutoMigrate and IF NOT EXISTS).
var migrations = []migration{
	{
		Version: 1,
		Name:    "create core tables",
		Run: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.User{},
				&models.Domain{},
				&models.Tag{},
				&models.DomainTag{},
			)
		},
	},
	{
		Version: 2,
		Name:    "create bug tables",
		Run: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.Bug{},
				&models.BugScreenshot{},
				&models.BugTag{},
				&models.BugTeamMember{},
			)
		},
	},
	{
		Version: 3,
		Name:    "create social graph tables",
		Run: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.UserFollow{},
				&models.UserBugUpvote{},
				&models.UserBugSave{},
				&models.UserBugFlag{},
			)
		},
	},
	{
		Version: 4,
		Name:    "add modified triggers",
		Run:     createModifiedTriggers,
	},
}

// createModifiedTriggers keeps the modified column correct at the database
// level, independent of which handler performs the write.
func createModifiedTriggers(db *gorm.DB) error {
	for _, table := range []string{"users", "domains", "bugs"} {
		stmt := fmt.Sprintf(`
			CREATE TRIGGER IF NOT EXISTS %[1]s_set_modified
			AFTER UPDATE ON %[1]s
			FOR EACH ROW
			BEGIN
				UPDATE %[1]s SET modified = CURRENT_TIMESTAMP WHERE id = NEW.id;
			END`, table)
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// RunMigrations applies all pending schema steps in version order, recording
// each in the schema_migrations ledger. A failing step aborts; there are no
// down migrations.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migration ledger: %w", err)
	}

	var applied []schemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to read migration ledger: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		log.Printf("Applying migration %d: %s", m.Version, m.Name)
		if err := m.Run(db); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		record := schemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	log.Println("Migrations completed successfully")
	return nil
}
