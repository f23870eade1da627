package common

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RequiredTables are the tables that must exist before any query is served.
var RequiredTables = []string{"users", "domains", "bugs", "tags"}

func ConnectDb() *gorm.DB {
	dbFile := os.Getenv("sqlite_db")
	log.Println("attemptConnectDb: sqlite_db from env (raw):", dbFile)
	if dbFile == "" {
		log.Println("sqlite_db not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(WithForeignKeys(dbFile)), &gorm.Config{})
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", dbFile)
	return db
}

// WithForeignKeys appends the DSN parameter that turns on foreign key
// enforcement for every pooled connection. SQLite ships with it off.
func WithForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// CheckInitialized verifies the schema has been migrated. It returns an error
// naming the missing tables so operators know to run migrations first.
func CheckInitialized(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}

	var existing []string
	err := db.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?, ?, ?, ?)",
		RequiredTables[0], RequiredTables[1], RequiredTables[2], RequiredTables[3],
	).Scan(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to check database initialization: %w", err)
	}

	var missing []string
	for _, table := range RequiredTables {
		found := false
		for _, name := range existing {
			if name == table {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("database is not initialized, missing tables: %s (run migrations first)", strings.Join(missing, ", "))
	}
	return nil
}
