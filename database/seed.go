package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"bugtrail/models"

	"gorm.io/gorm"
)

// seedPassword is a fixed bcrypt hash ("bugtrail-dev") so repeated seed runs
// produce byte-identical rows.
const seedPassword = "$2a$14$kXp7ZQbVYq0uTzFhW3mO4eC1sD9rN6aJ8fL2gH5iB0vE7yU4wSxPa"

// seededTables in reverse dependency order: children are wiped before their
// parents so foreign keys never block the reset.
var seededTables = []string{
	"user_bug_flags",
	"user_bug_saves",
	"user_bug_upvotes",
	"user_follows",
	"bug_team_members",
	"bug_tags",
	"bug_screenshots",
	"bugs",
	"domain_tags",
	"domains",
	"tags",
	"users",
}

// Seed wipes and repopulates the fixture dataset. It is safe to re-run: every
// run deletes all managed rows, resets the auto-increment counters and inserts
// the same fixtures with the same primary keys.
func Seed(db *gorm.DB) error {
	if os.Getenv("ENV") == "production" {
		return fmt.Errorf("refusing to seed a production database")
	}

	log.Println("Seeding fixture data...")

	for _, table := range seededTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := resetSequences(db); err != nil {
		return err
	}

	t := func(h int) time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(h) * time.Hour)
	}
	ptr := func(n int) *int { return &n }

	users := []models.User{
		{ID: 1, Username: "alice", Email: "alice@example.com", Password: seedPassword, Title: 3, Winnings: 250, TotalScore: 120, IsActive: true, IsStaff: true, EmailVerified: true, Created: t(0), Modified: t(0)},
		{ID: 2, Username: "bob", Email: "bob@example.com", Password: seedPassword, Title: 2, Winnings: 50, TotalScore: 45, IsActive: true, EmailVerified: true, Created: t(0), Modified: t(0)},
		{ID: 3, Username: "carol", Email: "carol@example.com", Password: seedPassword, Title: 1, IsActive: true, Created: t(0), Modified: t(0)},
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	secTxtChecked := t(1)
	domains := []models.Domain{
		{ID: 1, Name: "example.com", URL: "https://example.com", Email: "security@example.com", IsActive: true, HasSecurityTxt: true, SecurityTxtCheckedAt: &secTxtChecked, UserID: ptr(1), Created: t(1), Modified: t(1)},
		{ID: 2, Name: "testsite.org", URL: "https://testsite.org", Twitter: "@testsite", IsActive: true, UserID: ptr(2), Created: t(1), Modified: t(1)},
		{ID: 3, Name: "acme.io", URL: "https://acme.io", Github: "acme", IsActive: false, Created: t(1), Modified: t(1)},
	}
	if err := db.Create(&domains).Error; err != nil {
		return fmt.Errorf("failed to seed domains: %w", err)
	}

	tags := []models.Tag{
		{ID: 1, Name: "xss", Created: t(2)},
		{ID: 2, Name: "sqli", Created: t(2)},
		{ID: 3, Name: "csrf", Created: t(2)},
		{ID: 4, Name: "open-redirect", Created: t(2)},
	}
	if err := db.Create(&tags).Error; err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}

	closedDate := t(7)
	cveScore := 7.5
	bugs := []models.Bug{
		{ID: 1, URL: "https://example.com/login", Description: "Reflected XSS on the login error page", MarkdownDescription: "## Steps\n1. Open `/login?next=<script>`\n2. Observe the alert", Status: "open", Views: 42, DomainID: ptr(1), UserID: ptr(2), Created: t(3), Modified: t(3)},
		{ID: 2, URL: "https://example.com/search", Description: "SQL injection in the search filter", Status: "closed", Verified: true, Score: ptr(90), Rewarded: 500, DomainID: ptr(1), UserID: ptr(2), ClosedByID: ptr(1), ClosedDate: &closedDate, Created: t(4), Modified: t(4)},
		{ID: 3, URL: "https://testsite.org/profile", Description: "Stored XSS in the profile bio", Status: "open", Verified: true, Score: ptr(60), DomainID: ptr(2), UserID: ptr(3), Created: t(5), Modified: t(5)},
		{ID: 4, URL: "https://testsite.org/reset", Description: "Password reset token not invalidated", Status: "closed", DomainID: ptr(2), UserID: ptr(3), ClosedByID: ptr(1), ClosedDate: &closedDate, Created: t(6), Modified: t(6)},
		{ID: 5, URL: "https://acme.io/api/export", Description: "Known CVE in the export library", Status: "open", CVEID: "CVE-2023-12345", CVEScore: &cveScore, UserID: ptr(2), Created: t(7), Modified: t(7)},
	}
	if err := db.Create(&bugs).Error; err != nil {
		return fmt.Errorf("failed to seed bugs: %w", err)
	}

	screenshots := []models.BugScreenshot{
		{ID: 1, BugID: 1, Image: "https://cdn.example.com/s/bug1-a.png", Created: t(3)},
		{ID: 2, BugID: 1, Image: "https://cdn.example.com/s/bug1-b.png", Created: t(3)},
		{ID: 3, BugID: 2, Image: "https://cdn.example.com/s/bug2-a.png", Created: t(4)},
	}
	if err := db.Create(&screenshots).Error; err != nil {
		return fmt.Errorf("failed to seed bug screenshots: %w", err)
	}

	bugTags := []models.BugTag{
		{ID: 1, BugID: 1, TagID: 1},
		{ID: 2, BugID: 1, TagID: 3},
		{ID: 3, BugID: 2, TagID: 2},
		{ID: 4, BugID: 3, TagID: 1},
	}
	if err := db.Create(&bugTags).Error; err != nil {
		return fmt.Errorf("failed to seed bug tags: %w", err)
	}

	domainTags := []models.DomainTag{
		{ID: 1, DomainID: 1, TagID: 1},
		{ID: 2, DomainID: 2, TagID: 2},
	}
	if err := db.Create(&domainTags).Error; err != nil {
		return fmt.Errorf("failed to seed domain tags: %w", err)
	}

	teamMembers := []models.BugTeamMember{
		{ID: 1, BugID: 1, UserID: 1},
		{ID: 2, BugID: 1, UserID: 2},
	}
	if err := db.Create(&teamMembers).Error; err != nil {
		return fmt.Errorf("failed to seed bug team members: %w", err)
	}

	follows := []models.UserFollow{
		{ID: 1, FollowerID: 2, FollowingID: 1, Created: t(8)},
		{ID: 2, FollowerID: 3, FollowingID: 1, Created: t(8)},
	}
	if err := db.Create(&follows).Error; err != nil {
		return fmt.Errorf("failed to seed user follows: %w", err)
	}

	upvotes := []models.UserBugUpvote{
		{ID: 1, UserID: 1, BugID: 1, Created: t(9)},
		{ID: 2, UserID: 3, BugID: 1, Created: t(9)},
	}
	if err := db.Create(&upvotes).Error; err != nil {
		return fmt.Errorf("failed to seed bug upvotes: %w", err)
	}

	saves := []models.UserBugSave{
		{ID: 1, UserID: 2, BugID: 2, Created: t(9)},
	}
	if err := db.Create(&saves).Error; err != nil {
		return fmt.Errorf("failed to seed bug saves: %w", err)
	}

	flags := []models.UserBugFlag{
		{ID: 1, UserID: 3, BugID: 4, Reason: "possible duplicate of an earlier report", Created: t(9)},
	}
	if err := db.Create(&flags).Error; err != nil {
		return fmt.Errorf("failed to seed bug flags: %w", err)
	}

	log.Println("Seed completed")
	return nil
}

// resetSequences clears the sqlite auto-increment counters for every managed
// table so re-running the seed assigns the same primary keys.
func resetSequences(db *gorm.DB) error {
	var hasSequenceTable int64
	err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").
		Scan(&hasSequenceTable).Error
	if err != nil {
		return fmt.Errorf("failed to inspect sqlite_sequence: %w", err)
	}
	if hasSequenceTable == 0 {
		return nil
	}
	for _, table := range seededTables {
		if err := db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table).Error; err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}
