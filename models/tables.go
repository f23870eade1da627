package models

import "time"

type User struct {
	ID                     int       `gorm:"primary_key;autoIncrement" json:"id"`
	Username               string    `gorm:"type:varchar(150);unique;not null" json:"username"`
	Email                  string    `gorm:"unique;not null" json:"email"`
	Password               string    `gorm:"type:varchar(128);not null" json:"-"` // json:"-" prevents password from being exposed in API
	Title                  int       `gorm:"default:1;check:title >= 1 AND title <= 5" json:"title"`
	Winnings               float64   `gorm:"default:0;check:winnings >= 0" json:"winnings"`
	TotalScore             int       `gorm:"default:0;check:total_score >= 0" json:"total_score"`
	IsActive               bool      `gorm:"default:true" json:"is_active"`
	IsStaff                bool      `gorm:"default:false" json:"is_staff"`
	IsSuperuser            bool      `gorm:"default:false" json:"is_superuser"`
	EmailVerified          bool      `gorm:"default:false" json:"email_verified"`
	EmailVerificationToken string    `json:"-"`
	Created                time.Time `gorm:"column:created;autoCreateTime" json:"created"`
	Modified               time.Time `gorm:"column:modified;autoCreateTime" json:"modified"` // kept current by a database trigger
}

type Domain struct {
	ID                   int        `gorm:"primary_key;autoIncrement" json:"id"`
	Name                 string     `gorm:"not null;index" json:"name"`
	URL                  string     `gorm:"not null" json:"url"`
	Logo                 string     `json:"logo"`
	Email                string     `json:"email"`
	Twitter              string     `json:"twitter"`
	Github               string     `json:"github"`
	IsActive             bool       `gorm:"default:true" json:"is_active"`
	HasSecurityTxt       bool       `gorm:"default:false" json:"has_security_txt"`
	SecurityTxtCheckedAt *time.Time `json:"security_txt_checked_at"`
	UserID               *int       `gorm:"index" json:"user_id"`
	User                 *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	Created              time.Time  `gorm:"column:created;autoCreateTime" json:"created"`
	Modified             time.Time  `gorm:"column:modified;autoCreateTime" json:"modified"`
}

type Bug struct {
	ID                  int        `gorm:"primary_key;autoIncrement" json:"id"`
	URL                 string     `gorm:"type:varchar(200);not null" json:"url"`
	Description         string     `gorm:"type:text;not null" json:"description"`
	MarkdownDescription string     `gorm:"type:text" json:"markdown_description"`
	Label               string     `json:"label"`
	Views               int        `gorm:"default:0" json:"views"`
	Verified            bool       `gorm:"default:false;index" json:"verified"`
	Score               *int       `json:"score"`
	Status              string     `gorm:"type:varchar(50);default:'open';index" json:"status"`
	UserAgent           string     `json:"user_agent"`
	OCR                 string     `gorm:"column:ocr" json:"ocr"`
	Screenshot          string     `json:"screenshot"`
	ClosedDate          *time.Time `json:"closed_date"`
	GithubURL           string     `json:"github_url"`
	IsHidden            bool       `gorm:"default:false" json:"is_hidden"`
	Rewarded            int        `gorm:"default:0" json:"rewarded"`
	ReporterIPAddress   string     `gorm:"column:reporter_ip_address" json:"reporter_ip_address"`
	CVEID               string     `gorm:"column:cve_id" json:"cve_id"`
	CVEScore            *float64   `gorm:"column:cve_score" json:"cve_score"`
	DomainID            *int       `gorm:"index" json:"domain_id"`
	Domain              *Domain    `gorm:"foreignKey:DomainID;constraint:OnDelete:SET NULL" json:"-"`
	UserID              *int       `gorm:"index" json:"user_id"`
	User                *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	ClosedByID          *int       `json:"closed_by_id"`
	ClosedBy            *User      `gorm:"foreignKey:ClosedByID;constraint:OnDelete:SET NULL" json:"-"`
	Created             time.Time  `gorm:"column:created;autoCreateTime;index" json:"created"`
	Modified            time.Time  `gorm:"column:modified;autoCreateTime" json:"modified"`
}

type Tag struct {
	ID      int       `gorm:"primary_key;autoIncrement" json:"id"`
	Name    string    `gorm:"unique;not null" json:"name"`
	Created time.Time `gorm:"column:created;autoCreateTime" json:"created"`
}

type DomainTag struct {
	ID       int    `gorm:"primary_key;autoIncrement" json:"id"`
	DomainID int    `gorm:"not null;uniqueIndex:idx_domain_tag" json:"domain_id"`
	Domain   Domain `gorm:"foreignKey:DomainID;constraint:OnDelete:CASCADE" json:"-"`
	TagID    int    `gorm:"not null;uniqueIndex:idx_domain_tag" json:"tag_id"`
	Tag      Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

type BugScreenshot struct {
	ID      int       `gorm:"primary_key;autoIncrement" json:"id"`
	BugID   int       `gorm:"not null;index" json:"bug_id"`
	Bug     Bug       `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"-"`
	Image   string    `gorm:"not null" json:"image"`
	Created time.Time `gorm:"column:created;autoCreateTime" json:"created"`
}

type BugTag struct {
	ID    int `gorm:"primary_key;autoIncrement" json:"id"`
	BugID int `gorm:"not null;uniqueIndex:idx_bug_tag" json:"bug_id"`
	Bug   Bug `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"-"`
	TagID int `gorm:"not null;uniqueIndex:idx_bug_tag" json:"tag_id"`
	Tag   Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

type BugTeamMember struct {
	ID     int  `gorm:"primary_key;autoIncrement" json:"id"`
	BugID  int  `gorm:"not null;uniqueIndex:idx_bug_team_member" json:"bug_id"`
	Bug    Bug  `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"-"`
	UserID int  `gorm:"not null;uniqueIndex:idx_bug_team_member" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserFollow is the follower/following social graph. Self-follows are rejected
// by a check constraint in addition to handler validation.
type UserFollow struct {
	ID          int       `gorm:"primary_key;autoIncrement;check:chk_no_self_follow,follower_id <> following_id" json:"id"`
	FollowerID  int       `gorm:"not null;uniqueIndex:idx_user_follow" json:"follower_id"`
	Follower    User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowingID int       `gorm:"not null;uniqueIndex:idx_user_follow" json:"following_id"`
	Following   User      `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	Created     time.Time `gorm:"column:created;autoCreateTime" json:"created"`
}

type UserBugUpvote struct {
	ID      int       `gorm:"primary_key;autoIncrement" json:"id"`
	UserID  int       `gorm:"not null;uniqueIndex:idx_user_bug_upvote" json:"user_id"`
	User    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BugID   int       `gorm:"not null;uniqueIndex:idx_user_bug_upvote" json:"bug_id"`
	Bug     Bug       `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"-"`
	Created time.Time `gorm:"column:created;autoCreateTime" json:"created"`
}

type UserBugSave struct {
	ID      int       `gorm:"primary_key;autoIncrement" json:"id"`
	UserID  int       `gorm:"not null;uniqueIndex:idx_user_bug_save" json:"user_id"`
	User    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BugID   int       `gorm:"not null;uniqueIndex:idx_user_bug_save" json:"bug_id"`
	Bug     Bug       `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"-"`
	Created time.Time `gorm:"column:created;autoCreateTime" json:"created"`
}

type UserBugFlag struct {
	ID      int       `gorm:"primary_key;autoIncrement" json:"id"`
	UserID  int       `gorm:"not null;uniqueIndex:idx_user_bug_flag" json:"user_id"`
	User    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BugID   int       `gorm:"not null;uniqueIndex:idx_user_bug_flag" json:"bug_id"`
	Bug     Bug       `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"-"`
	Reason  string    `gorm:"type:text" json:"reason"`
	Created time.Time `gorm:"column:created;autoCreateTime" json:"created"`
}
