package bugs

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"bugtrail/common"
	"bugtrail/models"
)

type BugsModule struct {
	db *gorm.DB
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

// listColumns is the column set for list and search responses, joined with
// the owning domain's name and url.
const listColumns = `bugs.id, bugs.url, bugs.description, bugs.status, bugs.verified,
	bugs.score, bugs.views, bugs.created, bugs.modified, bugs.is_hidden, bugs.rewarded,
	bugs.cve_id, bugs.cve_score, bugs.domain_id, domains.name AS domain_name, domains.url AS domain_url`

func NewBugsModule(db *gorm.DB) *BugsModule {
	return &BugsModule{db: db}
}

func (b *BugsModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/bugs")
	{
		group.GET("", b.list)
		group.GET("/search", b.search)
		group.GET("/:id", b.get)
		group.POST("", b.create)
		group.POST("/:id/upvote", b.upvote)
		group.POST("/:id/save", b.save)
		group.POST("/:id/flag", b.flag)
		group.POST("/:id/team", b.addTeamMember)
	}
}

// filtered applies the recognized filter parameters as ANDed predicates.
// Absent parameters contribute nothing; unrecognized values are ignored.
func (b *BugsModule) filtered(c *gin.Context) *gorm.DB {
	q := b.db.Table("bugs")

	if status := c.Query("status"); status != "" {
		q = q.Where("bugs.status = ?", status)
	}
	if domain := c.Query("domain"); domain != "" {
		if id, err := strconv.Atoi(domain); err == nil {
			q = q.Where("bugs.domain_id = ?", id)
		}
	}
	if verified := c.Query("verified"); verified != "" {
		switch strings.ToLower(verified) {
		case "true":
			q = q.Where("bugs.verified = ?", 1)
		case "false":
			q = q.Where("bugs.verified = ?", 0)
		}
	}

	return q
}

func (b *BugsModule) list(c *gin.Context) {
	page, perPage, err := common.ParsePagination(c)
	if err != nil {
		common.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if err := b.filtered(c).Count(&total).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch bugs: "+err.Error())
		return
	}

	var rows []map[string]any
	err = b.filtered(c).
		Select(listColumns).
		Joins("LEFT JOIN domains ON bugs.domain_id = domains.id").
		Order("bugs.created DESC").
		Limit(perPage).
		Offset(common.Offset(page, perPage)).
		Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch bugs: "+err.Error())
		return
	}

	common.Paginated(c, common.NormalizeRows(rows), page, perPage, total)
}

func (b *BugsModule) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		common.Error(c, http.StatusBadRequest, "Search query 'q' is required")
		return
	}
	limit := common.ParseLimit(c)

	pattern := "%" + query + "%"
	var rows []map[string]any
	err := b.db.Table("bugs").
		Select(listColumns).
		Joins("LEFT JOIN domains ON bugs.domain_id = domains.id").
		Where("bugs.url LIKE ? OR bugs.description LIKE ?", pattern, pattern).
		Order("bugs.created DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Search failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"query":   query,
		"data":    common.NormalizeRows(rows),
	})
}

func (b *BugsModule) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid bug id format")
		return
	}

	row, err := b.getByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		common.Error(c, http.StatusNotFound, "Bug not found")
		return
	}
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch bug: "+err.Error())
		return
	}

	common.OK(c, row)
}

// getByID assembles the nested bug record: the primary row, then its
// screenshots and tags. A primary key miss returns gorm.ErrRecordNotFound,
// distinct from dependents simply being empty.
func (b *BugsModule) getByID(id int) (map[string]any, error) {
	var rows []map[string]any
	err := b.db.Table("bugs").
		Select(`bugs.*, domains.name AS domain_name, domains.url AS domain_url, domains.logo AS domain_logo`).
		Joins("LEFT JOIN domains ON bugs.domain_id = domains.id").
		Where("bugs.id = ?", id).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	bug := common.NormalizeRow(rows[0])

	var screenshots []map[string]any
	err = b.db.Table("bug_screenshots").
		Select("id, image, created").
		Where("bug_id = ?", id).
		Order("created DESC").
		Find(&screenshots).Error
	if err != nil {
		return nil, err
	}

	var tags []map[string]any
	err = b.db.Table("bug_tags").
		Select("tags.id, tags.name").
		Joins("JOIN tags ON bug_tags.tag_id = tags.id").
		Where("bug_tags.bug_id = ?", id).
		Order("tags.name").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}

	bug["screenshots"] = common.NormalizeRows(screenshots)
	bug["tags"] = common.NormalizeRows(tags)

	if mdSrc, ok := bug["markdown_description"].(string); ok && mdSrc != "" {
		bug["markdown_description_html"] = renderMarkdown(mdSrc)
	}

	return bug, nil
}

type createBugRequest struct {
	URL                 string   `json:"url"`
	Description         string   `json:"description"`
	MarkdownDescription string   `json:"markdown_description"`
	Label               string   `json:"label"`
	Views               *int     `json:"views"`
	Verified            bool     `json:"verified"`
	Score               *int     `json:"score"`
	Status              string   `json:"status"`
	UserAgent           string   `json:"user_agent"`
	OCR                 string   `json:"ocr"`
	Screenshot          string   `json:"screenshot"`
	GithubURL           string   `json:"github_url"`
	IsHidden            bool     `json:"is_hidden"`
	Rewarded            *int     `json:"rewarded"`
	ReporterIPAddress   string   `json:"reporter_ip_address"`
	CVEID               string   `json:"cve_id"`
	CVEScore            *float64 `json:"cve_score"`
	DomainID            *int     `json:"domain_id"`
	UserID              *int     `json:"user_id"`
	ClosedByID          *int     `json:"closed_by_id"`
	Tags                []string `json:"tags"`
}

func (b *BugsModule) create(c *gin.Context) {
	var req createBugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Request body is required")
		return
	}

	if req.URL == "" || req.Description == "" {
		common.Error(c, http.StatusBadRequest, "Missing required fields: url, description")
		return
	}
	if len(req.URL) > 200 {
		common.Error(c, http.StatusBadRequest, "URL must be 200 characters or less")
		return
	}
	if err := checkInt32Bounds(map[string]*int{
		"views":        req.Views,
		"score":        req.Score,
		"rewarded":     req.Rewarded,
		"domain_id":    req.DomainID,
		"user_id":      req.UserID,
		"closed_by_id": req.ClosedByID,
	}); err != nil {
		common.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	bug := models.Bug{
		URL:                 req.URL,
		Description:         req.Description,
		MarkdownDescription: req.MarkdownDescription,
		Label:               req.Label,
		Verified:            req.Verified,
		Score:               req.Score,
		Status:              "open",
		UserAgent:           req.UserAgent,
		OCR:                 req.OCR,
		Screenshot:          req.Screenshot,
		GithubURL:           req.GithubURL,
		IsHidden:            req.IsHidden,
		ReporterIPAddress:   req.ReporterIPAddress,
		CVEID:               req.CVEID,
		CVEScore:            req.CVEScore,
		DomainID:            req.DomainID,
		UserID:              req.UserID,
		ClosedByID:          req.ClosedByID,
	}
	if req.Status != "" {
		bug.Status = req.Status
	}
	if req.Views != nil {
		bug.Views = *req.Views
	}
	if req.Rewarded != nil {
		bug.Rewarded = *req.Rewarded
	}

	if err := b.db.Create(&bug).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to create bug: "+err.Error())
		return
	}

	// Tag links are a secondary write: if one fails the bug row persists and
	// the whole operation is reported as failed.
	if len(req.Tags) > 0 {
		if err := b.linkTags(bug.ID, req.Tags); err != nil {
			common.Error(c, http.StatusInternalServerError, "Bug created but tag linking failed: "+err.Error())
			return
		}
	}

	row, err := b.getByID(bug.ID)
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch created bug: "+err.Error())
		return
	}
	common.Created(c, "Bug created successfully", row)
}

// linkTags finds or creates each named tag and links it to the bug. Existing
// links are left alone so the call is re-runnable.
func (b *BugsModule) linkTags(bugID int, names []string) error {
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		var tag models.Tag
		err := b.db.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			if err := b.db.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var existing models.BugTag
		err = b.db.Where("bug_id = ? AND tag_id = ?", bugID, tag.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := b.db.Create(&models.BugTag{BugID: bugID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

type bugActionRequest struct {
	UserID int    `json:"user_id"`
	Reason string `json:"reason"`
}

func (b *BugsModule) upvote(c *gin.Context) {
	bugID, userID, _, ok := b.parseAction(c)
	if !ok {
		return
	}
	upvote := models.UserBugUpvote{UserID: userID, BugID: bugID}
	if err := b.db.Create(&upvote).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to upvote: "+err.Error())
		return
	}
	common.Created(c, "Bug upvoted", upvote)
}

func (b *BugsModule) save(c *gin.Context) {
	bugID, userID, _, ok := b.parseAction(c)
	if !ok {
		return
	}
	save := models.UserBugSave{UserID: userID, BugID: bugID}
	if err := b.db.Create(&save).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to save bug: "+err.Error())
		return
	}
	common.Created(c, "Bug saved", save)
}

func (b *BugsModule) flag(c *gin.Context) {
	bugID, userID, reason, ok := b.parseAction(c)
	if !ok {
		return
	}
	flag := models.UserBugFlag{UserID: userID, BugID: bugID, Reason: reason}
	if err := b.db.Create(&flag).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to flag bug: "+err.Error())
		return
	}
	common.Created(c, "Bug flagged", flag)
}

func (b *BugsModule) addTeamMember(c *gin.Context) {
	bugID, userID, _, ok := b.parseAction(c)
	if !ok {
		return
	}
	member := models.BugTeamMember{BugID: bugID, UserID: userID}
	if err := b.db.Create(&member).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to add team member: "+err.Error())
		return
	}
	common.Created(c, "Team member added", member)
}

// parseAction validates the shared shape of the bug social endpoints: a
// numeric bug id that exists and a user_id in the body.
func (b *BugsModule) parseAction(c *gin.Context) (bugID, userID int, reason string, ok bool) {
	bugID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid bug id format")
		return 0, 0, "", false
	}

	var bug models.Bug
	if err := b.db.First(&bug, bugID).Error; err != nil {
		common.Error(c, http.StatusNotFound, "Bug not found")
		return 0, 0, "", false
	}

	var req bugActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		common.Error(c, http.StatusBadRequest, "user_id is required")
		return 0, 0, "", false
	}

	return bugID, req.UserID, req.Reason, true
}

func checkInt32Bounds(fields map[string]*int) error {
	for name, val := range fields {
		if val == nil {
			continue
		}
		if *val > math.MaxInt32 || *val < math.MinInt32 {
			return fmt.Errorf("%s is out of range", name)
		}
	}
	return nil
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// on render failure fall back to the raw markdown
		return content
	}
	return buf.String()
}
