package tags

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bugtrail/common"
	"bugtrail/models"
)

type TagsModule struct {
	db *gorm.DB
}

func NewTagsModule(db *gorm.DB) *TagsModule {
	return &TagsModule{db: db}
}

func (t *TagsModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/tags")
	{
		group.GET("", t.list)
		group.GET("/:id", t.get)
		group.POST("", t.create)
	}
}

func (t *TagsModule) list(c *gin.Context) {
	page, perPage, err := common.ParsePagination(c)
	if err != nil {
		common.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if err := t.db.Table("tags").Count(&total).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch tags: "+err.Error())
		return
	}

	var rows []map[string]any
	err = t.db.Table("tags").
		Order("name ASC").
		Limit(perPage).
		Offset(common.Offset(page, perPage)).
		Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch tags: "+err.Error())
		return
	}

	common.Paginated(c, common.NormalizeRows(rows), page, perPage, total)
}

// get returns a tag with the bugs and domains linked to it.
func (t *TagsModule) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	var rows []map[string]any
	err = t.db.Table("tags").Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch tag: "+err.Error())
		return
	}
	if len(rows) == 0 {
		common.Error(c, http.StatusNotFound, "Tag not found")
		return
	}
	tag := common.NormalizeRow(rows[0])

	var bugs []map[string]any
	err = t.db.Table("bug_tags").
		Select("bugs.id, bugs.url, bugs.description, bugs.status").
		Joins("JOIN bugs ON bug_tags.bug_id = bugs.id").
		Where("bug_tags.tag_id = ?", id).
		Order("bugs.created DESC").
		Find(&bugs).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch tag bugs: "+err.Error())
		return
	}

	var domains []map[string]any
	err = t.db.Table("domain_tags").
		Select("domains.id, domains.name, domains.url").
		Joins("JOIN domains ON domain_tags.domain_id = domains.id").
		Where("domain_tags.tag_id = ?", id).
		Order("domains.name").
		Find(&domains).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch tag domains: "+err.Error())
		return
	}

	tag["bugs"] = common.NormalizeRows(bugs)
	tag["domains"] = common.NormalizeRows(domains)

	common.OK(c, tag)
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (t *TagsModule) create(c *gin.Context) {
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Request body is required")
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		common.Error(c, http.StatusBadRequest, "Missing required field: name")
		return
	}

	tag := models.Tag{Name: name}
	if err := t.db.Create(&tag).Error; err != nil {
		// duplicate names surface the unique constraint message
		common.Error(c, http.StatusBadRequest, "Failed to create tag: "+err.Error())
		return
	}

	common.Created(c, "Tag created successfully", tag)
}
