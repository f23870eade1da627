package domains

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bugtrail/common"
	"bugtrail/models"
)

type DomainsModule struct {
	db *gorm.DB
}

func NewDomainsModule(db *gorm.DB) *DomainsModule {
	return &DomainsModule{db: db}
}

func (d *DomainsModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/domains")
	{
		group.GET("", d.list)
		group.GET("/:id", d.get)
		group.POST("", d.create)
		group.GET("/:id/bugs", d.listBugs)
		group.GET("/:id/tags", d.listTags)
	}
}

func (d *DomainsModule) filtered(c *gin.Context) *gorm.DB {
	q := d.db.Table("domains")

	if active := c.Query("is_active"); active != "" {
		switch strings.ToLower(active) {
		case "true":
			q = q.Where("is_active = ?", 1)
		case "false":
			q = q.Where("is_active = ?", 0)
		}
	}
	if user := c.Query("user"); user != "" {
		if id, err := strconv.Atoi(user); err == nil {
			q = q.Where("user_id = ?", id)
		}
	}

	return q
}

func (d *DomainsModule) list(c *gin.Context) {
	page, perPage, err := common.ParsePagination(c)
	if err != nil {
		common.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if err := d.filtered(c).Count(&total).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domains: "+err.Error())
		return
	}

	var rows []map[string]any
	err = d.filtered(c).
		Order("name ASC").
		Limit(perPage).
		Offset(common.Offset(page, perPage)).
		Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domains: "+err.Error())
		return
	}

	common.Paginated(c, common.NormalizeRows(rows), page, perPage, total)
}

func (d *DomainsModule) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid domain ID")
		return
	}

	var rows []map[string]any
	err = d.db.Table("domains").Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain: "+err.Error())
		return
	}
	if len(rows) == 0 {
		common.Error(c, http.StatusNotFound, "Domain not found")
		return
	}

	domain := common.NormalizeRow(rows[0])

	var tags []map[string]any
	err = d.db.Table("domain_tags").
		Select("tags.id, tags.name").
		Joins("JOIN tags ON domain_tags.tag_id = tags.id").
		Where("domain_tags.domain_id = ?", id).
		Order("tags.name").
		Find(&tags).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain tags: "+err.Error())
		return
	}
	domain["tags"] = common.NormalizeRows(tags)

	common.OK(c, domain)
}

type createDomainRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Logo    string `json:"logo"`
	Email   string `json:"email"`
	Twitter string `json:"twitter"`
	Github  string `json:"github"`
	UserID  *int   `json:"user_id"`
}

func (d *DomainsModule) create(c *gin.Context) {
	var req createDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Request body is required")
		return
	}

	if req.Name == "" || req.URL == "" {
		common.Error(c, http.StatusBadRequest, "Missing required fields: name, url")
		return
	}

	domain := models.Domain{
		Name:     req.Name,
		URL:      req.URL,
		Logo:     req.Logo,
		Email:    req.Email,
		Twitter:  req.Twitter,
		Github:   req.Github,
		IsActive: true,
		UserID:   req.UserID,
	}
	if err := d.db.Create(&domain).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to create domain: "+err.Error())
		return
	}

	common.Created(c, "Domain created successfully", domain)
}

func (d *DomainsModule) listBugs(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid domain ID")
		return
	}

	var domain models.Domain
	if err := d.db.First(&domain, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Error(c, http.StatusNotFound, "Domain not found")
			return
		}
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain: "+err.Error())
		return
	}

	page, perPage, err := common.ParsePagination(c)
	if err != nil {
		common.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if err := d.db.Table("bugs").Where("domain_id = ?", id).Count(&total).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain bugs: "+err.Error())
		return
	}

	var rows []map[string]any
	err = d.db.Table("bugs").
		Select("id, url, description, status, verified, score, views, created, modified, rewarded, cve_id, cve_score").
		Where("domain_id = ?", id).
		Order("created DESC").
		Limit(perPage).
		Offset(common.Offset(page, perPage)).
		Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain bugs: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"domain_id":  id,
		"data":       common.NormalizeRows(rows),
		"pagination": common.NewPagination(page, perPage, len(rows), total),
	})
}

func (d *DomainsModule) listTags(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid domain ID")
		return
	}

	var domain models.Domain
	if err := d.db.First(&domain, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Error(c, http.StatusNotFound, "Domain not found")
			return
		}
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain: "+err.Error())
		return
	}

	var tags []map[string]any
	err = d.db.Table("domain_tags").
		Select("tags.id, tags.name").
		Joins("JOIN tags ON domain_tags.tag_id = tags.id").
		Where("domain_tags.domain_id = ?", id).
		Order("tags.name").
		Find(&tags).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch domain tags: "+err.Error())
		return
	}

	common.OK(c, common.NormalizeRows(tags))
}
