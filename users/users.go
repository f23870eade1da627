package users

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

type UsersModule struct {
	db *gorm.DB
}

func NewUsersModule(db *gorm.DB) *UsersModule {
	return &UsersModule{db: db}
}

func (u *UsersModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/users")
	{
		group.GET("", u.list)
		group.GET("/:id", u.get)
		group.GET("/:id/profile", u.profile)
		group.POST("/:id/follow", u.follow)
		group.DELETE("/:id/follow", u.unfollow)
	}
}

// publicColumns excludes credentials and the verification token.
const publicColumns = `id, username, email, title, winnings, total_score,
	is_active, is_staff, is_superuser, email_verified, created, modified`

func (u *UsersModule) filtered(c *gin.Context) *gorm.DB {
	q := u.db.Table("users")

	if active := c.Query("is_active"); active != "" {
		switch strings.ToLower(active) {
		case "true":
			q = q.Where("is_active = ?", 1)
		case "false":
			q = q.Where("is_active = ?", 0)
		}
	}

	return q
}

func (u *UsersModule) list(c *gin.Context) {
	page, perPage, err := common.ParsePagination(c)
	if err != nil {
		common.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var total int64
	if err := u.filtered(c).Count(&total).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch users: "+err.Error())
		return
	}

	var rows []map[string]any
	err = u.filtered(c).
		Select(publicColumns).
		Order("id ASC").
		Limit(perPage).
		Offset(common.Offset(page, perPage)).
		Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch users: "+err.Error())
		return
	}

	common.Paginated(c, common.NormalizeRows(rows), page, perPage, total)
}

func (u *UsersModule) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var rows []map[string]any
	err = u.db.Table("users").Select(publicColumns).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch user: "+err.Error())
		return
	}
	if len(rows) == 0 {
		common.Error(c, http.StatusNotFound, "User not found")
		return
	}

	common.OK(c, common.NormalizeRow(rows[0]))
}

// profile augments the user row with reporting and social counters.
func (u *UsersModule) profile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var rows []map[string]any
	err = u.db.Table("users").Select(publicColumns).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch user: "+err.Error())
		return
	}
	if len(rows) == 0 {
		common.Error(c, http.StatusNotFound, "User not found")
		return
	}
	profile := common.NormalizeRow(rows[0])

	counters := []struct {
		key   string
		model any
		where string
	}{
		{"bugs_reported", &models.Bug{}, "user_id = ?"},
		{"bugs_closed", &models.Bug{}, "closed_by_id = ?"},
		{"followers", &models.UserFollow{}, "following_id = ?"},
		{"following", &models.UserFollow{}, "follower_id = ?"},
		{"upvotes_given", &models.UserBugUpvote{}, "user_id = ?"},
		{"saved_bugs", &models.UserBugSave{}, "user_id = ?"},
	}
	for _, counter := range counters {
		var count int64
		if err := u.db.Model(counter.model).Where(counter.where, id).Count(&count).Error; err != nil {
			common.Error(c, http.StatusInternalServerError, "Failed to fetch profile stats: "+err.Error())
			return
		}
		profile[counter.key] = count
	}

	common.OK(c, profile)
}

type followRequest struct {
	FollowerID int `json:"follower_id"`
}

func (u *UsersModule) follow(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FollowerID == 0 {
		common.Error(c, http.StatusBadRequest, "follower_id is required")
		return
	}

	if req.FollowerID == id {
		common.Error(c, http.StatusBadRequest, "Cannot follow yourself")
		return
	}

	var target models.User
	if err := u.db.First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Error(c, http.StatusNotFound, "User not found")
			return
		}
		common.Error(c, http.StatusInternalServerError, "Failed to fetch user: "+err.Error())
		return
	}

	follow := models.UserFollow{FollowerID: req.FollowerID, FollowingID: id}
	if err := u.db.Create(&follow).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to follow user: "+err.Error())
		return
	}

	common.Created(c, "Now following", follow)
}

func (u *UsersModule) unfollow(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FollowerID == 0 {
		common.Error(c, http.StatusBadRequest, "follower_id is required")
		return
	}

	result := u.db.Where("follower_id = ? AND following_id = ?", req.FollowerID, id).
		Delete(&models.UserFollow{})
	if result.Error != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to unfollow: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		common.Error(c, http.StatusNotFound, "Follow relationship not found")
		return
	}

	common.OK(c, gin.H{"unfollowed": true})
}
