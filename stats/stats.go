package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bugtrail/common"
	"bugtrail/models"
)

type StatsModule struct {
	db *gorm.DB
}

func NewStatsModule(db *gorm.DB) *StatsModule {
	return &StatsModule{db: db}
}

func (s *StatsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/stats", s.stats)
	router.GET("/leaderboard", s.leaderboard)
}

func (s *StatsModule) stats(c *gin.Context) {
	totals := map[string]any{}
	for key, model := range map[string]any{
		"bugs":    &models.Bug{},
		"users":   &models.User{},
		"domains": &models.Domain{},
		"tags":    &models.Tag{},
	} {
		var count int64
		if err := s.db.Model(model).Count(&count).Error; err != nil {
			common.Error(c, http.StatusInternalServerError, "Failed to fetch statistics: "+err.Error())
			return
		}
		totals[key] = count
	}

	var byStatus []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	err := s.db.Model(&models.Bug{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("count DESC").
		Scan(&byStatus).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch statistics: "+err.Error())
		return
	}
	totals["bugs_by_status"] = byStatus

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    totals,
		"description": gin.H{
			"bugs":    "Total number of bugs reported",
			"users":   "Total number of registered users",
			"domains": "Total number of tracked domains",
			"tags":    "Total number of tags",
		},
	})
}

type leaderboardEntry struct {
	ID           int     `json:"id"`
	Username     string  `json:"username"`
	TotalScore   int     `json:"total_score"`
	Winnings     float64 `json:"winnings"`
	BugsReported int64   `json:"bugs_reported"`
}

// leaderboard ranks active users by score, then by number of reported bugs.
func (s *StatsModule) leaderboard(c *gin.Context) {
	limit := common.ParseLimit(c)

	var entries []leaderboardEntry
	err := s.db.Table("users").
		Select(`users.id, users.username, users.total_score, users.winnings,
			COUNT(bugs.id) as bugs_reported`).
		Joins("LEFT JOIN bugs ON bugs.user_id = users.id").
		Where("users.is_active = ?", 1).
		Group("users.id").
		Order("users.total_score DESC, bugs_reported DESC, users.id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to fetch leaderboard: "+err.Error())
		return
	}

	if entries == nil {
		entries = []leaderboardEntry{}
	}
	common.OK(c, entries)
}
