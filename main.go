package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"bugtrail/auth"
	"bugtrail/bugs"
	"bugtrail/cache"
	"bugtrail/common"
	"bugtrail/database"
	"bugtrail/domains"
	"bugtrail/stats"
	"bugtrail/tags"
	"bugtrail/users"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	db := common.ConnectDb()
	if db == nil {
		// Keep serving so /health and the 503 middleware can report the
		// missing database instead of crash-looping.
		log.Println("WARNING: database unavailable, API requests will return 503")
	} else {
		if err := database.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
		if os.Getenv("seed_db") == "true" {
			if err := database.Seed(db); err != nil {
				log.Fatal("Failed to seed database:", err)
			}
			log.Println("Database seeded")
		}
	}

	router := gin.Default()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})

	router.Use(sessions.Sessions("bugtrail-session", store))
	router.Use(common.CORSMiddleware())

	router.GET("/", index)
	router.GET("/health", health(db))

	router.Use(common.RequireDB(db))
	router.Use(cache.Middleware(5*time.Minute, "/stats", "/leaderboard"))

	auth.NewAuthModule(db).RegisterRoutes(router)
	bugs.NewBugsModule(db).RegisterRoutes(router)
	domains.NewDomainsModule(db).RegisterRoutes(router)
	users.NewUsersModule(db).RegisterRoutes(router)
	tags.NewTagsModule(db).RegisterRoutes(router)
	stats.NewStatsModule(db).RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api":     "bugtrail",
		"version": version,
		"health":  "/health",
	})
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		status := http.StatusOK
		if err := common.CheckInitialized(db); err != nil {
			dbStatus = err.Error()
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":   "running",
			"version":  version,
			"database": dbStatus,
			"endpoints": gin.H{
				"bugs":        "/bugs",
				"search":      "/bugs/search?q=",
				"domains":     "/domains",
				"users":       "/users",
				"tags":        "/tags",
				"stats":       "/stats",
				"leaderboard": "/leaderboard",
				"auth":        "/auth/signup, /auth/login, /auth/logout",
			},
		})
	}
}
