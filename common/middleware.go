package common

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CORSMiddleware adds permissive CORS headers and answers preflight requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequireDB fast-fails requests with 503 when the database binding is absent
// or the schema has not been migrated, instead of letting a query deeper in
// the stack throw an opaque driver error. The initialization check runs once.
func RequireDB(db *gorm.DB) gin.HandlerFunc {
	var once sync.Once
	var initErr error

	return func(c *gin.Context) {
		if db == nil {
			Error(c, http.StatusServiceUnavailable, "Database not configured")
			c.Abort()
			return
		}

		once.Do(func() {
			initErr = CheckInitialized(db)
		})
		if initErr != nil {
			Error(c, http.StatusServiceUnavailable, initErr.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}
