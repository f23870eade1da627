package cache

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func useTempDir(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestWriteAndRead(t *testing.T) {
	useTempDir(t)

	payload := []byte(`{"success":true,"data":{"bugs":5}}`)
	assert.NoError(t, Write("/stats", payload))

	got, found := Read("/stats", time.Minute)
	assert.True(t, found)
	assert.Equal(t, payload, got)
}

func TestRead_Expired(t *testing.T) {
	useTempDir(t)

	assert.NoError(t, Write("/stats", []byte("{}")))

	_, found := Read("/stats", -time.Second)
	assert.False(t, found)
}

func TestRead_Missing(t *testing.T) {
	useTempDir(t)

	_, found := Read("/never-written", time.Minute)
	assert.False(t, found)
}

func TestClear(t *testing.T) {
	useTempDir(t)

	assert.NoError(t, Write("/stats", []byte("{}")))
	assert.NoError(t, Clear("/stats"))

	_, found := Read("/stats", time.Minute)
	assert.False(t, found)

	// clearing a missing key is not an error
	assert.NoError(t, Clear("/stats"))
}

func TestMiddleware_HitAndMiss(t *testing.T) {
	useTempDir(t)
	gin.SetMode(gin.TestMode)

	calls := 0
	router := gin.New()
	router.Use(Middleware(time.Minute, "/stats"))
	router.GET("/stats", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true, "calls": calls})
	})

	req, _ := http.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	first := w.Body.String()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, w.Body.String())
}

func TestMiddleware_IgnoresOtherPaths(t *testing.T) {
	useTempDir(t)
	gin.SetMode(gin.TestMode)

	calls := 0
	router := gin.New()
	router.Use(Middleware(time.Minute, "/stats"))
	router.GET("/bugs", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/bugs", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestMiddleware_QueryStringIsPartOfKey(t *testing.T) {
	useTempDir(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware(time.Minute, "/leaderboard"))
	router.GET("/leaderboard", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"limit": c.Query("limit")})
	})

	req1, _ := http.NewRequest("GET", "/leaderboard?limit=5", nil)
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	req2, _ := http.NewRequest("GET", "/leaderboard?limit=10", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	assert.Equal(t, "MISS", w2.Header().Get("X-Cache"))
	assert.NotEqual(t, w1.Body.String(), w2.Body.String())
}
