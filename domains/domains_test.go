package domains

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bugtrail/database"
	"bugtrail/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		t.Fatal("failed to connect database:", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatal("failed to run migrations:", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatal("failed to seed fixtures:", err)
	}
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDomainsModule(db).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal("invalid JSON response:", err)
	}
	return body
}

func TestListDomains(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)

	data := body["data"].([]any)
	assert.Equal(t, 3, len(data))

	// ordered by name: acme.io, example.com, testsite.org
	first := data[0].(map[string]any)
	assert.Equal(t, "acme.io", first["name"])
}

func TestListDomains_ActiveFilter(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains?is_active=false", nil)

	body := parseBody(t, w)
	data := body["data"].([]any)
	assert.Equal(t, 1, len(data))

	domain := data[0].(map[string]any)
	assert.Equal(t, "acme.io", domain["name"])
}

func TestListDomains_UserFilter(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains?user=1", nil)

	body := parseBody(t, w)
	data := body["data"].([]any)
	assert.Equal(t, 1, len(data))

	domain := data[0].(map[string]any)
	assert.Equal(t, "example.com", domain["name"])
}

func TestGetDomain_WithTags(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains/1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)

	domain := body["data"].(map[string]any)
	assert.Equal(t, "example.com", domain["name"])

	tags := domain["tags"].([]any)
	assert.Equal(t, 1, len(tags))
	tag := tags[0].(map[string]any)
	assert.Equal(t, "xss", tag["name"])
}

func TestGetDomain_NotFound(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDomain(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "POST", "/domains", map[string]any{
		"name": "newsite.dev",
		"url":  "https://newsite.dev",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
}

func TestCreateDomain_Validation(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "POST", "/domains", map[string]any{"name": "incomplete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDomainBugs(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains/1/bugs", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, float64(1), body["domain_id"])

	data := body["data"].([]any)
	assert.Equal(t, 2, len(data))

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["total"])
}

func TestListDomainBugs_DomainNotFound(t *testing.T) {
	router := setupTestRouter(setupTestDB(t))

	w := doRequest(router, "GET", "/domains/999/bugs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDomain_SetsBugsNull(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, db.Exec("DELETE FROM domains WHERE id = 1").Error)

	var bugs []models.Bug
	db.Where("id IN ?", []int{1, 2}).Find(&bugs)
	assert.Equal(t, 2, len(bugs))
	for _, bug := range bugs {
		assert.Nil(t, bug.DomainID)
	}
}
