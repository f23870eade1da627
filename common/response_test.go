package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPagination_CeilingTotalPages(t *testing.T) {
	assert.Equal(t, int64(1), NewPagination(1, 20, 5, 5).TotalPages)
	assert.Equal(t, int64(1), NewPagination(1, 20, 20, 20).TotalPages)
	assert.Equal(t, int64(2), NewPagination(1, 20, 20, 21).TotalPages)
	assert.Equal(t, int64(5), NewPagination(1, 20, 20, 100).TotalPages)
}

func TestNewPagination_EmptyResultSet(t *testing.T) {
	p := NewPagination(1, 20, 0, 0)

	assert.Equal(t, int64(0), p.Total)
	assert.Equal(t, int64(0), p.TotalPages)
	assert.Equal(t, 0, p.Count)
}

func TestNewPagination_PagePastEnd(t *testing.T) {
	p := NewPagination(99, 20, 0, 45)

	assert.Equal(t, 99, p.Page)
	assert.Equal(t, 0, p.Count)
	assert.Equal(t, int64(45), p.Total)
	assert.Equal(t, int64(3), p.TotalPages)
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, http.StatusNotFound, "Bug not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "Bug not found", body["message"])
	assert.Equal(t, float64(404), body["status"])
}

func TestPaginated_NilDataSerializesAsArray(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(c, nil, 1, 20, 0)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	assert.Equal(t, true, body["success"])
}
