package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pagination is the metadata block attached to every list response.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPagination computes the metadata for one page of results. total_pages is
// the ceiling of total/per_page and stays correct even when the requested page
// is past the end.
func NewPagination(page, perPage, count int, total int64) Pagination {
	var totalPages int64
	if total > 0 {
		totalPages = (total + int64(perPage) - 1) / int64(perPage)
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Count:      count,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Error writes the failure envelope shared by every endpoint.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error":   true,
		"message": message,
		"status":  status,
	})
}

// OK writes a single-resource success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// Created writes the success envelope for a newly created resource.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// Paginated writes a list envelope. data must already be normalized rows; a
// nil slice is serialized as an empty array, never null.
func Paginated(c *gin.Context, data []map[string]any, page, perPage int, total int64) {
	if data == nil {
		data = []map[string]any{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": NewPagination(page, perPage, len(data), total),
	})
}
