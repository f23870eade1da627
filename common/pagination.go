package common

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	DefaultLimit   = 10
	MaxLimit       = 100
)

// ParsePagination reads page and per_page from the query string. Absent
// parameters take defaults; present but non-numeric values are a validation
// error. page is floored at 1, per_page clamped to [1, 100].
func ParsePagination(c *gin.Context) (page, perPage int, err error) {
	page = 1
	perPage = DefaultPerPage

	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page parameter: %q", raw)
		}
		if page < 1 {
			page = 1
		}
	}

	if raw := c.Query("per_page"); raw != "" {
		perPage, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid per_page parameter: %q", raw)
		}
		if perPage < 1 {
			perPage = 1
		}
		if perPage > MaxPerPage {
			perPage = MaxPerPage
		}
	}

	return page, perPage, nil
}

// ParseLimit reads the search result limit, clamped to [1, 100] with a
// default of 10. Unparseable values fall back to the default.
func ParseLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return DefaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Offset is the row offset for a page.
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}
