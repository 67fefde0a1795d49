package utils

import (
	"math"
	"strconv"
)

// Pagination represents pagination response metadata
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ParsePaginationFromQuery parses page/limit query parameters with defaults
func ParsePaginationFromQuery(pageStr, limitStr string) (int, int) {
	page := 1
	limit := 20

	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	return page, limit
}

// NewPagination calculates pagination metadata
func NewPagination(page, limit int, total int64) *Pagination {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages == 0 {
		pages = 1
	}

	return &Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

// Offset calculates the offset for database queries
func Offset(page, limit int) int {
	return (page - 1) * limit
}
