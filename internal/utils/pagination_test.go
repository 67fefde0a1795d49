package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaginationFromQuery(t *testing.T) {
	page, limit := ParsePaginationFromQuery("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = ParsePaginationFromQuery("3", "50")
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)

	// Out-of-range and garbage values fall back to defaults.
	page, limit = ParsePaginationFromQuery("-1", "500")
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = ParsePaginationFromQuery("abc", "xyz")
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, int64(35), p.Total)
	assert.Equal(t, 4, p.Pages)

	// An empty result set still reports one page.
	p = NewPagination(1, 10, 0)
	assert.Equal(t, 1, p.Pages)

	p = NewPagination(1, 10, 10)
	assert.Equal(t, 1, p.Pages)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 40, Offset(3, 20))
}
