package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestGetPaginationParams(t *testing.T) {
	offset, limit := GetPaginationParams(nil, nil)
	assert.Equal(t, 0, offset)
	assert.Equal(t, pageSizeDefault, limit)

	offset, limit = GetPaginationParams(intPtr(-5), intPtr(0))
	assert.Equal(t, 0, offset)
	assert.Equal(t, pageSizeDefault, limit)

	offset, limit = GetPaginationParams(intPtr(40), intPtr(500))
	assert.Equal(t, 40, offset)
	assert.Equal(t, pageSizeMax, limit)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{2, 3}, Page(items, 1, 2))
	assert.Equal(t, []int{4, 5}, Page(items, 3, 20))
	assert.Equal(t, []int{}, Page(items, 5, 2))
}
