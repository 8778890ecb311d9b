package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageFilter(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{name: "defaults", wantPage: 1, wantSize: 20, wantOffset: 0},
		{name: "second page", page: 2, pageSize: 10, wantPage: 2, wantSize: 10, wantOffset: 10},
		{name: "negative page", page: -3, pageSize: 5, wantPage: 1, wantSize: 5, wantOffset: 0},
		{name: "oversized page", page: 3, pageSize: 1000, wantPage: 3, wantSize: 100, wantOffset: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPageFilter(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantSize, f.PageSize)
			assert.Equal(t, tt.wantSize, f.Limit())
			assert.Equal(t, tt.wantOffset, f.Offset())
		})
	}
}

func TestPageFilter_ZeroValue(t *testing.T) {
	var f PageFilter
	assert.Equal(t, 0, f.Offset())
	assert.Equal(t, 20, f.Limit())
}
