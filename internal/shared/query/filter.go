package query

import "github.com/landreg/cadastre/internal/shared/constants"

// PageFilter is a 1-based page request.
type PageFilter struct {
	Page     int
	PageSize int
}

// NewPageFilter clamps page to at least 1 and pageSize into
// [1, constants.MaxPageSize], defaulting to constants.DefaultPageSize.
func NewPageFilter(page, pageSize int) PageFilter {
	f := PageFilter{Page: page, PageSize: pageSize}
	if f.Page < 1 {
		f.Page = 1
	}
	f.PageSize = f.Limit()
	return f
}

func (f PageFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

func (f PageFilter) Limit() int {
	if f.PageSize <= 0 {
		return constants.DefaultPageSize
	}
	if f.PageSize > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return f.PageSize
}
