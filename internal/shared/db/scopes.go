package db

import (
	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/shared/query"
)

// Paginate applies LIMIT/OFFSET for a 1-based page.
func Paginate(f query.PageFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(f.Offset()).Limit(f.Limit())
	}
}

// ActiveEdges filters parcel_owners rows to live ownership edges.
func ActiveEdges() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true)
	}
}
