package models

import "time"

type OwnerModel struct {
	ID          uint   `gorm:"primaryKey"`
	FullName    string `gorm:"size:200;not null"`
	NationalID  string `gorm:"uniqueIndex;size:64;not null"`
	PhoneNumber string `gorm:"size:32;not null"`
	TINNumber   string `gorm:"column:tin_number;size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OwnerModel) TableName() string {
	return "owners"
}
