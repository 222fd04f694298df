package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a store customer
type Customer struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(200);not null"`
	Phone     string         `json:"phone" gorm:"type:varchar(20);unique;not null"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Address   string         `json:"address" gorm:"type:text"`
	Note      string         `json:"note" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
