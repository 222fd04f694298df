package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Brand represents a phone brand
type Brand struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Name        string         `json:"name" gorm:"type:varchar(100);unique;not null"`
	Slug        string         `json:"slug" gorm:"type:varchar(100);unique;not null"`
	Description string         `json:"description" gorm:"type:text"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Product represents the product master data
type Product struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Name        string         `json:"name" gorm:"type:varchar(200);not null"`
	SKU         string         `json:"sku" gorm:"type:varchar(50);unique;not null"`
	Barcode     string         `json:"barcode" gorm:"type:varchar(50);index"`
	BrandID     uint           `json:"brand_id" gorm:"index;not null"`
	Brand       *Brand         `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Description string         `json:"description" gorm:"type:text"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// ProductVariant represents a RAM/ROM/Color combination of a product.
// Price is whole VND; it is the value order lines snapshot at creation.
type ProductVariant struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	ProductID uint      `json:"product_id" gorm:"index;not null"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	RAM       string    `json:"ram" gorm:"type:varchar(20)"`
	ROM       string    `json:"rom" gorm:"type:varchar(20)"`
	Color     string    `json:"color" gorm:"type:varchar(50)"`
	SKU       string    `json:"sku" gorm:"type:varchar(50);unique;not null"`
	Price     int64     `json:"price" gorm:"not null;check:price >= 0"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName renders "Product - RAM - ROM - Color", skipping empty parts
func (v *ProductVariant) DisplayName() string {
	parts := make([]string, 0, 4)
	if v.Product != nil {
		parts = append(parts, v.Product.Name)
	}
	for _, p := range []string{v.RAM, v.ROM, v.Color} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}
