package model

import (
	"time"

	"gorm.io/gorm"
)

// PurchaseOrderStatus is the lifecycle state of a purchase order
type PurchaseOrderStatus string

const (
	POStatusDraft     PurchaseOrderStatus = "draft"
	POStatusApproved  PurchaseOrderStatus = "approved"
	POStatusCancelled PurchaseOrderStatus = "cancelled"
)

// StockInSource distinguishes goods receipts raised from a purchase
// order from manual entries
type StockInSource string

const (
	StockInSourcePO     StockInSource = "PO"
	StockInSourceManual StockInSource = "MANUAL"
)

// Supplier represents a goods supplier
type Supplier struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(200);not null"`
	Contact   string         `json:"contact" gorm:"type:varchar(100)"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Address   string         `json:"address" gorm:"type:text"`
	Note      string         `json:"note" gorm:"type:text"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// PurchaseOrder represents an order placed with a supplier
type PurchaseOrder struct {
	ID         uint                `json:"id" gorm:"primarykey"`
	Code       string              `json:"code" gorm:"type:varchar(50);unique;not null"`
	SupplierID uint                `json:"supplier_id" gorm:"index;not null"`
	Supplier   *Supplier           `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Status     PurchaseOrderStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`
	Note       string              `json:"note" gorm:"type:text"`
	Items      []POItem            `json:"items" gorm:"foreignKey:PurchaseOrderID"`
	ApprovedAt *time.Time          `json:"approved_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// TotalAmount sums the line totals of all items
func (po *PurchaseOrder) TotalAmount() int64 {
	var total int64
	for _, item := range po.Items {
		total += item.LineTotal()
	}
	return total
}

// POItem is one line of a purchase order
type POItem struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	PurchaseOrderID  uint            `json:"purchase_order_id" gorm:"index;not null"`
	ProductVariantID uint            `json:"product_variant_id" gorm:"not null"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	Qty              int             `json:"qty" gorm:"not null;check:qty > 0"`
	UnitCost         int64           `json:"unit_cost" gorm:"not null;check:unit_cost >= 0"`
}

func (i *POItem) LineTotal() int64 {
	return int64(i.Qty) * i.UnitCost
}

// StockIn is a goods receipt. Creating one is the only path that lazily
// creates inventory rows.
type StockIn struct {
	ID          uint          `json:"id" gorm:"primarykey"`
	Code        string        `json:"code" gorm:"type:varchar(50);unique;not null"`
	Source      StockInSource `json:"source" gorm:"type:varchar(20);default:'MANUAL'"`
	ReferenceID *uint         `json:"reference_id,omitempty"`
	Note        string        `json:"note" gorm:"type:text"`
	Items       []StockInItem `json:"items" gorm:"foreignKey:StockInID"`
	CreatedAt   time.Time     `json:"created_at" gorm:"index"`
}

// StockInItem is one received line of a goods receipt
type StockInItem struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	StockInID        uint            `json:"stock_in_id" gorm:"index;not null"`
	ProductVariantID uint            `json:"product_variant_id" gorm:"not null"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	Qty              int             `json:"qty" gorm:"not null;check:qty > 0"`
	UnitCost         int64           `json:"unit_cost" gorm:"not null;check:unit_cost >= 0"`
}

func (i *StockInItem) LineTotal() int64 {
	return int64(i.Qty) * i.UnitCost
}
