package model

import (
	"fmt"
	"time"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// RefKind names the business document a stock movement originates from
type RefKind string

const (
	RefOrder             RefKind = "Order"
	RefStockIn           RefKind = "StockIn"
	RefStockOut          RefKind = "StockOut"
	RefOrderCancellation RefKind = "OrderCancellation"
)

// MovementRef is a tagged reference to the document that caused a movement.
// Use the constructors below; a zero MovementRef is invalid.
type MovementRef struct {
	Kind RefKind `json:"ref_kind" gorm:"column:ref_kind;type:varchar(50);not null;index:idx_stock_movements_ref"`
	ID   uint    `json:"ref_id" gorm:"column:ref_id;not null;index:idx_stock_movements_ref"`
}

func OrderRef(orderID uint) MovementRef {
	return MovementRef{Kind: RefOrder, ID: orderID}
}

func StockInRef(stockInID uint) MovementRef {
	return MovementRef{Kind: RefStockIn, ID: stockInID}
}

func StockOutRef(stockOutID uint) MovementRef {
	return MovementRef{Kind: RefStockOut, ID: stockOutID}
}

func CancellationRef(orderID uint) MovementRef {
	return MovementRef{Kind: RefOrderCancellation, ID: orderID}
}

// Valid reports whether the reference carries a known kind and a document id
func (r MovementRef) Valid() bool {
	switch r.Kind {
	case RefOrder, RefStockIn, RefStockOut, RefOrderCancellation:
		return r.ID != 0
	}
	return false
}

func (r MovementRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// Inventory tracks the on-hand quantity of one product variant.
// Rows are created lazily on first stock-in and mutated only through
// the ledger under a row lock. OnHand can never go negative; the check
// constraint backs the locked re-validation.
type Inventory struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	ProductVariantID uint            `json:"product_variant_id" gorm:"uniqueIndex;not null"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	OnHand           int             `json:"on_hand" gorm:"not null;default:0;check:on_hand >= 0"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Inventory) TableName() string { return "inventory" }

// StockMovement is one immutable ledger entry. Rows are only ever
// inserted; the sum of IN minus OUT per variant equals that variant's
// on-hand at all times.
type StockMovement struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	Type             MovementType    `json:"type" gorm:"type:varchar(10);not null;index:idx_stock_movements_variant_type"`
	ProductVariantID uint            `json:"product_variant_id" gorm:"not null;index:idx_stock_movements_variant_type"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	Qty              int             `json:"qty" gorm:"not null;check:qty > 0"`
	Ref              MovementRef     `json:"ref" gorm:"embedded"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index"`
}
