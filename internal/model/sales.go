package model

import (
	"time"
)

// OrderStatus is the lifecycle state of a sales order. Transitions are
// one-way: pending -> paid via payment confirmation, pending -> cancelled
// via explicit cancellation. Paid orders cannot be cancelled.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodVNPay        PaymentMethod = "vnpay"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentStatus is the state of one payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusExpired   PaymentStatus = "expired"
)

// Order is a sales order header. Amounts are whole VND.
type Order struct {
	ID         uint        `json:"id" gorm:"primarykey"`
	Code       string      `json:"code" gorm:"type:varchar(50);unique;not null"`
	CustomerID *uint       `json:"customer_id,omitempty" gorm:"index"`
	Customer   *Customer   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Status     OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Subtotal   int64       `json:"subtotal" gorm:"default:0"`
	Total      int64       `json:"total" gorm:"default:0"`
	PaidTotal  int64       `json:"paid_total" gorm:"default:0"`
	Note       string      `json:"note" gorm:"type:text"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem is one line of a sales order. UnitPrice is snapshotted from
// the variant at order creation and never follows later price changes.
type OrderItem struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	OrderID          uint            `json:"order_id" gorm:"index;not null"`
	ProductVariantID uint            `json:"product_variant_id" gorm:"not null"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	Qty              int             `json:"qty" gorm:"not null;check:qty > 0"`
	UnitPrice        int64           `json:"unit_price" gorm:"not null"`
	LineTotal        int64           `json:"line_total" gorm:"not null"`
}

// Payment is one payment attempt against an order. VnpTxnRef is minted
// at creation and is the idempotency key for gateway callbacks.
type Payment struct {
	ID              uint          `json:"id" gorm:"primarykey"`
	OrderID         uint          `json:"order_id" gorm:"index;not null"`
	Order           *Order        `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Method          PaymentMethod `json:"method" gorm:"type:varchar(20);default:'vnpay'"`
	Amount          int64         `json:"amount" gorm:"not null"`
	Status          PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TxnCode         string        `json:"txn_code" gorm:"type:varchar(100);index"`
	VnpTxnRef       string        `json:"vnp_txn_ref" gorm:"type:varchar(100);uniqueIndex"`
	VnpResponseCode string        `json:"vnp_response_code" gorm:"type:varchar(10)"`
	VnpBankCode     string        `json:"vnp_bank_code" gorm:"type:varchar(20)"`
	RawResponse     string        `json:"raw_response,omitempty" gorm:"type:text"`
	ErrorMessage    string        `json:"error_message,omitempty" gorm:"type:text"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsSuccessful reports whether the payment went through
func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusSuccess
}

// StockOut is an immutable shipment record. When linked to an order it
// never touches inventory again: the decrement happened at order
// creation. Only manual (order-less) stock outs move the ledger.
type StockOut struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Code      string         `json:"code" gorm:"type:varchar(50);unique;not null"`
	OrderID   *uint          `json:"order_id,omitempty" gorm:"index"`
	Order     *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Note      string         `json:"note" gorm:"type:text"`
	Items     []StockOutItem `json:"items" gorm:"foreignKey:StockOutID"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

// StockOutItem is one shipped line of a stock out
type StockOutItem struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	StockOutID       uint            `json:"stock_out_id" gorm:"index;not null"`
	ProductVariantID uint            `json:"product_variant_id" gorm:"not null"`
	ProductVariant   *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	Qty              int             `json:"qty" gorm:"not null;check:qty > 0"`
}
