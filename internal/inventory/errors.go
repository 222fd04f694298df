package inventory

import "fmt"

// InsufficientStockError is returned when a decrement asks for more than
// the variant has on hand. Available is the quantity seen under the row
// lock, so callers can surface the exact shortfall.
type InsufficientStockError struct {
	ProductVariantID uint
	Requested        int
	Available        int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %d: requested %d, only %d available",
		e.ProductVariantID, e.Requested, e.Available)
}

// InventoryNotFoundError is returned when a variant has no inventory row.
// The sales path never creates rows silently; lazy creation belongs to
// stock-in.
type InventoryNotFoundError struct {
	ProductVariantID uint
}

func (e *InventoryNotFoundError) Error() string {
	return fmt.Sprintf("no inventory record for variant %d", e.ProductVariantID)
}
