// Package inventory is the stock ledger. On-hand quantities are mutated
// only through Increment and Decrement, each of which pairs the change
// with exactly one StockMovement row inside the caller's transaction.
package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"phonestore-service/internal/model"
	"phonestore-service/prometheus"
)

// GetOrCreate returns the inventory row for a variant, creating it with
// on_hand=0 on first access. Safe under concurrent first access: the
// unique index on product_variant_id arbitrates, and the loser of the
// race re-reads the winner's row.
func GetOrCreate(tx *gorm.DB, variantID uint) (*model.Inventory, error) {
	var inv model.Inventory
	err := tx.Where("product_variant_id = ?", variantID).First(&inv).Error
	if err == nil {
		return &inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	inv = model.Inventory{ProductVariantID: variantID, OnHand: 0}
	if err := tx.Create(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race; the row exists now
			if err := tx.Where("product_variant_id = ?", variantID).First(&inv).Error; err != nil {
				return nil, err
			}
			return &inv, nil
		}
		return nil, err
	}
	return &inv, nil
}

// Decrement subtracts qty from a variant's on-hand and appends the
// matching OUT movement. The inventory row is locked for the duration of
// the transaction and sufficiency is re-checked under the lock, so two
// concurrent decrements of the same variant serialize and the second
// sees the first's result. Must run inside a transaction.
func Decrement(tx *gorm.DB, variantID uint, qty int, ref model.MovementRef) (*model.Inventory, error) {
	inv, err := lockInventory(tx, variantID)
	if err != nil {
		return nil, err
	}

	if inv.OnHand < qty {
		return nil, &InsufficientStockError{
			ProductVariantID: variantID,
			Requested:        qty,
			Available:        inv.OnHand,
		}
	}

	inv.OnHand -= qty
	if err := tx.Save(inv).Error; err != nil {
		return nil, err
	}

	if err := appendMovement(tx, model.MovementOut, variantID, qty, ref); err != nil {
		return nil, err
	}
	return inv, nil
}

// Increment adds qty to a variant's on-hand and appends the matching IN
// movement, under the same locking discipline as Decrement. There is no
// upper bound. Must run inside a transaction.
func Increment(tx *gorm.DB, variantID uint, qty int, ref model.MovementRef) (*model.Inventory, error) {
	inv, err := lockInventory(tx, variantID)
	if err != nil {
		return nil, err
	}

	inv.OnHand += qty
	if err := tx.Save(inv).Error; err != nil {
		return nil, err
	}

	if err := appendMovement(tx, model.MovementIn, variantID, qty, ref); err != nil {
		return nil, err
	}
	return inv, nil
}

// OnHand returns the current on-hand quantity without locking
func OnHand(db *gorm.DB, variantID uint) (int, error) {
	var inv model.Inventory
	err := db.Where("product_variant_id = ?", variantID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &InventoryNotFoundError{ProductVariantID: variantID}
		}
		return 0, err
	}
	return inv.OnHand, nil
}

// HasMovement reports whether a movement of the given type and reference
// exists for a variant
func HasMovement(db *gorm.DB, mtype model.MovementType, variantID uint, ref model.MovementRef) (bool, error) {
	var count int64
	err := db.Model(&model.StockMovement{}).
		Where("type = ? AND product_variant_id = ? AND ref_kind = ? AND ref_id = ?",
			mtype, variantID, ref.Kind, ref.ID).
		Count(&count).Error
	return count > 0, err
}

func lockInventory(tx *gorm.DB, variantID uint) (*model.Inventory, error) {
	var inv model.Inventory
	err := lockForUpdate(tx).Where("product_variant_id = ?", variantID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &InventoryNotFoundError{ProductVariantID: variantID}
		}
		return nil, err
	}
	return &inv, nil
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	// SQLite has no FOR UPDATE; its single writer serializes transactions
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func appendMovement(tx *gorm.DB, mtype model.MovementType, variantID uint, qty int, ref model.MovementRef) error {
	if qty <= 0 {
		return fmt.Errorf("movement qty must be positive, got %d", qty)
	}
	if !ref.Valid() {
		return fmt.Errorf("invalid movement reference %s", ref)
	}
	movement := model.StockMovement{
		Type:             mtype,
		ProductVariantID: variantID,
		Qty:              qty,
		Ref:              ref,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return err
	}
	prometheus.RecordStockMovement(string(mtype), string(ref.Kind))
	return nil
}
