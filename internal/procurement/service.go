// Package procurement covers the supply side: purchase orders and the
// goods receipts (stock in) that feed the inventory ledger.
package procurement

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"phonestore-service/internal/inventory"
	"phonestore-service/internal/model"
)

// POStateError is returned for purchase-order transitions attempted from
// the wrong state
type POStateError struct {
	Code      string
	Current   model.PurchaseOrderStatus
	Attempted string
}

func (e *POStateError) Error() string {
	return fmt.Sprintf("cannot %s purchase order %s in status %q", e.Attempted, e.Code, e.Current)
}

// StockLineRequest is one line of a stock-in or manual stock-out request
type StockLineRequest struct {
	ProductVariantID uint  `json:"product_variant_id"`
	Qty              int   `json:"qty"`
	UnitCost         int64 `json:"unit_cost"`
}

// StockInRequest is the input for a goods receipt
type StockInRequest struct {
	Code        string              `json:"code"`
	Source      model.StockInSource `json:"source"`
	ReferenceID *uint               `json:"reference_id"`
	Note        string              `json:"note"`
	Items       []StockLineRequest  `json:"items"`
}

// CreateStockIn receives goods: one transaction that creates the receipt
// header and items and, per item, lazily creates the inventory row and
// increments it with a paired IN movement.
func CreateStockIn(db *gorm.DB, log *zap.Logger, req StockInRequest) (*model.StockIn, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("stock in must have at least one item")
	}
	for _, line := range req.Items {
		if line.Qty < 1 {
			return nil, fmt.Errorf("qty must be at least 1 for variant %d", line.ProductVariantID)
		}
	}

	var stockIn *model.StockIn
	err := db.Transaction(func(tx *gorm.DB) error {
		code := req.Code
		if code == "" {
			code = generateCode("IN")
		}
		source := req.Source
		if source == "" {
			source = model.StockInSourceManual
		}

		stockIn = &model.StockIn{
			Code:        code,
			Source:      source,
			ReferenceID: req.ReferenceID,
			Note:        req.Note,
		}
		if err := tx.Create(stockIn).Error; err != nil {
			return err
		}

		for _, line := range req.Items {
			item := model.StockInItem{
				StockInID:        stockIn.ID,
				ProductVariantID: line.ProductVariantID,
				Qty:              line.Qty,
				UnitCost:         line.UnitCost,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			// First receipt of a variant creates its inventory row
			if _, err := inventory.GetOrCreate(tx, line.ProductVariantID); err != nil {
				return err
			}
			inv, err := inventory.Increment(tx, line.ProductVariantID, line.Qty, model.StockInRef(stockIn.ID))
			if err != nil {
				return err
			}
			log.Info("Received stock",
				zap.String("stock_in_code", stockIn.Code),
				zap.Uint("variant_id", line.ProductVariantID),
				zap.Int("qty", line.Qty),
				zap.Int("on_hand", inv.OnHand))

			stockIn.Items = append(stockIn.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stockIn, nil
}

// ApprovePurchaseOrder moves a draft PO to approved
func ApprovePurchaseOrder(db *gorm.DB, log *zap.Logger, poID uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&po, poID).Error; err != nil {
			return err
		}
		if po.Status != model.POStatusDraft {
			return &POStateError{Code: po.Code, Current: po.Status, Attempted: "approve"}
		}

		now := time.Now()
		po.Status = model.POStatusApproved
		po.ApprovedAt = &now
		if err := tx.Model(&po).Updates(map[string]interface{}{
			"status":      po.Status,
			"approved_at": po.ApprovedAt,
		}).Error; err != nil {
			return err
		}
		log.Info("Purchase order approved", zap.String("po_code", po.Code))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// CancelPurchaseOrder cancels a PO that is not already cancelled
func CancelPurchaseOrder(db *gorm.DB, log *zap.Logger, poID uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&po, poID).Error; err != nil {
			return err
		}
		if po.Status == model.POStatusCancelled {
			return &POStateError{Code: po.Code, Current: po.Status, Attempted: "cancel"}
		}
		po.Status = model.POStatusCancelled
		return tx.Model(&po).Update("status", po.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// CreateStockInFromPO raises a goods receipt mirroring an approved
// purchase order's lines
func CreateStockInFromPO(db *gorm.DB, log *zap.Logger, poID uint) (*model.StockIn, error) {
	var po model.PurchaseOrder
	if err := db.Preload("Items").First(&po, poID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("purchase order %d not found", poID)
		}
		return nil, err
	}
	if po.Status != model.POStatusApproved {
		return nil, &POStateError{Code: po.Code, Current: po.Status, Attempted: "receive"}
	}

	req := StockInRequest{
		Source:      model.StockInSourcePO,
		ReferenceID: &po.ID,
		Note:        fmt.Sprintf("Stock In from PO %s", po.Code),
	}
	for _, item := range po.Items {
		req.Items = append(req.Items, StockLineRequest{
			ProductVariantID: item.ProductVariantID,
			Qty:              item.Qty,
			UnitCost:         item.UnitCost,
		})
	}
	return CreateStockIn(db, log, req)
}

// StockOutRequest is the input for a manual, order-less stock out
type StockOutRequest struct {
	Code  string             `json:"code"`
	Note  string             `json:"note"`
	Items []StockLineRequest `json:"items"`
}

// CreateManualStockOut ships goods outside any order: the only stock-out
// path that decrements inventory (order-linked stock outs are recorded
// at fulfillment without touching the ledger).
func CreateManualStockOut(db *gorm.DB, log *zap.Logger, req StockOutRequest) (*model.StockOut, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("stock out must have at least one item")
	}
	for _, line := range req.Items {
		if line.Qty < 1 {
			return nil, fmt.Errorf("qty must be at least 1 for variant %d", line.ProductVariantID)
		}
	}

	var stockOut *model.StockOut
	err := db.Transaction(func(tx *gorm.DB) error {
		code := req.Code
		if code == "" {
			code = generateCode("OUT")
		}
		stockOut = &model.StockOut{Code: code, Note: req.Note}
		if err := tx.Create(stockOut).Error; err != nil {
			return err
		}

		for _, line := range req.Items {
			item := model.StockOutItem{
				StockOutID:       stockOut.ID,
				ProductVariantID: line.ProductVariantID,
				Qty:              line.Qty,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			inv, err := inventory.Decrement(tx, line.ProductVariantID, line.Qty, model.StockOutRef(stockOut.ID))
			if err != nil {
				return err
			}
			log.Info("Manual stock out",
				zap.String("stock_out_code", stockOut.Code),
				zap.Uint("variant_id", line.ProductVariantID),
				zap.Int("qty", line.Qty),
				zap.Int("on_hand", inv.OnHand))

			stockOut.Items = append(stockOut.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stockOut, nil
}

func generateCode(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, time.Now().Format("20060102150405"))
}
