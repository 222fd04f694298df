// Package sales owns the order aggregate: the reserve-at-creation
// protocol, the compensating restore on cancellation, payment
// confirmation and the shipment record at fulfillment.
package sales

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"phonestore-service/internal/inventory"
	"phonestore-service/internal/model"
)

// OrderLineRequest is one requested line of a new order
type OrderLineRequest struct {
	ProductVariantID uint `json:"product_variant_id"`
	Qty              int  `json:"qty"`
}

// CreateOrderRequest is the input for order creation. Code is optional;
// a time-based code is generated when absent.
type CreateOrderRequest struct {
	Code       string             `json:"code"`
	CustomerID *uint              `json:"customer_id"`
	Note       string             `json:"note"`
	Items      []OrderLineRequest `json:"items"`
}

// CreateOrder creates a pending order and reserves stock for it in one
// transaction: per line it snapshots the variant's current price,
// decrements inventory under a row lock and appends an OUT movement
// referencing the order. Stock is taken at creation, before payment, so
// a pending order can never be oversold; cancellation restores it.
// Any failure rolls the whole creation back.
func CreateOrder(db *gorm.DB, log *zap.Logger, req CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Message: "order must have at least one item"}
	}
	for _, line := range req.Items {
		if line.Qty < 1 {
			return nil, &ValidationError{Message: fmt.Sprintf("qty must be at least 1 for variant %d", line.ProductVariantID)}
		}
	}

	// Canonical lock order: ascending variant id, so concurrent
	// multi-line orders cannot deadlock on each other's rows
	lines := make([]OrderLineRequest, len(req.Items))
	copy(lines, req.Items)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductVariantID < lines[j].ProductVariantID
	})

	var order *model.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		// Pre-check every line before mutating anything
		for _, line := range lines {
			onHand, err := inventory.OnHand(tx, line.ProductVariantID)
			if err != nil {
				return err
			}
			if onHand < line.Qty {
				return &inventory.InsufficientStockError{
					ProductVariantID: line.ProductVariantID,
					Requested:        line.Qty,
					Available:        onHand,
				}
			}
		}

		code := req.Code
		if code == "" {
			code = GenerateCode("ORD")
		}

		order = &model.Order{
			Code:       code,
			CustomerID: req.CustomerID,
			Status:     model.OrderStatusPending,
			Note:       req.Note,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		log.Info("Created order",
			zap.String("order_code", order.Code),
			zap.Uint("order_id", order.ID))

		var subtotal int64
		for _, line := range lines {
			var variant model.ProductVariant
			if err := tx.First(&variant, line.ProductVariantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ValidationError{Message: fmt.Sprintf("product variant %d not found", line.ProductVariantID)}
				}
				return err
			}

			// Snapshot the price: later catalog changes never touch this line
			item := model.OrderItem{
				OrderID:          order.ID,
				ProductVariantID: variant.ID,
				Qty:              line.Qty,
				UnitPrice:        variant.Price,
				LineTotal:        int64(line.Qty) * variant.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			inv, err := inventory.Decrement(tx, variant.ID, line.Qty, model.OrderRef(order.ID))
			if err != nil {
				return err
			}
			log.Info("Reserved stock for order line",
				zap.String("order_code", order.Code),
				zap.String("variant_sku", variant.SKU),
				zap.Int("qty", line.Qty),
				zap.Int("on_hand", inv.OnHand))

			order.Items = append(order.Items, item)
			subtotal += item.LineTotal
		}

		order.Subtotal = subtotal
		order.Total = subtotal // no tax in this system
		return tx.Model(order).Updates(map[string]interface{}{
			"subtotal": order.Subtotal,
			"total":    order.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels a pending order and restores its reserved stock.
// Restoration only happens for items whose original OUT movement exists;
// an item without one is logged and skipped, never fabricated. A per-item
// restore failure is also logged and skipped so the order does not end
// up stranded half-cancelled.
func CancelOrder(db *gorm.DB, log *zap.Logger, orderID uint) (*model.Order, error) {
	var order model.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status != model.OrderStatusPending {
			return &InvalidStateError{OrderCode: order.Code, Current: order.Status, Attempted: "cancel"}
		}

		var items []model.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}

		for _, item := range items {
			decremented, err := inventory.HasMovement(tx, model.MovementOut, item.ProductVariantID, model.OrderRef(order.ID))
			if err != nil {
				return err
			}
			if !decremented {
				log.Warn("No stock movement found for order item, skipping restore",
					zap.String("order_code", order.Code),
					zap.Uint("variant_id", item.ProductVariantID))
				continue
			}

			inv, err := inventory.Increment(tx, item.ProductVariantID, item.Qty, model.CancellationRef(order.ID))
			if err != nil {
				log.Error("Failed to restore stock for cancelled order item",
					zap.String("order_code", order.Code),
					zap.Uint("variant_id", item.ProductVariantID),
					zap.Error(err))
				continue
			}
			log.Info("Restored stock for cancelled order item",
				zap.String("order_code", order.Code),
				zap.Uint("variant_id", item.ProductVariantID),
				zap.Int("qty", item.Qty),
				zap.Int("on_hand", inv.OnHand))
		}

		order.Status = model.OrderStatusCancelled
		return tx.Model(&order).Update("status", order.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Fulfill records the shipment for a paid order: a StockOut header plus
// one item per order line. Inventory is not touched; the decrement
// happened at order creation, and re-applying it here would double-count.
// At most one fulfillment per order.
func Fulfill(db *gorm.DB, log *zap.Logger, orderID uint, note string) (*model.StockOut, error) {
	var stockOut *model.StockOut
	err := db.Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status != model.OrderStatusPaid {
			return &InvalidStateError{OrderCode: order.Code, Current: order.Status, Attempted: "fulfill"}
		}

		var existing int64
		if err := tx.Model(&model.StockOut{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &InvalidStateError{OrderCode: order.Code, Current: order.Status, Attempted: "fulfill again"}
		}

		if note == "" {
			note = fmt.Sprintf("Fulfillment for order %s", order.Code)
		}
		stockOut = &model.StockOut{
			Code:    GenerateCode("OUT"),
			OrderID: &order.ID,
			Note:    note,
		}
		if err := tx.Create(stockOut).Error; err != nil {
			return err
		}

		var items []model.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			outItem := model.StockOutItem{
				StockOutID:       stockOut.ID,
				ProductVariantID: item.ProductVariantID,
				Qty:              item.Qty,
			}
			if err := tx.Create(&outItem).Error; err != nil {
				return err
			}
			stockOut.Items = append(stockOut.Items, outItem)
		}

		log.Info("Order fulfilled",
			zap.String("order_code", order.Code),
			zap.String("stock_out_code", stockOut.Code),
			zap.Int("items", len(stockOut.Items)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stockOut, nil
}

// GenerateCode builds a time-based document code such as ORD-20250901143015
func GenerateCode(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, time.Now().Format("20060102150405"))
}

func lockOrder(tx *gorm.DB, orderID uint, dst *model.Order) error {
	q := tx
	// SQLite has no FOR UPDATE; its single writer serializes transactions
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(dst, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ValidationError{Message: fmt.Sprintf("order %d not found", orderID)}
	}
	return err
}
