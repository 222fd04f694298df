package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
	"phonestore-service/prometheus"
)

// ListInventory handles retrieving inventory levels with optional filtering
func ListInventory(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Preload("ProductVariant.Product")

	// Filter by low stock threshold
	if lowStock := c.QueryParam("low_stock"); lowStock != "" {
		if threshold, err := strconv.Atoi(lowStock); err == nil {
			query = query.Where("on_hand <= ?", threshold)
		}
	}

	// Filter by stock presence
	if c.QueryParam("out_of_stock") == "true" {
		query = query.Where("on_hand = 0")
	}
	if c.QueryParam("in_stock") == "true" {
		query = query.Where("on_hand > 0")
	}

	var rows []model.Inventory
	if result := query.Find(&rows); result.Error != nil {
		log.Error("Failed to list inventory", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve inventory"})
	}

	// Refresh the on-hand gauge from what was just read
	for _, row := range rows {
		if row.ProductVariant != nil {
			prometheus.UpdateInventoryOnHand(row.ProductVariant.SKU, float64(row.OnHand))
		}
	}

	return c.JSON(http.StatusOK, rows)
}

// LowStockAlert handles retrieving items at or below a threshold but not
// yet out of stock
func LowStockAlert(c echo.Context) error {
	log := logger.FromContext(c)

	threshold := 10
	if param := c.QueryParam("threshold"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil {
			threshold = parsed
		}
	}

	var items []model.Inventory
	result := database.GetDB().
		Preload("ProductVariant.Product").
		Where("on_hand <= ? AND on_hand > 0", threshold).
		Order("on_hand ASC").
		Find(&items)
	if result.Error != nil {
		log.Error("Failed to retrieve low stock items", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve low stock items"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"threshold": threshold,
		"count":     len(items),
		"items":     items,
	})
}

// InventorySummary handles retrieving aggregate stock statistics
func InventorySummary(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	defer prometheus.TrackDBOperation("inventory_summary")(time.Now())

	var totalItems, outOfStock, lowStock int64
	var totalStock int64

	if err := db.Model(&model.Inventory{}).Count(&totalItems).Error; err != nil {
		log.Error("Failed to build inventory summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}
	db.Model(&model.Inventory{}).Where("on_hand = 0").Count(&outOfStock)
	db.Model(&model.Inventory{}).Where("on_hand <= 10 AND on_hand > 0").Count(&lowStock)
	db.Model(&model.Inventory{}).Select("COALESCE(SUM(on_hand), 0)").Scan(&totalStock)

	return c.JSON(http.StatusOK, echo.Map{
		"total_items":        totalItems,
		"total_stock":        totalStock,
		"out_of_stock_count": outOfStock,
		"low_stock_count":    lowStock,
		"in_stock_count":     totalItems - outOfStock,
	})
}

// ListStockMovements handles retrieving the movement log with optional filtering
func ListStockMovements(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Preload("ProductVariant")

	// Filter by movement type
	if mtype := c.QueryParam("type"); mtype != "" {
		query = query.Where("type = ?", strings.ToUpper(mtype))
	}

	// Filter by product variant
	if variant := c.QueryParam("variant_id"); variant != "" {
		query = query.Where("product_variant_id = ?", variant)
	}

	// Filter by reference kind
	if refKind := c.QueryParam("ref_kind"); refKind != "" {
		query = query.Where("ref_kind = ?", refKind)
	}

	// Filter by date range
	if from := c.QueryParam("date_from"); from != "" {
		query = query.Where("created_at >= ?", from)
	}
	if to := c.QueryParam("date_to"); to != "" {
		query = query.Where("created_at <= ?", to)
	}

	var movements []model.StockMovement
	if result := query.Order("created_at DESC").Find(&movements); result.Error != nil {
		log.Error("Failed to list stock movements", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve stock movements"})
	}

	return c.JSON(http.StatusOK, movements)
}

// StockMovementSummary handles the IN/OUT reconciliation view of the log
func StockMovementSummary(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var totalIn, totalOut, count int64
	if err := db.Model(&model.StockMovement{}).Count(&count).Error; err != nil {
		log.Error("Failed to build movement summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}
	db.Model(&model.StockMovement{}).Where("type = ?", model.MovementIn).Select("COALESCE(SUM(qty), 0)").Scan(&totalIn)
	db.Model(&model.StockMovement{}).Where("type = ?", model.MovementOut).Select("COALESCE(SUM(qty), 0)").Scan(&totalOut)

	return c.JSON(http.StatusOK, echo.Map{
		"total_movements": count,
		"total_in":        totalIn,
		"total_out":       totalOut,
		"net_change":      totalIn - totalOut,
	})
}
