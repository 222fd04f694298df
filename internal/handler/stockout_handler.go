package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/internal/procurement"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
)

// ListStockOuts handles retrieving stock outs with optional filters
func ListStockOuts(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Preload("Items")
	if orderID := c.QueryParam("order_id"); orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	if c.QueryParam("manual") == "true" {
		query = query.Where("order_id IS NULL")
	}

	var stockOuts []model.StockOut
	if result := query.Order("created_at DESC").Find(&stockOuts); result.Error != nil {
		log.Error("Failed to list stock outs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve stock outs"})
	}

	return c.JSON(http.StatusOK, stockOuts)
}

// GetStockOut handles retrieving a single stock out
func GetStockOut(c echo.Context) error {
	id := c.Param("id")

	var stockOut model.StockOut
	if result := database.GetDB().Preload("Items.ProductVariant").First(&stockOut, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock out not found"})
	}

	return c.JSON(http.StatusOK, stockOut)
}

// CreateStockOut handles a manual, order-less stock out. Order-linked
// stock outs are created by the fulfillment endpoint instead.
func CreateStockOut(c echo.Context) error {
	log := logger.FromContext(c)

	var req procurement.StockOutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	stockOut, err := procurement.CreateManualStockOut(database.GetDB(), log, req)
	if err != nil {
		return writeDomainError(c, log, err)
	}

	return c.JSON(http.StatusCreated, stockOut)
}
