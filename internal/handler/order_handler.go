package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/internal/sales"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
	"phonestore-service/prometheus"
)

// ListOrders handles retrieving all orders with optional filtering
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)

	db := database.GetDB()
	query := db.Preload("Items").Preload("Customer")

	// Filter by status
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	// Filter by customer
	if customer := c.QueryParam("customer_id"); customer != "" {
		query = query.Where("customer_id = ?", customer)
	}

	// Filter by date range
	if from := c.QueryParam("date_from"); from != "" {
		query = query.Where("created_at >= ?", from)
	}
	if to := c.QueryParam("date_to"); to != "" {
		query = query.Where("created_at <= ?", to)
	}

	var orders []model.Order
	if result := query.Order("created_at DESC").Find(&orders); result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	log.Info("Orders retrieved", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles retrieving a single order by ID
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var order model.Order
	result := database.GetDB().
		Preload("Items.ProductVariant").
		Preload("Customer").
		First(&order, id)
	if result.Error != nil {
		log.Warn("Order not found", zap.String("order_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	return c.JSON(http.StatusOK, order)
}

// CreateOrder handles order creation: stock is validated and reserved
// inside the same transaction that creates the order
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req sales.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("Order creation request",
		zap.Int("items", len(req.Items)),
		zap.String("code", req.Code))

	order, err := sales.CreateOrder(database.GetDB(), log, req)
	if err != nil {
		prometheus.RecordOrderOperation("create", "failed")
		return writeDomainError(c, log, err)
	}

	prometheus.RecordOrderOperation("create", "success")
	log.Info("Order created",
		zap.String("order_code", order.Code),
		zap.Int64("total", order.Total))
	return c.JSON(http.StatusCreated, order)
}

// CancelOrder handles cancelling a pending order and restoring its stock
func CancelOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	order, err := sales.CancelOrder(database.GetDB(), log, uint(id))
	if err != nil {
		prometheus.RecordOrderOperation("cancel", "failed")
		return writeDomainError(c, log, err)
	}

	prometheus.RecordOrderOperation("cancel", "success")
	log.Info("Order cancelled", zap.String("order_code", order.Code))
	return c.JSON(http.StatusOK, order)
}

// FulfillOrder handles recording the shipment for a paid order
func FulfillOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	stockOut, err := sales.Fulfill(database.GetDB(), log, uint(id), req.Note)
	if err != nil {
		prometheus.RecordOrderOperation("fulfill", "failed")
		return writeDomainError(c, log, err)
	}

	prometheus.RecordOrderOperation("fulfill", "success")
	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Order fulfilled successfully",
		"stock_out": stockOut,
	})
}

// ListOrderPayments handles retrieving all payments for an order
func ListOrderPayments(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var order model.Order
	if result := database.GetDB().First(&order, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	var payments []model.Payment
	if result := database.GetDB().Where("order_id = ?", order.ID).Order("created_at DESC").Find(&payments); result.Error != nil {
		log.Error("Failed to list payments", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve payments"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order_code": order.Code,
		"count":      len(payments),
		"payments":   payments,
	})
}
