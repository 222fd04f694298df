package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/internal/procurement"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
)

// POItemRequest is one line of a purchase-order request
type POItemRequest struct {
	ProductVariantID uint  `json:"product_variant_id" validate:"required"`
	Qty              int   `json:"qty" validate:"required,min=1"`
	UnitCost         int64 `json:"unit_cost" validate:"min=0"`
}

// PurchaseOrderRequest defines the structure for purchase-order creation
type PurchaseOrderRequest struct {
	Code       string          `json:"code"`
	SupplierID uint            `json:"supplier_id" validate:"required"`
	Note       string          `json:"note"`
	Items      []POItemRequest `json:"items" validate:"required,dive"`
}

// ListPurchaseOrders handles retrieving purchase orders with optional filters
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Preload("Supplier").Preload("Items")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if supplierID := c.QueryParam("supplier_id"); supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}

	var orders []model.PurchaseOrder
	if result := query.Order("created_at DESC").Find(&orders); result.Error != nil {
		log.Error("Failed to list purchase orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve purchase orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// GetPurchaseOrder handles retrieving a single purchase order with its lines
func GetPurchaseOrder(c echo.Context) error {
	id := c.Param("id")

	var po model.PurchaseOrder
	result := database.GetDB().
		Preload("Supplier").
		Preload("Items.ProductVariant").
		First(&po, id)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase order not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"purchase_order": po,
		"total_amount":   po.TotalAmount(),
	})
}

// CreatePurchaseOrder handles creating a draft purchase order with its lines
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Purchase order must have at least one item"})
	}
	for _, item := range req.Items {
		if item.Qty < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Item qty must be at least 1"})
		}
	}

	var supplier model.Supplier
	if result := database.GetDB().First(&supplier, req.SupplierID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	code := req.Code
	if code == "" {
		code = fmt.Sprintf("PO-%s", time.Now().Format("20060102150405"))
	}

	po := model.PurchaseOrder{
		Code:       code,
		SupplierID: req.SupplierID,
		Status:     model.POStatusDraft,
		Note:       req.Note,
	}
	for _, item := range req.Items {
		po.Items = append(po.Items, model.POItem{
			ProductVariantID: item.ProductVariantID,
			Qty:              item.Qty,
			UnitCost:         item.UnitCost,
		})
	}

	if result := database.GetDB().Create(&po); result.Error != nil {
		log.Error("Failed to create purchase order", zap.String("code", code), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create purchase order"})
	}

	log.Info("Purchase order created successfully",
		zap.String("po_code", po.Code),
		zap.Uint("supplier_id", po.SupplierID),
		zap.Int("item_count", len(po.Items)))
	return c.JSON(http.StatusCreated, po)
}

// ApprovePurchaseOrder handles the draft to approved transition
func ApprovePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase order not found"})
	}

	approved, err := procurement.ApprovePurchaseOrder(database.GetDB(), log, po.ID)
	if err != nil {
		return writeDomainError(c, log, err)
	}

	return c.JSON(http.StatusOK, approved)
}

// CancelPurchaseOrder handles cancelling a purchase order
func CancelPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase order not found"})
	}

	cancelled, err := procurement.CancelPurchaseOrder(database.GetDB(), log, po.ID)
	if err != nil {
		return writeDomainError(c, log, err)
	}

	return c.JSON(http.StatusOK, cancelled)
}

// ReceivePurchaseOrder handles raising a goods receipt from an approved
// purchase order
func ReceivePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase order not found"})
	}

	stockIn, err := procurement.CreateStockInFromPO(database.GetDB(), log, po.ID)
	if err != nil {
		return writeDomainError(c, log, err)
	}

	return c.JSON(http.StatusCreated, stockIn)
}

// ListStockIns handles retrieving goods receipts with optional filters
func ListStockIns(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Preload("Items")
	if source := c.QueryParam("source"); source != "" {
		query = query.Where("source = ?", source)
	}

	var stockIns []model.StockIn
	if result := query.Order("created_at DESC").Find(&stockIns); result.Error != nil {
		log.Error("Failed to list stock ins", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve stock ins"})
	}

	return c.JSON(http.StatusOK, stockIns)
}

// GetStockIn handles retrieving a single goods receipt
func GetStockIn(c echo.Context) error {
	id := c.Param("id")

	var stockIn model.StockIn
	if result := database.GetDB().Preload("Items.ProductVariant").First(&stockIn, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock in not found"})
	}

	return c.JSON(http.StatusOK, stockIn)
}

// CreateStockIn handles a manual goods receipt
func CreateStockIn(c echo.Context) error {
	log := logger.FromContext(c)

	var req procurement.StockInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	stockIn, err := procurement.CreateStockIn(database.GetDB(), log, req)
	if err != nil {
		return writeDomainError(c, log, err)
	}

	return c.JSON(http.StatusCreated, stockIn)
}
