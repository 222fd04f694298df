package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string `json:"name" validate:"required"`
	SKU         string `json:"sku" validate:"required"`
	Barcode     string `json:"barcode"`
	BrandID     uint   `json:"brand_id" validate:"required"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// VariantRequest defines the structure for variant creation/update requests
type VariantRequest struct {
	RAM      string `json:"ram"`
	ROM      string `json:"rom"`
	Color    string `json:"color"`
	SKU      string `json:"sku" validate:"required"`
	Price    int64  `json:"price" validate:"required,gt=0"`
	IsActive bool   `json:"is_active"`
}

// ListProducts handles retrieving all products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Preload("Brand")

	// Filter by active status if specified
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive))
		}
	}

	// Filter by brand if specified
	if brandID := c.QueryParam("brand_id"); brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}

	var products []model.Product
	if result := query.Find(&products); result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product with its variants
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var product model.Product
	result := database.GetDB().Preload("Brand").First(&product, id)
	if result.Error != nil {
		log.Warn("Product not found", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	var variants []model.ProductVariant
	database.GetDB().Where("product_id = ?", product.ID).Find(&variants)

	return c.JSON(http.StatusOK, echo.Map{
		"product":  product,
		"variants": variants,
	})
}

// CreateProduct handles creating a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	// Check if product with SKU already exists
	var count int64
	database.GetDB().Model(&model.Product{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Product with this SKU already exists"})
	}

	product := model.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Barcode:     req.Barcode,
		BrandID:     req.BrandID,
		Description: req.Description,
		IsActive:    req.IsActive,
	}

	if result := database.GetDB().Create(&product); result.Error != nil {
		log.Error("Failed to create product",
			zap.String("sku", req.SKU),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product"})
	}

	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var product model.Product
	if result := database.GetDB().First(&product, id); result.Error != nil {
		log.Warn("Product not found for update", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	// Check if SKU is changed and if new SKU already exists
	if req.SKU != product.SKU {
		var count int64
		database.GetDB().Model(&model.Product{}).Where("sku = ? AND id != ?", req.SKU, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Product with this SKU already exists"})
		}
	}

	product.Name = req.Name
	product.SKU = req.SKU
	product.Barcode = req.Barcode
	product.BrandID = req.BrandID
	product.Description = req.Description
	product.IsActive = req.IsActive

	if result := database.GetDB().Save(&product); result.Error != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product (soft delete)
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete product"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// CreateVariant handles adding a variant to a product
func CreateVariant(c echo.Context) error {
	log := logger.FromContext(c)
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var product model.Product
	if result := database.GetDB().First(&product, productID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	// Check if variant with SKU already exists
	var count int64
	database.GetDB().Model(&model.ProductVariant{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Variant with this SKU already exists"})
	}

	variant := model.ProductVariant{
		ProductID: product.ID,
		RAM:       req.RAM,
		ROM:       req.ROM,
		Color:     req.Color,
		SKU:       req.SKU,
		Price:     req.Price,
		IsActive:  req.IsActive,
	}

	if result := database.GetDB().Create(&variant); result.Error != nil {
		log.Error("Failed to create variant", zap.String("sku", req.SKU), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create variant"})
	}

	log.Info("Variant created successfully",
		zap.Uint("variant_id", variant.ID),
		zap.String("sku", variant.SKU),
		zap.Int64("price", variant.Price))
	return c.JSON(http.StatusCreated, variant)
}

// UpdateVariant handles updating an existing variant. Price changes here
// never affect existing order lines, which keep their snapshot price.
func UpdateVariant(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("variant_id")

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var variant model.ProductVariant
	if result := database.GetDB().First(&variant, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Variant not found"})
	}

	oldPrice := variant.Price
	variant.RAM = req.RAM
	variant.ROM = req.ROM
	variant.Color = req.Color
	variant.SKU = req.SKU
	variant.Price = req.Price
	variant.IsActive = req.IsActive

	if result := database.GetDB().Save(&variant); result.Error != nil {
		log.Error("Failed to update variant", zap.String("variant_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update variant"})
	}

	log.Info("Variant updated successfully",
		zap.String("variant_id", id),
		zap.Int64("old_price", oldPrice),
		zap.Int64("new_price", variant.Price))
	return c.JSON(http.StatusOK, variant)
}
