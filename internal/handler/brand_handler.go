package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
)

// BrandRequest defines the structure for brand creation/update requests
type BrandRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// ListBrands handles retrieving all brands
func ListBrands(c echo.Context) error {
	log := logger.FromContext(c)

	var brands []model.Brand
	if result := database.GetDB().Order("name ASC").Find(&brands); result.Error != nil {
		log.Error("Failed to list brands", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve brands"})
	}

	return c.JSON(http.StatusOK, brands)
}

// GetBrand handles retrieving a single brand by ID
func GetBrand(c echo.Context) error {
	id := c.Param("id")

	var brand model.Brand
	if result := database.GetDB().First(&brand, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Brand not found"})
	}

	return c.JSON(http.StatusOK, brand)
}

// CreateBrand handles creating a new brand
func CreateBrand(c echo.Context) error {
	log := logger.FromContext(c)

	var req BrandRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var count int64
	database.GetDB().Model(&model.Brand{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Brand with this name already exists"})
	}

	slug := req.Slug
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(req.Name, " ", "-"))
	}

	brand := model.Brand{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if result := database.GetDB().Create(&brand); result.Error != nil {
		log.Error("Failed to create brand", zap.String("name", req.Name), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create brand"})
	}

	log.Info("Brand created successfully", zap.Uint("brand_id", brand.ID), zap.String("name", brand.Name))
	return c.JSON(http.StatusCreated, brand)
}

// UpdateBrand handles updating an existing brand
func UpdateBrand(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req BrandRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var brand model.Brand
	if result := database.GetDB().First(&brand, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Brand not found"})
	}

	brand.Name = req.Name
	if req.Slug != "" {
		brand.Slug = req.Slug
	}
	brand.Description = req.Description
	brand.IsActive = req.IsActive

	if result := database.GetDB().Save(&brand); result.Error != nil {
		log.Error("Failed to update brand", zap.String("brand_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update brand"})
	}

	return c.JSON(http.StatusOK, brand)
}

// DeleteBrand handles deleting a brand (soft delete)
func DeleteBrand(c echo.Context) error {
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Brand{}, id)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete brand"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Brand not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Brand deleted successfully"})
}
