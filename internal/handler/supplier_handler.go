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

// SupplierRequest defines the structure for supplier creation/update requests
type SupplierRequest struct {
	Name     string `json:"name" validate:"required"`
	Contact  string `json:"contact"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Note     string `json:"note"`
	IsActive bool   `json:"is_active"`
}

// ListSuppliers handles retrieving all suppliers with optional filtering
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB()
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		}
	}

	var suppliers []model.Supplier
	if result := query.Order("name ASC").Find(&suppliers); result.Error != nil {
		log.Error("Failed to list suppliers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve suppliers"})
	}

	return c.JSON(http.StatusOK, suppliers)
}

// GetSupplier handles retrieving a single supplier by ID
func GetSupplier(c echo.Context) error {
	id := c.Param("id")

	var supplier model.Supplier
	if result := database.GetDB().First(&supplier, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	return c.JSON(http.StatusOK, supplier)
}

// CreateSupplier handles creating a new supplier
func CreateSupplier(c echo.Context) error {
	log := logger.FromContext(c)

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	supplier := model.Supplier{
		Name:     req.Name,
		Contact:  req.Contact,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Note:     req.Note,
		IsActive: req.IsActive,
	}
	if result := database.GetDB().Create(&supplier); result.Error != nil {
		log.Error("Failed to create supplier", zap.String("name", req.Name), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create supplier"})
	}

	log.Info("Supplier created successfully", zap.Uint("supplier_id", supplier.ID))
	return c.JSON(http.StatusCreated, supplier)
}

// UpdateSupplier handles updating an existing supplier
func UpdateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var supplier model.Supplier
	if result := database.GetDB().First(&supplier, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	supplier.Name = req.Name
	supplier.Contact = req.Contact
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	supplier.Note = req.Note
	supplier.IsActive = req.IsActive

	if result := database.GetDB().Save(&supplier); result.Error != nil {
		log.Error("Failed to update supplier", zap.String("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update supplier"})
	}

	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier handles deleting a supplier (soft delete)
func DeleteSupplier(c echo.Context) error {
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Supplier{}, id)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete supplier"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Supplier deleted successfully"})
}
