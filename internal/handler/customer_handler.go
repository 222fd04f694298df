package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
)

// CustomerRequest defines the structure for customer creation/update requests
type CustomerRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

// ListCustomers handles retrieving all customers with optional search
func ListCustomers(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB()
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", like, like)
	}

	var customers []model.Customer
	if result := query.Order("created_at DESC").Find(&customers); result.Error != nil {
		log.Error("Failed to list customers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve customers"})
	}

	return c.JSON(http.StatusOK, customers)
}

// GetCustomer handles retrieving a single customer by ID
func GetCustomer(c echo.Context) error {
	id := c.Param("id")

	var customer model.Customer
	if result := database.GetDB().First(&customer, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
	}

	return c.JSON(http.StatusOK, customer)
}

// CreateCustomer handles creating a new customer
func CreateCustomer(c echo.Context) error {
	log := logger.FromContext(c)

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var count int64
	database.GetDB().Model(&model.Customer{}).Where("phone = ?", req.Phone).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Customer with this phone already exists"})
	}

	customer := model.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Note:    req.Note,
	}
	if result := database.GetDB().Create(&customer); result.Error != nil {
		log.Error("Failed to create customer", zap.String("phone", req.Phone), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create customer"})
	}

	log.Info("Customer created successfully", zap.Uint("customer_id", customer.ID))
	return c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles updating an existing customer
func UpdateCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var customer model.Customer
	if result := database.GetDB().First(&customer, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
	}

	customer.Name = req.Name
	customer.Phone = req.Phone
	customer.Email = req.Email
	customer.Address = req.Address
	customer.Note = req.Note

	if result := database.GetDB().Save(&customer); result.Error != nil {
		log.Error("Failed to update customer", zap.String("customer_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update customer"})
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles deleting a customer (soft delete)
func DeleteCustomer(c echo.Context) error {
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Customer{}, id)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete customer"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Customer deleted successfully"})
}
