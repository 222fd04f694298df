package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/inventory"
	"phonestore-service/internal/procurement"
	"phonestore-service/internal/sales"
	"phonestore-service/prometheus"
)

// writeDomainError translates domain errors into HTTP responses. Callers
// get the exact shortfall on insufficient stock and the current state on
// rejected transitions; internal errors surface as a generic message only.
func writeDomainError(c echo.Context, log *zap.Logger, err error) error {
	var insufficient *inventory.InsufficientStockError
	var invNotFound *inventory.InventoryNotFoundError
	var invalidState *sales.InvalidStateError
	var poState *procurement.POStateError
	var validation *sales.ValidationError

	switch {
	case errors.As(err, &insufficient):
		prometheus.RecordInsufficientStock()
		return c.JSON(http.StatusConflict, echo.Map{
			"error":              "Insufficient stock",
			"product_variant_id": insufficient.ProductVariantID,
			"requested":          insufficient.Requested,
			"available":          insufficient.Available,
		})
	case errors.As(err, &invNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":              "No inventory record for product variant",
			"product_variant_id": invNotFound.ProductVariantID,
		})
	case errors.As(err, &invalidState):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          err.Error(),
			"order_code":     invalidState.OrderCode,
			"current_status": invalidState.Current,
		})
	case errors.As(err, &poState):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          err.Error(),
			"po_code":        poState.Code,
			"current_status": poState.Current,
		})
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Message})
	default:
		log.Error("Unhandled domain error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}
