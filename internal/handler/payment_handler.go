package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"phonestore-service/internal/model"
	"phonestore-service/internal/sales"
	"phonestore-service/internal/vnpay"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/logger"
	"phonestore-service/prometheus"
)

var gateway *vnpay.Service

// InitPaymentGateway wires the VNPay service used by the payment handlers
func InitPaymentGateway(svc *vnpay.Service) {
	gateway = svc
}

// CreateVNPayPayment creates a pending payment for an order and returns
// the signed gateway redirect URL
func CreateVNPayPayment(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req struct {
		BankCode string `json:"bank_code"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var order model.Order
	if result := database.GetDB().First(&order, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	payment, err := sales.CreatePendingPayment(database.GetDB(), log, order.ID, model.PaymentMethodVNPay, req.BankCode)
	if err != nil {
		return writeDomainError(c, log, err)
	}

	paymentURL, err := gateway.CreatePaymentURL(vnpay.PaymentURLRequest{
		TxnRef:    payment.VnpTxnRef,
		Amount:    payment.Amount,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", order.Code),
		IPAddr:    c.RealIP(),
		BankCode:  req.BankCode,
	})
	if err != nil {
		log.Error("Failed to create payment URL",
			zap.String("order_code", order.Code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create payment URL"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payment_id":  payment.ID,
		"payment_url": paymentURL,
		"txn_ref":     payment.VnpTxnRef,
		"order_code":  order.Code,
		"amount":      payment.Amount,
		"is_sandbox":  gateway.IsSandbox(),
	})
}

// VNPayReturn handles the user-facing return callback from VNPay
func VNPayReturn(c echo.Context) error {
	log := logger.FromContext(c)

	params := flattenQuery(c)
	log.Info("VNPay return callback received", zap.String("txn_ref", params["vnp_TxnRef"]))

	data := gateway.ValidateCallback(params)
	result := sales.ConfirmPayment(database.GetDB(), log, callbackFromData(data))
	prometheus.RecordPaymentCallback("return", result.RspCode)

	status := "failed"
	if result.RspCode == sales.RspSuccess || result.RspCode == sales.RspAlreadyConfirmed {
		status = "success"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payment_status": status,
		"RspCode":        result.RspCode,
		"Message":        result.Message,
	})
}

// VNPayIPN handles VNPay's server-to-server notification. The gateway
// always gets a structured acknowledgement, whatever happened inside.
func VNPayIPN(c echo.Context) error {
	log := logger.FromContext(c)

	params := flattenQuery(c)
	log.Info("VNPay IPN received", zap.String("txn_ref", params["vnp_TxnRef"]))

	data := gateway.ValidateCallback(params)
	result := sales.ConfirmPayment(database.GetDB(), log, callbackFromData(data))
	prometheus.RecordPaymentCallback("ipn", result.RspCode)

	return c.JSON(http.StatusOK, echo.Map{
		"RspCode": result.RspCode,
		"Message": result.Message,
	})
}

// VNPayConfig exposes the gateway configuration the frontend needs
func VNPayConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"is_sandbox":      gateway.IsSandbox(),
		"return_url":      gateway.ReturnURL(),
		"banks":           gateway.BankList(),
		"payment_methods": gateway.PaymentMethods(),
	})
}

func flattenQuery(c echo.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func callbackFromData(data vnpay.CallbackData) sales.GatewayCallback {
	return sales.GatewayCallback{
		TxnRef:         data.TxnRef,
		TransactionNo:  data.TransactionNo,
		Amount:         data.Amount,
		ResponseCode:   data.ResponseCode,
		BankCode:       data.BankCode,
		RawQuery:       data.RawQuery,
		SignatureValid: data.SignatureValid,
	}
}
