package sales

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"phonestore-service/internal/model"
)

// GatewayCallback carries the fields of a verified-or-not gateway
// callback. TxnRef is the reference this service minted at payment
// creation; it keys the confirmation, so duplicate callbacks (the
// user-facing return plus the server-to-server IPN for the same event)
// resolve to the same payment row.
type GatewayCallback struct {
	TxnRef         string
	TransactionNo  string
	Amount         int64
	ResponseCode   string
	BankCode       string
	RawQuery       string
	SignatureValid bool
}

// ConfirmResult is the structured acknowledgement the gateway receives.
// The handler never lets an error escape past this; retry storms on the
// gateway side are worse than a logged failure here.
type ConfirmResult struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
	Order   *model.Order
	Payment *model.Payment
}

// Gateway acknowledgement codes
const (
	RspSuccess          = "00"
	RspNotFound         = "01"
	RspAlreadyConfirmed = "02"
	RspInvalidSignature = "97"
	RspInternalError    = "99"
)

// CreatePendingPayment mints a pending payment for an order with a
// unique gateway transaction reference. The reference is what callbacks
// are later resolved by.
func CreatePendingPayment(db *gorm.DB, log *zap.Logger, orderID uint, method model.PaymentMethod, bankCode string) (*model.Payment, error) {
	var payment *model.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status != model.OrderStatusPending {
			return &InvalidStateError{OrderCode: order.Code, Current: order.Status, Attempted: "pay"}
		}

		payment = &model.Payment{
			OrderID:     order.ID,
			Method:      method,
			Amount:      order.Total,
			Status:      model.PaymentStatusPending,
			VnpTxnRef:   fmt.Sprintf("%s-%d", order.Code, time.Now().UnixNano()),
			VnpBankCode: bankCode,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		log.Info("Created pending payment",
			zap.String("order_code", order.Code),
			zap.String("txn_ref", payment.VnpTxnRef),
			zap.Int64("amount", payment.Amount))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ConfirmPayment processes a gateway callback. The payment is found by
// the transaction reference stored at creation; an already-success
// payment is acknowledged without touching anything, so duplicate
// callbacks cannot double-credit revenue or re-transition the order.
// Inventory is never involved: stock was reserved at order creation.
func ConfirmPayment(db *gorm.DB, log *zap.Logger, cb GatewayCallback) ConfirmResult {
	if !cb.SignatureValid {
		log.Warn("Payment callback with invalid signature",
			zap.String("txn_ref", cb.TxnRef))
		return ConfirmResult{RspCode: RspInvalidSignature, Message: "Invalid signature"}
	}

	var result ConfirmResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var payment model.Payment
		err := tx.Where("vnp_txn_ref = ?", cb.TxnRef).First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = ConfirmResult{RspCode: RspNotFound, Message: "Payment not found"}
			return nil
		}
		if err != nil {
			return err
		}

		if payment.Status == model.PaymentStatusSuccess {
			// Duplicate callback for an already confirmed payment: no-op
			log.Info("Duplicate payment callback ignored",
				zap.String("txn_ref", cb.TxnRef))
			result = ConfirmResult{RspCode: RspAlreadyConfirmed, Message: "Payment already confirmed", Payment: &payment}
			return nil
		}

		var order model.Order
		if err := lockOrder(tx, payment.OrderID, &order); err != nil {
			return err
		}

		payment.TxnCode = cb.TransactionNo
		payment.VnpResponseCode = cb.ResponseCode
		payment.VnpBankCode = cb.BankCode
		payment.RawResponse = cb.RawQuery

		if cb.ResponseCode != "00" {
			payment.Status = model.PaymentStatusFailed
			payment.ErrorMessage = fmt.Sprintf("gateway response code %s", cb.ResponseCode)
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			log.Warn("Payment failed at gateway",
				zap.String("order_code", order.Code),
				zap.String("txn_ref", cb.TxnRef),
				zap.String("response_code", cb.ResponseCode))
			// Order stays pending; cancellation is a separate, explicit step
			result = ConfirmResult{RspCode: RspSuccess, Message: "Payment failure recorded", Order: &order, Payment: &payment}
			return nil
		}

		if order.Status == model.OrderStatusCancelled {
			payment.Status = model.PaymentStatusFailed
			payment.ErrorMessage = "order was cancelled before confirmation"
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			log.Warn("Payment confirmation for cancelled order",
				zap.String("order_code", order.Code),
				zap.String("txn_ref", cb.TxnRef))
			result = ConfirmResult{RspCode: RspAlreadyConfirmed, Message: "Order is cancelled", Order: &order, Payment: &payment}
			return nil
		}

		// An order can carry several pending payments; only the first
		// verified one transitions it. A later callback for a different
		// payment must not re-credit the order or move paid_total.
		if order.Status == model.OrderStatusPaid {
			payment.Status = model.PaymentStatusFailed
			payment.ErrorMessage = "order was already paid by another payment"
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			log.Warn("Payment confirmation for already paid order",
				zap.String("order_code", order.Code),
				zap.String("txn_ref", cb.TxnRef))
			result = ConfirmResult{RspCode: RspAlreadyConfirmed, Message: "Order is already paid", Order: &order, Payment: &payment}
			return nil
		}

		now := time.Now()
		payment.Status = model.PaymentStatusSuccess
		payment.PaidAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		order.Status = model.OrderStatusPaid
		order.PaidTotal = cb.Amount
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":     order.Status,
			"paid_total": order.PaidTotal,
		}).Error; err != nil {
			return err
		}

		log.Info("Payment confirmed",
			zap.String("order_code", order.Code),
			zap.String("txn_ref", cb.TxnRef),
			zap.Int64("amount", cb.Amount))
		result = ConfirmResult{RspCode: RspSuccess, Message: "Confirm success", Order: &order, Payment: &payment}
		return nil
	})
	if err != nil {
		log.Error("Payment confirmation failed", zap.String("txn_ref", cb.TxnRef), zap.Error(err))
		return ConfirmResult{RspCode: RspInternalError, Message: "Internal error"}
	}
	return result
}
