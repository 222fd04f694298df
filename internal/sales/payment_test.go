package sales

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"phonestore-service/internal/inventory"
	"phonestore-service/internal/model"
)

func TestCreatePendingPayment(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 2}},
	})
	require.NoError(t, err)

	payment, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "NCB")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, order.Total, payment.Amount)
	assert.Equal(t, "NCB", payment.VnpBankCode)
	assert.True(t, strings.HasPrefix(payment.VnpTxnRef, order.Code+"-"))
}

func TestCreatePendingPaymentNonPendingOrder(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)
	_, err = CancelOrder(db, log, order.ID)
	require.NoError(t, err)

	_, err = CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	var invalidState *InvalidStateError
	require.True(t, errors.As(err, &invalidState))
	assert.Equal(t, model.OrderStatusCancelled, invalidState.Current)
}

func TestConfirmPaymentSuccess(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 2}},
	})
	require.NoError(t, err)
	payment, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)

	result := ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         payment.VnpTxnRef,
		TransactionNo:  "14400001",
		Amount:         order.Total,
		ResponseCode:   "00",
		BankCode:       "NCB",
		SignatureValid: true,
	})
	assert.Equal(t, RspSuccess, result.RspCode)

	var confirmed model.Payment
	require.NoError(t, db.First(&confirmed, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusSuccess, confirmed.Status)
	assert.Equal(t, "14400001", confirmed.TxnCode)
	require.NotNil(t, confirmed.PaidAt)

	var paid model.Order
	require.NoError(t, db.First(&paid, order.ID).Error)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)
	assert.Equal(t, order.Total, paid.PaidTotal)

	// Confirmation never moves stock
	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, onHand)
}

func TestConfirmPaymentDuplicateCallback(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)
	payment, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)

	cb := GatewayCallback{
		TxnRef:         payment.VnpTxnRef,
		TransactionNo:  "14400002",
		Amount:         order.Total,
		ResponseCode:   "00",
		SignatureValid: true,
	}
	first := ConfirmPayment(db, log, cb)
	require.Equal(t, RspSuccess, first.RspCode)

	// The return callback and the IPN carry the same txn ref; the second
	// one acknowledges without touching anything
	second := ConfirmPayment(db, log, cb)
	assert.Equal(t, RspAlreadyConfirmed, second.RspCode)

	var paid model.Order
	require.NoError(t, db.First(&paid, order.ID).Error)
	assert.Equal(t, order.Total, paid.PaidTotal)

	var successes int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", order.ID, model.PaymentStatusSuccess).
		Count(&successes).Error)
	assert.Equal(t, int64(1), successes)
}

func TestConfirmPaymentGatewayFailure(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)
	payment, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)

	result := ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         payment.VnpTxnRef,
		ResponseCode:   "24", // customer cancelled at the gateway
		SignatureValid: true,
	})
	assert.Equal(t, RspSuccess, result.RspCode)

	var failed model.Payment
	require.NoError(t, db.First(&failed, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, failed.Status)
	assert.Equal(t, "24", failed.VnpResponseCode)

	// The order stays pending; a retry or explicit cancel decides its fate
	var pending model.Order
	require.NoError(t, db.First(&pending, order.ID).Error)
	assert.Equal(t, model.OrderStatusPending, pending.Status)
	assert.Equal(t, int64(0), pending.PaidTotal)
}

func TestConfirmPaymentInvalidSignature(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)
	payment, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)

	result := ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         payment.VnpTxnRef,
		ResponseCode:   "00",
		SignatureValid: false,
	})
	assert.Equal(t, RspInvalidSignature, result.RspCode)

	var untouched model.Payment
	require.NoError(t, db.First(&untouched, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusPending, untouched.Status)
}

func TestConfirmPaymentUnknownTxnRef(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()

	result := ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         "ORD-NOPE-123",
		ResponseCode:   "00",
		SignatureValid: true,
	})
	assert.Equal(t, RspNotFound, result.RspCode)
}

func TestConfirmPaymentSecondPendingPayment(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)

	// Both payments are minted while the order is still pending
	first, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)
	second, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)
	require.NotEqual(t, first.VnpTxnRef, second.VnpTxnRef)

	result := ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         first.VnpTxnRef,
		Amount:         order.Total,
		ResponseCode:   "00",
		SignatureValid: true,
	})
	require.Equal(t, RspSuccess, result.RspCode)

	// The second payment's callback must not re-credit the paid order
	result = ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         second.VnpTxnRef,
		Amount:         order.Total + 999,
		ResponseCode:   "00",
		SignatureValid: true,
	})
	assert.Equal(t, RspAlreadyConfirmed, result.RspCode)

	var paid model.Order
	require.NoError(t, db.First(&paid, order.ID).Error)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)
	assert.Equal(t, order.Total, paid.PaidTotal)

	var successes int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", order.ID, model.PaymentStatusSuccess).
		Count(&successes).Error)
	assert.Equal(t, int64(1), successes)

	var rejected model.Payment
	require.NoError(t, db.First(&rejected, second.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, rejected.Status)
}

func TestConfirmPaymentCancelledOrder(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)
	payment, err := CreatePendingPayment(db, log, order.ID, model.PaymentMethodVNPay, "")
	require.NoError(t, err)
	_, err = CancelOrder(db, log, order.ID)
	require.NoError(t, err)

	// The gateway reports success but the order is gone; record the
	// mismatch on the payment, never resurrect the order
	result := ConfirmPayment(db, log, GatewayCallback{
		TxnRef:         payment.VnpTxnRef,
		ResponseCode:   "00",
		Amount:         order.Total,
		SignatureValid: true,
	})
	assert.Equal(t, RspAlreadyConfirmed, result.RspCode)

	var failed model.Payment
	require.NoError(t, db.First(&failed, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, failed.Status)

	var cancelled model.Order
	require.NoError(t, db.First(&cancelled, order.ID).Error)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
}
