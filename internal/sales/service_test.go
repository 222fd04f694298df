package sales

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"phonestore-service/internal/inventory"
	"phonestore-service/internal/model"
	"phonestore-service/pkg/database"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// seedVariant creates a brand, product and variant and stocks it
func seedVariant(t *testing.T, db *gorm.DB, sku string, price int64, onHand int) *model.ProductVariant {
	t.Helper()

	brand := model.Brand{Name: "Brand " + sku, Slug: "brand-" + sku}
	require.NoError(t, db.Create(&brand).Error)

	product := model.Product{Name: "Product " + sku, SKU: "P-" + sku, BrandID: brand.ID, IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	variant := model.ProductVariant{
		ProductID: product.ID,
		RAM:       "8GB",
		ROM:       "256GB",
		Color:     "Black",
		SKU:       sku,
		Price:     price,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&variant).Error)

	if onHand > 0 {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			if _, err := inventory.GetOrCreate(tx, variant.ID); err != nil {
				return err
			}
			_, err := inventory.Increment(tx, variant.ID, onHand, model.StockInRef(1))
			return err
		}))
	} else {
		_, err := inventory.GetOrCreate(db, variant.ID)
		require.NoError(t, err)
	}
	return &variant
}

func TestCreateOrderReservesStock(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 15_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(75_000_000), order.Subtotal)
	assert.Equal(t, int64(75_000_000), order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(15_000_000), order.Items[0].UnitPrice)

	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, onHand)

	found, err := inventory.HasMovement(db, model.MovementOut, variant.ID, model.OrderRef(order.ID))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCreateOrderPriceSnapshot(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 20_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)

	// A later price change never touches existing lines
	require.NoError(t, db.Model(variant).Update("price", int64(25_000_000)).Error)

	var item model.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&item).Error)
	assert.Equal(t, int64(20_000_000), item.UnitPrice)
	assert.Equal(t, int64(20_000_000), item.LineTotal)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 3)

	_, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 4}},
	})
	var insufficient *inventory.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 4, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)

	// Nothing persists on failure
	var orders int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(0), orders)
	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, onHand)
}

func TestCreateOrderMultiLineAtomicity(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	good := seedVariant(t, db, "SKU-A", 10_000_000, 10)
	short := seedVariant(t, db, "SKU-B", 12_000_000, 1)

	_, err := CreateOrder(db, log, CreateOrderRequest{
		Code: "ORD-T1",
		Items: []OrderLineRequest{
			{ProductVariantID: good.ID, Qty: 2},
			{ProductVariantID: short.ID, Qty: 5},
		},
	})
	var insufficient *inventory.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, short.ID, insufficient.ProductVariantID)

	// The good line's reservation rolled back with the rest
	onHand, err := inventory.OnHand(db, good.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, onHand)

	var orders, items, movements int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&items).Error)
	require.NoError(t, db.Model(&model.StockMovement{}).Where("type = ?", model.MovementOut).Count(&movements).Error)
	assert.Equal(t, int64(0), orders)
	assert.Equal(t, int64(0), items)
	assert.Equal(t, int64(0), movements)
}

func TestCreateOrderValidation(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()

	var validation *ValidationError

	_, err := CreateOrder(db, log, CreateOrderRequest{Code: "ORD-T1"})
	require.True(t, errors.As(err, &validation))

	_, err = CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T2",
		Items: []OrderLineRequest{{ProductVariantID: 1, Qty: 0}},
	})
	require.True(t, errors.As(err, &validation))
}

func TestCancelOrderRestoresStock(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 4}},
	})
	require.NoError(t, err)

	cancelled, err := CancelOrder(db, log, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, onHand)

	// The ledger keeps both sides of the round trip
	out, err := inventory.HasMovement(db, model.MovementOut, variant.ID, model.OrderRef(order.ID))
	require.NoError(t, err)
	assert.True(t, out)
	in, err := inventory.HasMovement(db, model.MovementIn, variant.ID, model.CancellationRef(order.ID))
	require.NoError(t, err)
	assert.True(t, in)
}

func TestCancelOrderOnlyPending(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 2}},
	})
	require.NoError(t, err)

	_, err = CancelOrder(db, log, order.ID)
	require.NoError(t, err)

	// Second cancel rejects and does not restore again
	_, err = CancelOrder(db, log, order.ID)
	var invalidState *InvalidStateError
	require.True(t, errors.As(err, &invalidState))
	assert.Equal(t, model.OrderStatusCancelled, invalidState.Current)

	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, onHand)
}

func TestCancelPaidOrderRejected(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(order).Update("status", model.OrderStatusPaid).Error)

	_, err = CancelOrder(db, log, order.ID)
	var invalidState *InvalidStateError
	require.True(t, errors.As(err, &invalidState))
	assert.Equal(t, model.OrderStatusPaid, invalidState.Current)
}

func TestFulfillPaidOrderOnce(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 3}},
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(order).Update("status", model.OrderStatusPaid).Error)

	stockOut, err := Fulfill(db, log, order.ID, "")
	require.NoError(t, err)
	require.NotNil(t, stockOut.OrderID)
	assert.Equal(t, order.ID, *stockOut.OrderID)
	require.Len(t, stockOut.Items, 1)
	assert.Equal(t, 3, stockOut.Items[0].Qty)

	// Fulfillment records the shipment without touching inventory
	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, onHand)

	_, err = Fulfill(db, log, order.ID, "")
	var invalidState *InvalidStateError
	require.True(t, errors.As(err, &invalidState))

	var stockOuts int64
	require.NoError(t, db.Model(&model.StockOut{}).Where("order_id = ?", order.ID).Count(&stockOuts).Error)
	assert.Equal(t, int64(1), stockOuts)
	onHand, err = inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, onHand)
}

func TestFulfillPendingOrderRejected(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 10)

	order, err := CreateOrder(db, log, CreateOrderRequest{
		Code:  "ORD-T1",
		Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 1}},
	})
	require.NoError(t, err)

	_, err = Fulfill(db, log, order.ID, "")
	var invalidState *InvalidStateError
	require.True(t, errors.As(err, &invalidState))
	assert.Equal(t, model.OrderStatusPending, invalidState.Current)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()
	variant := seedVariant(t, db, "SKU-A", 10_000_000, 10)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = CreateOrder(db, log, CreateOrderRequest{
				Code:  fmt.Sprintf("ORD-C%d", i),
				Items: []OrderLineRequest{{ProductVariantID: variant.ID, Qty: 6}},
			})
		}(i)
	}
	wg.Wait()

	// Exactly one order wins; the loser sees the winner's decrement
	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var insufficient *inventory.InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, 6, insufficient.Requested)
		assert.Equal(t, 4, insufficient.Available)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	onHand, err := inventory.OnHand(db, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, onHand)
}
