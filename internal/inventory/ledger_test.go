package inventory

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"phonestore-service/internal/model"
	"phonestore-service/pkg/config"
	"phonestore-service/pkg/database"
	metrics "phonestore-service/prometheus"
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

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	first, err := GetOrCreate(db, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), first.ProductVariantID)
	assert.Equal(t, 0, first.OnHand)

	second, err := GetOrCreate(db, 42)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Inventory{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIncrementPairsMovement(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreate(db, 7)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		inv, err := Increment(tx, 7, 10, model.StockInRef(1))
		if err != nil {
			return err
		}
		assert.Equal(t, 10, inv.OnHand)
		return nil
	})
	require.NoError(t, err)

	onHand, err := OnHand(db, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, onHand)

	var movements []model.StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementIn, movements[0].Type)
	assert.Equal(t, 10, movements[0].Qty)
	assert.Equal(t, model.RefStockIn, movements[0].Ref.Kind)
	assert.Equal(t, uint(1), movements[0].Ref.ID)
}

func TestDecrementInsufficientStock(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreate(db, 7)
	require.NoError(t, err)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := Increment(tx, 7, 3, model.StockInRef(1))
		return err
	}))

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Decrement(tx, 7, 5, model.StockOutRef(1))
		return err
	})
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, uint(7), insufficient.ProductVariantID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)

	// Failed decrement leaves no trace
	onHand, err := OnHand(db, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, onHand)
	var count int64
	require.NoError(t, db.Model(&model.StockMovement{}).Where("type = ?", model.MovementOut).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDecrementToZeroThenOneMore(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreate(db, 9)
	require.NoError(t, err)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := Increment(tx, 9, 3, model.StockInRef(1))
		return err
	}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		inv, err := Decrement(tx, 9, 3, model.StockOutRef(1))
		if err != nil {
			return err
		}
		assert.Equal(t, 0, inv.OnHand)
		return nil
	}))

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Decrement(tx, 9, 1, model.StockOutRef(2))
		return err
	})
	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Available)
}

func TestDecrementUnknownVariant(t *testing.T) {
	db := openTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Decrement(tx, 999, 1, model.StockOutRef(1))
		return err
	})
	var notFound *InventoryNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, uint(999), notFound.ProductVariantID)
}

func TestMovementRejectsInvalidRef(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreate(db, 5)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Increment(tx, 5, 1, model.MovementRef{})
		return err
	})
	assert.Error(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Increment(tx, 5, 1, model.MovementRef{Kind: "Invoice", ID: 3})
		return err
	})
	assert.Error(t, err)
}

func TestOnHandMatchesMovementSum(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreate(db, 11)
	require.NoError(t, err)

	steps := []struct {
		in  bool
		qty int
		ref model.MovementRef
	}{
		{true, 20, model.StockInRef(1)},
		{false, 5, model.StockOutRef(1)},
		{true, 7, model.StockInRef(2)},
		{false, 2, model.StockOutRef(2)},
		{true, 1, model.CancellationRef(1)},
	}
	for _, s := range steps {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			if s.in {
				_, err = Increment(tx, 11, s.qty, s.ref)
			} else {
				_, err = Decrement(tx, 11, s.qty, s.ref)
			}
			return err
		}))
	}

	onHand, err := OnHand(db, 11)
	require.NoError(t, err)
	assert.Equal(t, 21, onHand)

	var sumIn, sumOut int64
	require.NoError(t, db.Model(&model.StockMovement{}).
		Where("product_variant_id = ? AND type = ?", 11, model.MovementIn).
		Select("COALESCE(SUM(qty), 0)").Scan(&sumIn).Error)
	require.NoError(t, db.Model(&model.StockMovement{}).
		Where("product_variant_id = ? AND type = ?", 11, model.MovementOut).
		Select("COALESCE(SUM(qty), 0)").Scan(&sumOut).Error)
	assert.Equal(t, int64(onHand), sumIn-sumOut)
}

func TestMovementCounterCountsEachMovement(t *testing.T) {
	db := openTestDB(t)
	metrics.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "phonestore_test"}})

	inBefore := testutil.ToFloat64(metrics.StockMovementsCounter.WithLabelValues(
		string(model.MovementIn), string(model.RefStockIn)))
	outBefore := testutil.ToFloat64(metrics.StockMovementsCounter.WithLabelValues(
		string(model.MovementOut), string(model.RefStockOut)))

	for _, variantID := range []uint{21, 22} {
		_, err := GetOrCreate(db, variantID)
		require.NoError(t, err)
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			_, err := Increment(tx, variantID, 5, model.StockInRef(1))
			return err
		}))
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := Decrement(tx, 21, 2, model.StockOutRef(1))
		return err
	}))

	// One increment per variant line, one decrement: the counter moves
	// once per appended movement, not once per request
	inAfter := testutil.ToFloat64(metrics.StockMovementsCounter.WithLabelValues(
		string(model.MovementIn), string(model.RefStockIn)))
	outAfter := testutil.ToFloat64(metrics.StockMovementsCounter.WithLabelValues(
		string(model.MovementOut), string(model.RefStockOut)))
	assert.Equal(t, float64(2), inAfter-inBefore)
	assert.Equal(t, float64(1), outAfter-outBefore)
}

func TestHasMovement(t *testing.T) {
	db := openTestDB(t)

	_, err := GetOrCreate(db, 3)
	require.NoError(t, err)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := Increment(tx, 3, 4, model.StockInRef(6))
		return err
	}))

	found, err := HasMovement(db, model.MovementIn, 3, model.StockInRef(6))
	require.NoError(t, err)
	assert.True(t, found)

	found, err = HasMovement(db, model.MovementOut, 3, model.StockInRef(6))
	require.NoError(t, err)
	assert.False(t, found)

	found, err = HasMovement(db, model.MovementIn, 3, model.StockInRef(7))
	require.NoError(t, err)
	assert.False(t, found)
}
