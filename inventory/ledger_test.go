package inventory

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock, sales int) *models.Product {
	t.Helper()
	p := &models.Product{SKU: "SKU-001", Name: "Running Shoes", Price: 59000, Stock: stock, SalesCount: sales, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return &p
}

func TestReserveDecrementsStockAndBumpsSales(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 10, 3)

	require.NoError(t, Reserve(db, p.ID, 4))

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 6, got.Stock)
	assert.Equal(t, 7, got.SalesCount)
}

func TestReserveExactStockDrainsToZero(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 5, 0)

	require.NoError(t, Reserve(db, p.ID, 5))

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 0, got.Stock)
}

func TestReserveInsufficientStockLeavesCountersUntouched(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 3, 1)

	err := Reserve(db, p.ID, 4)
	require.Error(t, err)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 1, got.SalesCount)
}

func TestReserveUnknownProduct(t *testing.T) {
	db := openTestDB(t)

	err := Reserve(db, 999, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 3, 0)

	err := Reserve(db, p.ID, 0)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 5, 0)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = Reserve(db, p.ID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 5, succeeded)

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, 5, got.SalesCount)
}

func TestReleaseRestoresStock(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 2, 8)

	require.NoError(t, Release(db, p.ID, 3))

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, 5, got.SalesCount)
}

func TestReleaseFloorsSalesCountAtZero(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 0, 2)

	require.NoError(t, Release(db, p.ID, 5))

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, 0, got.SalesCount)
}

func TestReleaseUnknownProduct(t *testing.T) {
	db := openTestDB(t)

	err := Release(db, 42, 1)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestReserveReleaseConservation(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, 20, 0)

	require.NoError(t, Reserve(db, p.ID, 6))
	require.NoError(t, Reserve(db, p.ID, 4))
	require.NoError(t, Release(db, p.ID, 4))
	require.NoError(t, Reserve(db, p.ID, 2))

	got := reloadProduct(t, db, p.ID)
	assert.Equal(t, 20-6-4+4-2, got.Stock)
	assert.Equal(t, 6+4-4+2, got.SalesCount)
}
