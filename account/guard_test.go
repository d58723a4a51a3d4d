package account

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := &models.User{Email: "shopper@example.com", Password: "hash", Name: "Shopper", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return &u
}

func TestLockoutAfterThresholdFailures(t *testing.T) {
	db := openTestDB(t)
	guard := NewGuard(5, 2*time.Hour)
	u := seedUser(t, db)

	for i := 0; i < 4; i++ {
		require.NoError(t, guard.RecordFailure(db, u))
		assert.False(t, guard.IsLocked(u))
	}
	assert.Equal(t, 1, guard.RemainingAttempts(u))

	require.NoError(t, guard.RecordFailure(db, u))
	assert.True(t, guard.IsLocked(u))
	assert.Equal(t, LockMemo, u.Memo)

	persisted := reloadUser(t, db, u.ID)
	require.NotNil(t, persisted.LockUntil)
	assert.Equal(t, 5, persisted.LoginAttempts)
	assert.Equal(t, LockMemo, persisted.Memo)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), *persisted.LockUntil, time.Minute)
}

func TestFailureDuringActiveLockIsNoop(t *testing.T) {
	db := openTestDB(t)
	guard := NewGuard(5, 2*time.Hour)
	u := seedUser(t, db)

	until := time.Now().Add(time.Hour)
	u.LoginAttempts = 5
	u.LockUntil = &until
	require.NoError(t, db.Save(u).Error)

	require.NoError(t, guard.RecordFailure(db, u))
	assert.Equal(t, 5, u.LoginAttempts)
	assert.True(t, guard.IsLocked(u))
}

func TestExpiredLockRestartsCountAtOne(t *testing.T) {
	db := openTestDB(t)
	guard := NewGuard(5, 2*time.Hour)
	u := seedUser(t, db)

	past := time.Now().Add(-time.Minute)
	u.LoginAttempts = 5
	u.LockUntil = &past
	require.NoError(t, db.Save(u).Error)

	assert.False(t, guard.IsLocked(u))
	require.NoError(t, guard.RecordFailure(db, u))

	persisted := reloadUser(t, db, u.ID)
	assert.Equal(t, 1, persisted.LoginAttempts)
	assert.Nil(t, persisted.LockUntil)
	assert.False(t, guard.IsLocked(persisted))
}

func TestSuccessResetsCounterAndLock(t *testing.T) {
	db := openTestDB(t)
	guard := NewGuard(5, 2*time.Hour)
	u := seedUser(t, db)

	until := time.Now().Add(time.Hour)
	u.LoginAttempts = 5
	u.LockUntil = &until
	require.NoError(t, db.Save(u).Error)

	require.NoError(t, guard.RecordSuccess(db, u))

	persisted := reloadUser(t, db, u.ID)
	assert.Equal(t, 0, persisted.LoginAttempts)
	assert.Nil(t, persisted.LockUntil)
}

func TestNewGuardAppliesDefaults(t *testing.T) {
	guard := NewGuard(0, 0)
	assert.Equal(t, 5, guard.Threshold)
	assert.Equal(t, 2*time.Hour, guard.Window)
}
