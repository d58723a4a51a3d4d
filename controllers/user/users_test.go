package userControllers

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/account"
	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/auth"
	"github.com/dongkoo-kang/vibe-shoppingmall/config"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

const testSecret = "test-secret"

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

func testConfig() *config.Config {
	return &config.Config{JWTSecret: testSecret, JWTExpiresIn: time.Hour}
}

func seedUser(t *testing.T, db *gorm.DB, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Email:    "shopper@example.com",
		Password: string(hash),
		Name:     "Gildong Hong",
		Phone:    "010-1234-5678",
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	db := openTestDB(t)
	guard := account.NewGuard(5, 2*time.Hour)
	seedUser(t, db, "correct horse")

	token, user, err := Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
		Email: "shopper@example.com", Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "shopper@example.com", claims.Email)

	var persisted models.User
	require.NoError(t, db.First(&persisted, "id = ?", user.ID).Error)
	require.NotNil(t, persisted.LastLogin)
}

func TestLoginUnknownEmail(t *testing.T) {
	db := openTestDB(t)
	guard := account.NewGuard(5, 2*time.Hour)

	_, _, err := Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
		Email: "nobody@example.com", Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestLoginWrongPasswordCountsAttempts(t *testing.T) {
	db := openTestDB(t)
	guard := account.NewGuard(5, 2*time.Hour)
	u := seedUser(t, db, "correct horse")

	_, _, err := Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
		Email: u.Email, Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.Detail["login_attempts"])
	assert.Equal(t, 4, appErr.Detail["remaining_attempts"])
}

func TestLoginLocksAfterFiveFailures(t *testing.T) {
	db := openTestDB(t)
	guard := account.NewGuard(5, 2*time.Hour)
	u := seedUser(t, db, "correct horse")

	var err error
	for i := 0; i < 5; i++ {
		_, _, err = Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
			Email: u.Email, Password: "wrong",
		})
		require.Error(t, err)
	}
	assert.Equal(t, apperr.Locked, apperr.KindOf(err))

	// the right password is also rejected while locked
	_, _, err = Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
		Email: u.Email, Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Locked, apperr.KindOf(err))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, account.LockMemo, appErr.Detail["memo"])
}

func TestLoginSuccessResetsFailureCount(t *testing.T) {
	db := openTestDB(t)
	guard := account.NewGuard(5, 2*time.Hour)
	u := seedUser(t, db, "correct horse")

	for i := 0; i < 3; i++ {
		_, _, _ = Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
			Email: u.Email, Password: "wrong",
		})
	}
	_, _, err := Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
		Email: u.Email, Password: "correct horse",
	})
	require.NoError(t, err)

	var persisted models.User
	require.NoError(t, db.First(&persisted, "id = ?", u.ID).Error)
	assert.Zero(t, persisted.LoginAttempts)
}

func TestLoginInactiveAccount(t *testing.T) {
	db := openTestDB(t)
	guard := account.NewGuard(5, 2*time.Hour)
	u := seedUser(t, db, "correct horse")
	require.NoError(t, db.Model(u).Update("is_active", false).Error)

	_, _, err := Login(db, testConfig(), guard, zap.NewNop(), LoginInput{
		Email: u.Email, Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestResetPasswordClearsLockAndSetsMemo(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "old password")

	until := time.Now().Add(time.Hour)
	require.NoError(t, db.Model(u).Updates(map[string]interface{}{
		"login_attempts": 5, "lock_until": until, "memo": account.LockMemo,
	}).Error)

	newPassword, err := ResetPassword(db, ResetPasswordInput{
		Email: u.Email, Name: u.Name, Phone: u.Phone,
	})
	require.NoError(t, err)
	require.Len(t, newPassword, 8)

	hasLetter, hasDigit := false, false
	for _, r := range newPassword {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasLetter = true
		}
	}
	assert.True(t, hasLetter)
	assert.True(t, hasDigit)

	var persisted models.User
	require.NoError(t, db.First(&persisted, "id = ?", u.ID).Error)
	assert.Nil(t, persisted.LockUntil)
	assert.Zero(t, persisted.LoginAttempts)
	assert.Equal(t, ResetMemo, persisted.Memo)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(persisted.Password), []byte(newPassword)))
}

func TestResetPasswordWrongIdentity(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "old password")

	_, err := ResetPassword(db, ResetPasswordInput{
		Email: u.Email, Name: u.Name, Phone: "010-0000-0000",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "old password")

	err := ChangePassword(db, u.ID, ChangePasswordInput{
		CurrentPassword: "wrong", NewPassword: "new password 1",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestChangePasswordClearsResetMemo(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "old password")
	require.NoError(t, db.Model(u).Update("memo", ResetMemo).Error)

	err := ChangePassword(db, u.ID, ChangePasswordInput{
		CurrentPassword: "old password", NewPassword: "new password 1",
	})
	require.NoError(t, err)

	var persisted models.User
	require.NoError(t, db.First(&persisted, "id = ?", u.ID).Error)
	assert.Empty(t, persisted.Memo)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(persisted.Password), []byte("new password 1")))
}
