package userControllers

import (
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/account"
	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/auth"
	"github.com/dongkoo-kang/vibe-shoppingmall/config"
	"github.com/dongkoo-kang/vibe-shoppingmall/metrics"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

// ResetMemo flags an account whose password was reset so the UI can
// prompt the user to pick a new one.
const ResetMemo = "Password has been reset. Change it after logging in."

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=20"`
	Name     string `json:"name" binding:"required,max=50"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=20"`
}

// -------- Core Logic --------

// Login authenticates by email and password under the lockout guard.
// On success it resets the failure count and issues a session token.
func Login(db *gorm.DB, cfg *config.Config, guard *account.Guard, logger *zap.Logger, input LoginInput) (string, *models.User, error) {
	var user models.User
	err := db.Where("email = ?", strings.ToLower(input.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.NotFound, "no account registered for this email address")
		}
		return "", nil, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}

	if guard.IsLocked(&user) {
		return "", nil, lockedError(&user)
	}

	if !user.IsActive {
		e := apperr.New(apperr.Forbidden, "this account has been deactivated")
		if user.Memo != "" {
			e.With("memo", user.Memo)
		}
		return "", nil, e
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		if err := guard.RecordFailure(db, &user); err != nil {
			return "", nil, err
		}

		if guard.IsLocked(&user) {
			metrics.AccountLockouts.Inc()
			logger.Warn("account locked after repeated login failures",
				zap.Uint("user_id", user.ID),
				zap.Time("lock_until", *user.LockUntil))
			return "", nil, lockedError(&user)
		}

		return "", nil, apperr.New(apperr.Unauthorized, "incorrect password").
			With("login_attempts", user.LoginAttempts).
			With("remaining_attempts", guard.RemainingAttempts(&user))
	}

	if err := guard.RecordSuccess(db, &user); err != nil {
		return "", nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_login", now).Error; err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "failed to record login time", err)
	}

	token, err := auth.IssueToken(cfg.JWTSecret, cfg.JWTExpiresIn, &user)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "failed to issue token", err)
	}
	return token, &user, nil
}

func lockedError(user *models.User) error {
	e := apperr.New(apperr.Locked, "account is locked due to repeated login failures").
		With("lock_until", user.LockUntil)
	if user.Memo != "" {
		e.With("memo", user.Memo)
	}
	return e
}

// ResetPassword verifies identity by email+name+phone, generates a
// random 8-character password, clears any lockout and flags the account
// for a post-login password change.
func ResetPassword(db *gorm.DB, input ResetPasswordInput) (string, error) {
	var user models.User
	err := db.Where("email = ? AND name = ? AND phone = ?",
		strings.ToLower(input.Email), strings.TrimSpace(input.Name), strings.TrimSpace(input.Phone)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.New(apperr.NotFound, "no user matches the provided details")
		}
		return "", apperr.Wrap(apperr.Internal, "failed to load user", err)
	}

	if !user.IsActive {
		return "", apperr.New(apperr.Forbidden, "this account has been deactivated")
	}

	newPassword, err := generateRandomPassword(8)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to generate password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	err = db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password":       string(hash),
			"login_attempts": 0,
			"lock_until":     nil,
			"memo":           ResetMemo,
		}).Error
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to reset password", err)
	}
	return newPassword, nil
}

// ChangePassword swaps the password after confirming the current one and
// clears any reset/lockout advisory memo.
func ChangePassword(db *gorm.DB, userID uint, input ChangePasswordInput) error {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return apperr.Wrap(apperr.Internal, "failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)) != nil {
		return apperr.New(apperr.Unauthorized, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	updates := map[string]interface{}{"password": string(hash)}
	if user.Memo == ResetMemo || user.Memo == account.LockMemo {
		updates["memo"] = ""
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "failed to change password", err)
	}
	return nil
}

// generateRandomPassword produces n random letters/digits containing at
// least one of each.
func generateRandomPassword(n int) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	const digits = "0123456789"
	const all = letters + digits

	if n < 2 {
		n = 8
	}

	pick := func(charset string) (byte, error) {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return 0, err
		}
		return charset[idx.Int64()], nil
	}

	buf := make([]byte, n)
	var err error
	if buf[0], err = pick(digits); err != nil {
		return "", err
	}
	if buf[1], err = pick(letters); err != nil {
		return "", err
	}
	for i := 2; i < n; i++ {
		if buf[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// shuffle so the guaranteed digit/letter are not always up front
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

// -------- Handlers --------

// POST /users/register
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		email := strings.ToLower(input.Email)
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			apperr.Respond(c, apperr.Wrap(apperr.Internal, "failed to check email", err))
			return
		}
		if count > 0 {
			apperr.Respond(c, apperr.New(apperr.Conflict, "this email address is already in use"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			apperr.Respond(c, apperr.Wrap(apperr.Internal, "failed to hash password", err))
			return
		}

		user := models.User{
			Email:    email,
			Password: string(hash),
			Name:     strings.TrimSpace(input.Name),
			Phone:    strings.TrimSpace(input.Phone),
			Role:     models.RoleCustomer,
			IsActive: true,
		}
		if err := db.Create(&user).Error; err != nil {
			apperr.Respond(c, apperr.Wrap(apperr.Internal, "failed to create user", err))
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// POST /users/login
func LoginHandler(db *gorm.DB, cfg *config.Config, guard *account.Guard, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		token, user, err := Login(db, cfg, guard, logger, input)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

// POST /users/reset-password
func ResetPasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ResetPasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		newPassword, err := ResetPassword(db, input)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"new_password": newPassword})
	}
}

// PUT /users/password
func ChangePasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		var input ChangePasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		if err := ChangePassword(db, claims.UserID, input); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}

// GET /users/me
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		var user models.User
		if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
			apperr.Respond(c, apperr.New(apperr.NotFound, "user not found"))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
