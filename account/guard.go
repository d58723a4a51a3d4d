// Package account implements the login-failure lockout guard.
package account

import (
	"time"

	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

// LockMemo is the advisory note attached to an account when it locks.
const LockMemo = "Password entered incorrectly 5 times. Reset your password from the login screen."

// Guard tracks consecutive login failures per account and enforces a
// timed lockout once the threshold is reached.
type Guard struct {
	Threshold int           // failures before the account locks
	Window    time.Duration // how long the lock lasts
}

func NewGuard(threshold int, window time.Duration) *Guard {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 2 * time.Hour
	}
	return &Guard{Threshold: threshold, Window: window}
}

// IsLocked reports whether the account currently rejects logins.
// An expired lock counts as unlocked.
func (g *Guard) IsLocked(u *models.User) bool {
	return u.LockUntil != nil && u.LockUntil.After(time.Now())
}

// RecordFailure registers one failed password check. If a previous lock
// has naturally expired the count restarts at 1; an active lock is left
// untouched; otherwise the counter increments and, on reaching the
// threshold, the account locks for the configured window with an
// advisory memo.
func (g *Guard) RecordFailure(db *gorm.DB, u *models.User) error {
	now := time.Now()

	if u.LockUntil != nil && u.LockUntil.Before(now) {
		u.LoginAttempts = 1
		u.LockUntil = nil
		return g.persist(db, u)
	}

	if g.IsLocked(u) {
		return nil // lock already in effect
	}

	u.LoginAttempts++
	if u.LoginAttempts >= g.Threshold {
		lockUntil := now.Add(g.Window)
		u.LockUntil = &lockUntil
		u.Memo = LockMemo
	}
	return g.persist(db, u)
}

// RecordSuccess resets the failure count and clears any lock.
func (g *Guard) RecordSuccess(db *gorm.DB, u *models.User) error {
	u.LoginAttempts = 0
	u.LockUntil = nil
	return g.persist(db, u)
}

// RemainingAttempts reports how many more failures the account absorbs
// before locking.
func (g *Guard) RemainingAttempts(u *models.User) int {
	remaining := g.Threshold - u.LoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Guard) persist(db *gorm.DB, u *models.User) error {
	err := db.Model(&models.User{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"login_attempts": u.LoginAttempts,
			"lock_until":     u.LockUntil,
			"memo":           u.Memo,
		}).Error
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to update login attempts", err)
	}
	return nil
}
