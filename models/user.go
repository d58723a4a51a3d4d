package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `gorm:"not null" json:"name"`
	Phone    string `json:"phone"`
	Role     Role   `gorm:"type:VARCHAR(20);default:'customer'" json:"role"`
	Address  Address `gorm:"embedded;embeddedPrefix:addr_" json:"address"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Account-lockout bookkeeping. LoginAttempts counts consecutive
	// failures; LockUntil, when set and in the future, rejects all
	// logins regardless of password correctness. Memo carries an
	// advisory note shown to the user (set on lockout and on password
	// reset).
	LoginAttempts int        `gorm:"default:0" json:"login_attempts"`
	LockUntil     *time.Time `json:"lock_until,omitempty"`
	Memo          string     `json:"memo,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address model embedded in User
type Address struct {
	PostalCode string `json:"postal_code"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	Country    string `json:"country"`
}
