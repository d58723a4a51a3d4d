package models

import (
	"math"
	"time"
)

// Discount is embedded on Product. Rate is a percentage (0-100).
type Discount struct {
	Enabled bool `json:"enabled"`
	Rate    int  `json:"rate"`
}

type Product struct {
	ID          uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU         string   `gorm:"uniqueIndex;not null" json:"sku"`
	Name        string   `gorm:"not null" json:"name"`
	Description string   `json:"description"`
	Price       int64    `gorm:"not null" json:"price"` // integer currency units
	Stock       int      `gorm:"not null;default:0" json:"stock"`
	SalesCount  int      `gorm:"not null;default:0" json:"sales_count"`
	Discount    Discount `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
	IsActive    bool     `gorm:"default:true" json:"is_active"`
	Views       int      `gorm:"default:0" json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnitPrice returns the effective unit price with any active discount
// applied, rounded to the nearest currency unit.
func (p *Product) UnitPrice() int64 {
	if p.Discount.Enabled && p.Discount.Rate > 0 {
		return int64(math.Round(float64(p.Price) * (1 - float64(p.Discount.Rate)/100)))
	}
	return p.Price
}
