package models

import "time"

type Cart struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex" json:"user_id"` // one cart per user
	Items       []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount int64      `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RecomputeTotal derives TotalAmount from the line snapshots. Called on
// every cart mutation.
func (c *Cart) RecomputeTotal() {
	var total int64
	for _, item := range c.Items {
		total += item.PriceSnapshot * int64(item.Quantity)
	}
	c.TotalAmount = total
}

type CartItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CartID    uint `gorm:"index" json:"cart_id"`
	ProductID uint `gorm:"not null" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`
	// Unit price at the time the item was added or last updated,
	// reflecting the discount then in effect.
	PriceSnapshot int64     `gorm:"not null" json:"price_snapshot"`
	AddedAt       time.Time `json:"added_at"`
}
