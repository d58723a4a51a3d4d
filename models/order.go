package models

import "time"

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // placed, awaiting confirmation
	OrderStatusConfirmed  OrderStatus = "confirmed"  // confirmed by seller
	OrderStatusProcessing OrderStatus = "processing" // being prepared
	OrderStatusShipped    OrderStatus = "shipped"    // out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // customer received the item
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// ShippingInfo is embedded on Order.
type ShippingInfo struct {
	RecipientName   string `gorm:"not null" json:"recipient_name" binding:"required"`
	RecipientPhone  string `gorm:"not null" json:"recipient_phone" binding:"required"`
	PostalCode      string `gorm:"not null" json:"postal_code" binding:"required"`
	Address1        string `gorm:"not null" json:"address1" binding:"required"`
	Address2        string `json:"address2"`
	Country         string `json:"country"`
	DeliveryRequest string `json:"delivery_request"`
}

// PaymentInfo is embedded on Order. TransactionID is the idempotency key:
// at most one order may carry any given value.
type PaymentInfo struct {
	Method        string        `gorm:"not null" json:"method"`
	Status        PaymentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	Amount        int64         `json:"amount"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	TransactionID string        `gorm:"index" json:"transaction_id,omitempty"`
}

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null" json:"order_number"` // ORD-YYYYMMDD-NNNNNN
	UserID      uint        `gorm:"index;not null" json:"user_id"`
	User        User        `gorm:"foreignKey:UserID" json:"user"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	Shipping ShippingInfo `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	Payment  PaymentInfo  `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	ShippingFee int64 `gorm:"not null" json:"shipping_fee"`
	TotalAmount int64 `gorm:"not null" json:"total_amount"` // subtotal + shipping fee

	Status     OrderStatus `gorm:"type:VARCHAR(20);default:'pending';index" json:"status"`
	OrderNotes string      `json:"order_notes,omitempty"`

	TrackingNumber string     `json:"tracking_number,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is immutable once created. Name, SKU and unit price are
// frozen copies so historical orders survive later catalog edits.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   uint   `gorm:"index" json:"order_id"`
	ProductID uint   `gorm:"not null" json:"product_id"`
	Name      string `gorm:"not null" json:"name"`
	SKU       string `gorm:"not null" json:"sku"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	UnitPrice int64  `gorm:"not null" json:"unit_price"`
	Subtotal  int64  `gorm:"not null" json:"subtotal"` // unit price x quantity
}
