package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/inventory"
	"github.com/dongkoo-kang/vibe-shoppingmall/metrics"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
	"github.com/dongkoo-kang/vibe-shoppingmall/payment"
)

// -------- Request Structs --------

type PaymentInput struct {
	Method        string `json:"method"`
	Status        string `json:"status" binding:"required"`
	Amount        *int64 `json:"amount"`
	TransactionID string `json:"transaction_id"`
	PaidAt        string `json:"paid_at"`
}

type CreateOrderInput struct {
	Shipping   models.ShippingInfo `json:"shipping" binding:"required"`
	Payment    PaymentInput        `json:"payment" binding:"required"`
	OrderNotes string              `json:"order_notes"`
}

// Engine orchestrates checkout and the order status lifecycle.
type Engine struct {
	db          *gorm.DB
	verifier    payment.Verifier
	shippingFee int64 // flat fee per order
	logger      *zap.Logger
}

func NewEngine(db *gorm.DB, verifier payment.Verifier, shippingFee int64, logger *zap.Logger) *Engine {
	return &Engine{db: db, verifier: verifier, shippingFee: shippingFee, logger: logger}
}

// CreateOrder converts the user's cart into an immutable order: it
// re-prices every line from the product's current discount, verifies the
// payment, then persists the order, decrements stock and clears the cart
// in one transaction. A transaction id already recorded on another order
// short-circuits to a Conflict naming that order.
func (e *Engine) CreateOrder(ctx context.Context, userID uint, input CreateOrderInput) (*models.Order, error) {
	var cart models.Cart
	err := e.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "failed to load cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperr.New(apperr.Validation, "cart is empty")
	}

	// Re-price every line from the product's current discount state.
	// The cart snapshot is display-only; the customer pays the current
	// price. The stock check here produces a friendly error up front;
	// the authoritative guard is the conditional reserve inside the
	// transaction below.
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	var subtotal int64
	for _, cartItem := range cart.Items {
		var product models.Product
		if err := e.db.First(&product, "id = ?", cartItem.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.NotFound, "product in cart no longer exists").
					With("product_id", cartItem.ProductID)
			}
			return nil, apperr.Wrap(apperr.Internal, "failed to load product", err)
		}

		if product.Stock < cartItem.Quantity {
			return nil, apperr.New(apperr.InsufficientStock,
				fmt.Sprintf("insufficient stock for product %q (requested: %d, current stock: %d)",
					product.Name, cartItem.Quantity, product.Stock)).
				With("product_id", product.ID).
				With("current_stock", product.Stock).
				With("requested", cartItem.Quantity)
		}

		unitPrice := product.UnitPrice()
		lineSubtotal := unitPrice * int64(cartItem.Quantity)
		subtotal += lineSubtotal

		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			Quantity:  cartItem.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  lineSubtotal,
		})
	}

	totalAmount := subtotal + e.shippingFee

	// Idempotency: at most one order per gateway transaction.
	if input.Payment.TransactionID != "" {
		existing, err := e.findByTransactionID(e.db, input.Payment.TransactionID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, duplicateOrder(existing)
		}

		if err := e.verifier.Verify(ctx, input.Payment.TransactionID, totalAmount); err != nil {
			metrics.PaymentVerifications.WithLabelValues("failed").Inc()
			e.logger.Warn("payment verification failed",
				zap.String("transaction_id", input.Payment.TransactionID),
				zap.Int64("order_amount", totalAmount),
				zap.Error(err))
			return nil, err
		}
		metrics.PaymentVerifications.WithLabelValues("ok").Inc()
	}

	if input.Payment.Status != string(models.PaymentStatusCompleted) {
		return nil, apperr.New(apperr.Validation, "payment is not completed").
			With("payment_status", input.Payment.Status)
	}
	if input.Payment.Amount != nil {
		if diff := *input.Payment.Amount - totalAmount; diff > payment.AmountTolerance || diff < -payment.AmountTolerance {
			return nil, apperr.New(apperr.Validation,
				fmt.Sprintf("payment amount does not match order total (paid: %d, order: %d)",
					*input.Payment.Amount, totalAmount)).
				With("paid_amount", *input.Payment.Amount).
				With("order_amount", totalAmount)
		}
	}

	order := &models.Order{
		UserID:   userID,
		Items:    orderItems,
		Shipping: input.Shipping,
		Payment: models.PaymentInfo{
			Method:        paymentMethodOrDefault(input.Payment.Method),
			Status:        models.PaymentStatusCompleted,
			Amount:        totalAmount,
			PaidAt:        parsePaidAt(input.Payment.PaidAt),
			TransactionID: input.Payment.TransactionID,
		},
		Subtotal:    subtotal,
		ShippingFee: e.shippingFee,
		TotalAmount: totalAmount,
		Status:      models.OrderStatusPending,
		OrderNotes:  input.OrderNotes,
	}

	// Order insert, stock decrement and cart clearing commit or roll
	// back together.
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if order.Payment.TransactionID != "" {
			existing, err := e.findByTransactionID(tx, order.Payment.TransactionID)
			if err != nil {
				return err
			}
			if existing != nil {
				return duplicateOrder(existing)
			}
		}

		number, err := allocateOrderNumber(tx, time.Now().UTC())
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := tx.Create(order).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "failed to create order", err)
		}

		for _, item := range order.Items {
			if err := inventory.Reserve(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "failed to clear cart", err)
		}
		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
			Update("total_amount", 0).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "failed to reset cart total", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	e.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", userID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.Int("line_items", len(order.Items)))

	return order, nil
}

func (e *Engine) findByTransactionID(db *gorm.DB, transactionID string) (*models.Order, error) {
	var existing models.Order
	err := db.Where("payment_transaction_id = ?", transactionID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to check for duplicate order", err)
	}
	return &existing, nil
}

func duplicateOrder(existing *models.Order) error {
	return apperr.New(apperr.Conflict,
		"this transaction has already been processed (duplicate payment or resubmitted request)").
		With("order_id", existing.ID).
		With("order_number", existing.OrderNumber)
}

// allocateOrderNumber produces ORD-YYYYMMDD-NNNNNN: the day's highest
// sequence plus one, starting at 000001. Callers run it inside the order
// creation transaction so the read-then-write cannot interleave with a
// concurrent allocation.
func allocateOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "ORD-" + now.Format("20060102")

	var last models.Order
	sequence := 1
	err := tx.Where("order_number LIKE ?", prefix+"-%").
		Order("order_number DESC").
		First(&last).Error
	if err == nil {
		tail := last.OrderNumber[len(last.OrderNumber)-6:]
		if n, convErr := strconv.Atoi(tail); convErr == nil {
			sequence = n + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.Wrap(apperr.Internal, "failed to allocate order number", err)
	}

	return fmt.Sprintf("%s-%06d", prefix, sequence), nil
}

func paymentMethodOrDefault(method string) string {
	if method == "" {
		return "card"
	}
	return method
}

// parsePaidAt accepts an RFC3339 timestamp from the caller; anything
// unparseable defaults to now.
func parsePaidAt(raw string) *time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
	}
	now := time.Now()
	return &now
}

// -------- Handlers --------

// POST /orders
func CreateOrderHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		var input CreateOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		order, err := e.CreateOrder(c.Request.Context(), claims.UserID, input)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}
