package orderControllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/inventory"
	"github.com/dongkoo-kang/vibe-shoppingmall/metrics"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

type UpdateStatusInput struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

type CancelOrderInput struct {
	CancelReason string `json:"cancel_reason"`
}

// allowedTransitions defines every legal forward edge. Cancellation from
// any non-terminal state is handled separately.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusProcessing},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing},
	models.OrderStatusProcessing: {models.OrderStatusShipped},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusCancelled:  {models.OrderStatusRefunded},
}

// CanTransition reports whether status may move from one state to
// another. Any non-terminal state may move to cancelled.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return false
	}
	if to == models.OrderStatusCancelled {
		return !from.IsTerminal()
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch models.OrderStatus(strings.ToLower(status)) {
	case models.OrderStatusPending:
		return models.OrderStatusPending, nil
	case models.OrderStatusConfirmed:
		return models.OrderStatusConfirmed, nil
	case models.OrderStatusProcessing:
		return models.OrderStatusProcessing, nil
	case models.OrderStatusShipped:
		return models.OrderStatusShipped, nil
	case models.OrderStatusDelivered:
		return models.OrderStatusDelivered, nil
	case models.OrderStatusCancelled:
		return models.OrderStatusCancelled, nil
	case models.OrderStatusRefunded:
		return models.OrderStatusRefunded, nil
	default:
		return "", apperr.New(apperr.Validation, "invalid order status: "+status)
	}
}

// UpdateStatus is the admin-driven lifecycle operation. Moving to
// cancelled restores stock for every line item in the same transaction.
func (e *Engine) UpdateStatus(orderID uint, newStatus models.OrderStatus, trackingNumber string) (*models.Order, error) {
	var order models.Order

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "order not found")
			}
			return apperr.Wrap(apperr.Internal, "failed to load order", err)
		}

		if !CanTransition(order.Status, newStatus) {
			return apperr.New(apperr.Validation,
				"order status cannot change from "+string(order.Status)+" to "+string(newStatus)).
				With("current_status", order.Status)
		}

		now := time.Now()
		order.Status = newStatus

		switch newStatus {
		case models.OrderStatusShipped:
			if trackingNumber != "" {
				order.TrackingNumber = trackingNumber
			}
			order.ShippedAt = &now
		case models.OrderStatusDelivered:
			order.DeliveredAt = &now
		case models.OrderStatusCancelled:
			order.CancelledAt = &now
			order.Payment.Status = models.PaymentStatusCancelled
			for _, item := range order.Items {
				if err := inventory.Release(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case models.OrderStatusRefunded:
			order.Payment.Status = models.PaymentStatusRefunded
		}

		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "failed to update order status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStatus == models.OrderStatusCancelled {
		metrics.OrdersCancelled.Inc()
	}
	e.logger.Info("order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(newStatus)))

	return &order, nil
}

// Cancel is the user-initiated cancellation: it is refused once the
// order has shipped, and restores stock for every line item in the same
// transaction that flips the status.
func (e *Engine) Cancel(userID, orderID uint, reason string) (*models.Order, error) {
	var order models.Order

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "order not found")
			}
			return apperr.Wrap(apperr.Internal, "failed to load order", err)
		}

		if order.UserID != userID {
			return apperr.New(apperr.Forbidden, "you may only cancel your own orders")
		}

		switch order.Status {
		case models.OrderStatusCancelled:
			return apperr.New(apperr.Validation, "order is already cancelled")
		case models.OrderStatusDelivered:
			return apperr.New(apperr.Validation, "a delivered order cannot be cancelled")
		case models.OrderStatusShipped:
			return apperr.New(apperr.Validation,
				"an order in transit cannot be cancelled; contact customer service")
		}

		now := time.Now()
		order.Status = models.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancelReason = reason
		order.Payment.Status = models.PaymentStatusCancelled

		for _, item := range order.Items {
			if err := inventory.Release(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "failed to cancel order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCancelled.Inc()
	e.logger.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", userID))

	return &order, nil
}

// -------- Handlers --------

// PATCH /orders/:id/status (admin)
func UpdateStatusHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var input UpdateStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		status, err := mapOrderStatus(input.Status)
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		order, err := e.UpdateStatus(orderID, status, input.TrackingNumber)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /orders/:id/cancel (owner)
func CancelOrderHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var input CancelOrderInput
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
				return
			}
		}

		order, err := e.Cancel(claims.UserID, orderID, input.CancelReason)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
