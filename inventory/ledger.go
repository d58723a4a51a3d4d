// Package inventory owns the authoritative stock/salesCount counters.
// Every write path mutates them through Reserve and Release only, so the
// stock invariant (never negative) holds under concurrent checkouts.
package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

// Reserve decrements stock and increments salesCount for one product as a
// single conditional update. Two concurrent reservations can never drive
// stock below zero: the guard is in the WHERE clause, not in application
// code. Callers run it inside their own transaction.
func Reserve(tx *gorm.DB, productID uint, qty int) error {
	if qty < 1 {
		return apperr.New(apperr.Validation, "quantity must be at least 1")
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]interface{}{
			"stock":       gorm.Expr("stock - ?", qty),
			"sales_count": gorm.Expr("sales_count + ?", qty),
		})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "failed to reserve stock", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row matched: either the product is gone or stock ran out.
	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "product not found").
				With("product_id", productID)
		}
		return apperr.Wrap(apperr.Internal, "failed to read product", err)
	}
	return apperr.New(apperr.InsufficientStock,
		fmt.Sprintf("insufficient stock for product %q (requested: %d, current stock: %d)",
			product.Name, qty, product.Stock)).
		With("product_id", product.ID).
		With("current_stock", product.Stock).
		With("requested", qty)
}

// Release restores stock after a cancellation: stock grows by qty and
// salesCount shrinks by qty, floored at zero.
func Release(tx *gorm.DB, productID uint, qty int) error {
	if qty < 1 {
		return apperr.New(apperr.Validation, "quantity must be at least 1")
	}

	res := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":       gorm.Expr("stock + ?", qty),
			"sales_count": gorm.Expr("CASE WHEN sales_count >= ? THEN sales_count - ? ELSE 0 END", qty, qty),
		})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "failed to release stock", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "product not found").
			With("product_id", productID)
	}
	return nil
}
