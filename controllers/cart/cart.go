package cartControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// -------- Core Logic --------

// LoadOrCreate returns the user's cart, creating an empty one on first
// touch.
func LoadOrCreate(db *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "failed to load cart", err)
	}

	cart = models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to create cart", err)
	}
	return &cart, nil
}

// AddItem puts qty of a product into the user's cart. Quantities of an
// already-carted product are summed; the combined quantity may not
// exceed current stock. The line's price snapshot is taken from the
// product's current discount state. Stock here is advisory only: the
// authoritative check happens at order creation.
func AddItem(db *gorm.DB, userID, productID uint, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperr.New(apperr.Validation, "quantity must be at least 1")
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "product not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to load product", err)
	}

	if product.Stock <= 0 {
		return nil, apperr.New(apperr.InsufficientStock, "product is out of stock").
			With("product_id", product.ID).
			With("current_stock", 0)
	}

	cart, err := LoadOrCreate(db, userID)
	if err != nil {
		return nil, err
	}

	unitPrice := product.UnitPrice()

	var existing *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			break
		}
	}

	if existing != nil {
		newQty := existing.Quantity + qty
		if newQty > product.Stock {
			return nil, insufficientStock(&product, newQty)
		}
		existing.Quantity = newQty
		existing.PriceSnapshot = unitPrice
		existing.AddedAt = time.Now()
		if err := db.Save(existing).Error; err != nil {
			return nil, apperr.Wrap(apperr.Internal, "failed to update cart item", err)
		}
	} else {
		if qty > product.Stock {
			return nil, insufficientStock(&product, qty)
		}
		item := models.CartItem{
			CartID:        cart.ID,
			ProductID:     product.ID,
			Quantity:      qty,
			PriceSnapshot: unitPrice,
			AddedAt:       time.Now(),
		}
		if err := db.Create(&item).Error; err != nil {
			return nil, apperr.Wrap(apperr.Internal, "failed to add cart item", err)
		}
		cart.Items = append(cart.Items, item)
	}

	return saveTotal(db, cart)
}

// UpdateItem sets the absolute quantity of one cart line, re-validated
// against current stock, and refreshes the line's price snapshot.
func UpdateItem(db *gorm.DB, userID, itemID uint, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperr.New(apperr.Validation, "quantity must be at least 1")
	}

	cart, err := LoadOrCreate(db, userID)
	if err != nil {
		return nil, err
	}

	var item *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			item = &cart.Items[i]
			break
		}
	}
	if item == nil {
		return nil, apperr.New(apperr.NotFound, "cart item not found")
	}

	var product models.Product
	if err := db.First(&product, "id = ?", item.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "product not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to load product", err)
	}

	if product.Stock <= 0 {
		return nil, apperr.New(apperr.InsufficientStock, "product is out of stock").
			With("product_id", product.ID).
			With("current_stock", 0)
	}
	if qty > product.Stock {
		return nil, insufficientStock(&product, qty)
	}

	item.Quantity = qty
	item.PriceSnapshot = product.UnitPrice()
	item.AddedAt = time.Now()
	if err := db.Save(item).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to update cart item", err)
	}

	return saveTotal(db, cart)
}

// RemoveItem deletes one line from the user's cart.
func RemoveItem(db *gorm.DB, userID, itemID uint) (*models.Cart, error) {
	cart, err := LoadOrCreate(db, userID)
	if err != nil {
		return nil, err
	}

	res := db.Where("cart_id = ? AND id = ?", cart.ID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to remove cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NotFound, "cart item not found")
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	return saveTotal(db, cart)
}

// Clear empties the user's cart.
func Clear(db *gorm.DB, userID uint) (*models.Cart, error) {
	cart, err := LoadOrCreate(db, userID)
	if err != nil {
		return nil, err
	}

	if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to clear cart", err)
	}
	cart.Items = nil

	return saveTotal(db, cart)
}

func saveTotal(db *gorm.DB, cart *models.Cart) (*models.Cart, error) {
	cart.RecomputeTotal()
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Update("total_amount", cart.TotalAmount).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to update cart total", err)
	}
	return cart, nil
}

func insufficientStock(product *models.Product, requested int) error {
	return apperr.New(apperr.InsufficientStock,
		fmt.Sprintf("insufficient stock (current stock: %d, requested: %d)",
			product.Stock, requested)).
		With("product_id", product.ID).
		With("current_stock", product.Stock).
		With("requested", requested)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be numeric"})
		return 0, false
	}
	return uint(id), true
}

// -------- Handlers --------

// GET /cart
func GetCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		cart, err := LoadOrCreate(db, claims.UserID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// POST /cart/items
func AddItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		cart, err := AddItem(db, claims.UserID, input.ProductID, input.Quantity)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// PUT /cart/items/:itemId
func UpdateItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		itemID, ok := parseID(c, "itemId")
		if !ok {
			return
		}

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}

		cart, err := UpdateItem(db, claims.UserID, itemID, input.Quantity)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// DELETE /cart/items/:itemId
func RemoveItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		itemID, ok := parseID(c, "itemId")
		if !ok {
			return
		}

		cart, err := RemoveItem(db, claims.UserID, itemID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// DELETE /cart
func ClearCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		cart, err := Clear(db, claims.UserID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
