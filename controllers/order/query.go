package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/apperr"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

// ListQuery carries the filter/pagination parameters of GET /orders.
type ListQuery struct {
	Status string
	Page   int
	Limit  int
	Sort   string // e.g. "-created_at"
}

type ListResult struct {
	Orders     []models.Order `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// sortColumns whitelists sortable fields; a leading '-' flips direction.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"order_number": "order_number",
	"status":       "status",
}

// List returns orders visible to the caller: admins see everything,
// customers only their own.
func (e *Engine) List(userID uint, isAdmin bool, q ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}

	query := e.db.Model(&models.Order{})
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}
	if q.Status != "" {
		status, err := mapOrderStatus(q.Status)
		if err != nil {
			return nil, err
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to count orders", err)
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order(orderClause(q.Sort)).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list orders", err)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &ListResult{Orders: orders, Total: total, Page: q.Page, TotalPages: totalPages}, nil
}

func orderClause(sort string) string {
	direction := "ASC"
	if strings.HasPrefix(sort, "-") {
		direction = "DESC"
		sort = sort[1:]
	}
	column, ok := sortColumns[sort]
	if !ok {
		return "created_at DESC"
	}
	return column + " " + direction
}

// Get returns one order; customers may only read their own.
func (e *Engine) Get(userID uint, isAdmin bool, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := e.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "order not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to load order", err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "you may only view your own orders")
	}
	return &order, nil
}

// GetByNumber looks an order up by its human-readable number.
func (e *Engine) GetByNumber(userID uint, isAdmin bool, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := e.db.Preload("Items").
		Where("order_number = ?", strings.ToUpper(orderNumber)).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "order not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to load order", err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "you may only view your own orders")
	}
	return &order, nil
}

// -------- Handlers --------

// GET /orders?status=&page=&limit=&sort=
func ListOrdersHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

		result, err := e.List(claims.UserID, claims.Role == models.RoleAdmin, ListQuery{
			Status: c.Query("status"),
			Page:   page,
			Limit:  limit,
			Sort:   c.DefaultQuery("sort", "-created_at"),
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GET /orders/:id
func GetOrderHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := e.Get(claims.UserID, claims.Role == models.RoleAdmin, orderID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /orders/number/:orderNumber
func GetOrderByNumberHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)

		order, err := e.GetByNumber(claims.UserID, claims.Role == models.RoleAdmin, c.Param("orderNumber"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func parseOrderID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id must be numeric"})
		return 0, false
	}
	return uint(id), true
}
