package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dongkoo-kang/vibe-shoppingmall/config"
	orderControllers "github.com/dongkoo-kang/vibe-shoppingmall/controllers/order"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
)

// SetupOrderRoutes registers the "/orders/*" endpoints. Status updates are
// admin only; everything else is scoped to the authenticated user.
func SetupOrderRoutes(r *gin.Engine, engine *orderControllers.Engine, cfg *config.Config) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken(cfg.JWTSecret))
	{
		orders.POST("", orderControllers.CreateOrderHandler(engine))
		orders.GET("", orderControllers.ListOrdersHandler(engine))
		orders.GET("/:id", orderControllers.GetOrderHandler(engine))
		orders.GET("/number/:orderNumber", orderControllers.GetOrderByNumberHandler(engine))
		orders.PATCH("/:id/cancel", orderControllers.CancelOrderHandler(engine))

		admin := orders.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.PATCH("/:id/status", orderControllers.UpdateStatusHandler(engine))
		}
	}
}
