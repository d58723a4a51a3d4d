package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/config"
	cartControllers "github.com/dongkoo-kang/vibe-shoppingmall/controllers/cart"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
)

// SetupCartRoutes registers the "/cart/*" endpoints. All of them require a
// valid token.
func SetupCartRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	cart := r.Group("/cart")
	cart.Use(middleware.ValidateToken(cfg.JWTSecret))
	{
		cart.GET("", cartControllers.GetCartHandler(db))
		cart.POST("/items", cartControllers.AddItemHandler(db))
		cart.PUT("/items/:itemId", cartControllers.UpdateItemHandler(db))
		cart.DELETE("/items/:itemId", cartControllers.RemoveItemHandler(db))
		cart.DELETE("", cartControllers.ClearCartHandler(db))
	}
}
