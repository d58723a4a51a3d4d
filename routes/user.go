package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/account"
	"github.com/dongkoo-kang/vibe-shoppingmall/config"
	userControllers "github.com/dongkoo-kang/vibe-shoppingmall/controllers/user"
	"github.com/dongkoo-kang/vibe-shoppingmall/middleware"
)

// SetupUserRoutes registers the "/users/*" endpoints. Register, login and
// reset-password are public; the rest require a valid token.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, guard *account.Guard, logger *zap.Logger) {
	users := r.Group("/users")
	{
		users.POST("/register", userControllers.RegisterHandler(db))
		users.POST("/login", userControllers.LoginHandler(db, cfg, guard, logger))
		users.POST("/reset-password", userControllers.ResetPasswordHandler(db))
	}

	me := r.Group("/users")
	me.Use(middleware.ValidateToken(cfg.JWTSecret))
	{
		me.GET("/me", userControllers.GetProfileHandler(db))
		me.PUT("/password", userControllers.ChangePasswordHandler(db))
	}
}
