package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dongkoo-kang/vibe-shoppingmall/account"
	"github.com/dongkoo-kang/vibe-shoppingmall/config"
	orderControllers "github.com/dongkoo-kang/vibe-shoppingmall/controllers/order"
)

// SetupRoutes wires up the user, cart and order route groups plus the
// operational endpoints.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, guard *account.Guard, engine *orderControllers.Engine, logger *zap.Logger) {
	SetupUserRoutes(r, db, cfg, guard, logger)
	SetupCartRoutes(r, db, cfg)
	SetupOrderRoutes(r, engine, cfg)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
