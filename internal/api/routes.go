package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/turnstake/backend/internal/api/handlers"
	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/game"
	"github.com/turnstake/backend/internal/identity"
	"github.com/turnstake/backend/internal/middleware"
	"github.com/turnstake/backend/internal/wallet"
	"github.com/turnstake/backend/internal/ws"
)

// Deps carries the services routes are wired against.
type Deps struct {
	DB       *sqlx.DB
	RDB      *redis.Client
	Cfg      *config.Config
	Manager  *game.Manager
	Identity *identity.Service
	Wallet   *wallet.Service
	WS       *ws.Handler
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Cfg))

	if d.Cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.DB, d.RDB))
		v1.POST("/auth/login", handlers.Login(d.Identity, d.Cfg))

		// WebSocket upgrade authenticates via query token inside the handler
		v1.GET("/ws", d.WS.Serve)

		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(d.Cfg))
		{
			authed.GET("/me", handlers.GetProfile(d.Identity))
			authed.GET("/me/balance", handlers.GetBalance(d.Wallet))
			authed.GET("/me/match", handlers.GetCurrentMatch(d.Manager))
			authed.GET("/match/:id", handlers.GetMatchStatus(d.Manager))
			authed.GET("/queue/status", handlers.GetQueueStatus(d.Manager))
		}
	}
}
