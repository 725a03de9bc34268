package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turnstake/backend/internal/api"
	"github.com/turnstake/backend/internal/audit"
	"github.com/turnstake/backend/internal/config"
	"github.com/turnstake/backend/internal/database"
	"github.com/turnstake/backend/internal/game"
	"github.com/turnstake/backend/internal/identity"
	"github.com/turnstake/backend/internal/migrations"
	"github.com/turnstake/backend/internal/redis"
	"github.com/turnstake/backend/internal/rules"
	"github.com/turnstake/backend/internal/wallet"
	"github.com/turnstake/backend/internal/ws"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Services
	walletSvc := wallet.New(db)
	auditSvc := audit.New(db)
	identitySvc := identity.New(db)
	recorder := game.NewSQLRecorder(db, auditSvc, cfg)
	settler := game.NewSettler(walletSvc, auditSvc, recorder, cfg.PlatformFeePercent)
	registry := rules.NewRegistry(rand.New(rand.NewSource(time.Now().UnixNano())))

	// Match events fan out through Redis so every instance's hub sees them
	hub := ws.NewHub()
	publisher := ws.NewPublisher(rdb)

	mgr := game.NewManager(game.Deps{
		Config:   cfg,
		Registry: registry,
		Wallet:   walletSvc,
		Identity: identitySvc,
		Audit:    auditSvc,
		Notifier: publisher,
		Settler:  settler,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws.StartEventSubscriber(ctx, rdb, hub)

	sweeper, err := game.NewSweeper(mgr, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("Failed to start recovery sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		DB:       db,
		RDB:      rdb,
		Cfg:      cfg,
		Manager:  mgr,
		Identity: identitySvc,
		Wallet:   walletSvc,
		WS:       ws.NewHandler(hub, mgr, cfg),
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting TurnStake server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
