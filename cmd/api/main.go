package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-levelup/internal/config"
	"github.com/comitanigiacomo/kanso-levelup/internal/platform/logging"
)

// @title           Kanso LevelUp API
// @version         1.0
// @description     Goals, habits and the xp, levels and badges they earn.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	logging.Setup(cfg.AppLogLevel, cfg.AppEnv)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Connecting to database...")

	db, err := sqlx.Connect("pgx", cfg.DatabaseDSN())
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxConns)
	db.SetMaxIdleConns(cfg.DBMaxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("Database connected successfully.")

	if cfg.DBAutoMigrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("Critical: Failed to apply schema: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.RedisEnabled {
		rdb, err = cache.NewRedisClient(ctx, cache.Options{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, running without cache and rate limiting")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	application, err := buildApp(ctx, cfg, db, rdb)
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	if err := application.start(ctx); err != nil {
		log.Fatalf("Critical: Failed to start background jobs: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      application.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Kanso LevelUp running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Stop signal received. Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Forced shutdown error: %v", err)
	}

	cancel()
	application.stop()

	log.Info("Server stopped gracefully.")
}
