package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/config"
	"github.com/cmakhmud/smoking-shop/internal/database"
	"github.com/cmakhmud/smoking-shop/internal/i18n"
	"github.com/cmakhmud/smoking-shop/internal/idempotency"
	"github.com/cmakhmud/smoking-shop/internal/logger"
	"github.com/cmakhmud/smoking-shop/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(logger.Config{
		Development: !cfg.IsProduction(),
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Open(cfg, lg)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	tr, err := i18n.New(cfg.DefaultLang)
	if err != nil {
		lg.Fatal("load translations", zap.Error(err))
	}

	var (
		rdb  *redis.Client
		idem idempotency.Store
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis not reachable, sales will not be deduplicated until it is", zap.Error(err))
		}
		cancel()
		idem = idempotency.NewRedisStore(rdb, cfg.SaleDedupWindow)
	} else {
		idem = idempotency.NewMemoryStore(cfg.SaleDedupWindow)
	}

	app := server.New(server.Deps{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Idem:   idem,
		Log:    lg,
		Tr:     tr,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		lg.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Error("shutdown", zap.Error(err))
		}
	}()

	lg.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}
