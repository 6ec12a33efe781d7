package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api"
	"github.com/sweetshop/inventory-api/internal/api/handler"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/core/service"
	"github.com/sweetshop/inventory-api/internal/infrastructure/db/memory"
	mongodb "github.com/sweetshop/inventory-api/internal/infrastructure/db/mongo"
	redisdb "github.com/sweetshop/inventory-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/inventory-api/internal/infrastructure/queue"
	"github.com/sweetshop/inventory-api/internal/pkg/config"
	"github.com/sweetshop/inventory-api/pkg/logger"
)

type stores struct {
	users     ports.AuthRepository
	sweets    ports.SweetRepository
	movements ports.MovementRepository
}

// @title        Sweet Shop Inventory API
// @version      1.0
// @description  Inventory, purchasing and restocking of sweets with JWT authentication.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sweetshop",
	})
	log.Info().Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("starting")

	ctx := context.Background()
	checks := map[string]handler.DependencyCheck{}

	st, closeStore := openStore(ctx, cfg, log, checks)
	defer closeStore()

	var denylist ports.TokenDenylist
	if cfg.Redis.Enabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer rdb.Close()

		denylist = redisdb.NewTokenDenylist(rdb)
		checks["redis"] = redisdb.Ping(rdb)
	}

	tokens, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL, denylist, logger.Component(log, "tokens"))
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	authService := service.NewAuthService(st.users, tokens, logger.Component(log, "auth"))
	if cfg.SeedAdmin() {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal().Err(err).Msg("ensure admin")
		}
	}

	dispatcher := queue.NewDispatcher(cfg.MovementWorkers, st.movements, logger.Component(log, "movements"))
	dispatcher.Start(ctx)

	sweetService := service.NewSweetService(st.sweets, st.movements, dispatcher, logger.Component(log, "sweets"))

	e := api.NewRouter(api.RouterDeps{
		AuthService:   authService,
		SweetService:  sweetService,
		Tokens:        tokens,
		Logger:        logger.Component(log, "http"),
		HealthChecks:  checks,
		EnableMetrics: true,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("movement dispatcher did not drain")
	}

	log.Info().Msg("stopped")
}

// openStore connects the configured store and registers its readiness check.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handler.DependencyCheck) (stores, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return stores{
			users:     memory.NewUserRepository(),
			sweets:    memory.NewSweetRepository(),
			movements: memory.NewMovementRepository(),
		}, func() {}
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}

	users := mongodb.NewUserRepository(db, cfg.Mongo.Timeout)
	sweets := mongodb.NewSweetRepository(db, cfg.Mongo.Timeout)
	movements := mongodb.NewMovementRepository(db, cfg.Mongo.Timeout)
	if err := mongodb.EnsureIndexes(ctx, users, sweets, movements); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes")
	}
	checks["mongo"] = mongodb.Ping(db)

	return stores{users: users, sweets: sweets, movements: movements}, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}
}
