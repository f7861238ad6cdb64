// @title        ChannelPass Platform API
// @version      1.0
// @description  Identity handshake and multi-tenant session resolution for the ChannelPass platform.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/channelpass/platform/docs"
	"github.com/channelpass/platform/internal/api"
	"github.com/channelpass/platform/internal/core/service"
	"github.com/channelpass/platform/internal/infrastructure/config"
	mongodb "github.com/channelpass/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/channelpass/platform/internal/infrastructure/db/redis"
	"github.com/channelpass/platform/internal/infrastructure/queue"
	busSignal "github.com/channelpass/platform/internal/signal"
	"github.com/channelpass/platform/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("configuration load failed")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	// Audit events are recorded off the request path.
	auditService := service.NewAuditService(mongodb.NewAuditRepository(db))
	dispatcher := queue.NewDispatcher(0, auditService, log)
	dispatcher.Start(ctx)

	bus := busSignal.NewRedisBus(rdb, "", log)

	e := api.NewRouter(cfg, db, rdb, bus, dispatcher, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
