package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/auth"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/config"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/pump-monitoring-system/internal/http"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	opts := service.Options{
		QueryTimeout: config.QueryTimeout(),
		Tokens:       auth.NewTokenManager(config.JWTSecret(), config.JWTTTL()),
		Revocations:  revocations(ctx),
		LockFor:      config.LoginLockDuration(),
		TableColumns: config.TableColumns(),
	}

	svcs := service.New(db, opts)
	app := fiber.New(fiber.Config{
		AppName:      "pump-monitoring-api",
		ErrorHandler: httpHandlers.ErrorHandler(config.IsDevelopment()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	httpHandlers.Register(app, svcs, httpHandlers.Options{
		Development: config.IsDevelopment(),
		Tables:      config.TableAllowlist(),
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}

// revocations keeps logged-out tokens in Redis when REDIS_ADDR is set so
// every replica sees them. Otherwise they live in process memory.
func revocations(ctx context.Context) auth.RevocationStore {
	if addr := config.RedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", addr).Msg("redis ping")
		}
		log.Info().Str("addr", addr).Msg("token revocations in redis")
		return auth.NewRedisRevocations(client)
	}
	mem := auth.NewMemoryRevocations()
	go mem.Run(ctx, 10*time.Minute)
	return mem
}
