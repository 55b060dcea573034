package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/nameforge/nameforge/internal/api"
	"github.com/nameforge/nameforge/internal/azure"
	"github.com/nameforge/nameforge/internal/cache"
	"github.com/nameforge/nameforge/internal/conflict"
	"github.com/nameforge/nameforge/internal/publisher"
	"github.com/nameforge/nameforge/internal/rate"
	internalsecrets "github.com/nameforge/nameforge/internal/secrets"
	"github.com/nameforge/nameforge/internal/settings"
	"github.com/nameforge/nameforge/internal/validation"
	"github.com/nameforge/nameforge/pkg/config"
	"github.com/nameforge/nameforge/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [nameforge]...")

	// --- Encrypted-secret codec (optional, needs an app key) ---
	var codec *internalsecrets.Codec
	if cfg.EncryptionKey != "" {
		var err error
		codec, err = internalsecrets.NewCodec(cfg.EncryptionKey)
		if err != nil {
			logg.Fatalw("invalid encryption key", "error", err)
		}
	}

	// --- Secret resolver (Key Vault > encrypted config > plain config) ---
	resolver := internalsecrets.NewResolver(logger.L(), codec, nil)

	// --- Azure client manager + query engine ---
	clients := azure.NewManager(logger.L(), resolver)
	limiter := rate.New(rate.Config{
		RequestsPerSecond: cfg.QueryRatePerSecond,
		Burst:             cfg.QueryBurst,
	})
	engine := azure.NewEngine(logger.L(), limiter, cfg.QueryTimeout)
	tester := azure.NewTester(logger.L(), clients, engine)

	// --- Validation cache (Redis-backed, falls back to in-memory) ---
	var cacheStore cache.Store
	var health api.HealthChecker
	redisCache, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger.L())
	if err != nil {
		logg.Warnw("redis unavailable, using in-memory validation cache", "error", err)
		memStore := cache.NewMemoryStore()
		go memStore.StartCleaner(5*time.Minute, ctx.Done())
		cacheStore = memStore
	} else {
		cacheStore = redisCache
		health = redisCache
		defer redisCache.Close()
	}

	// --- NATS (optional: settings-invalidation fan-out) ---
	var nc *nats.Conn
	var pub settings.EventPublisher
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Warnw("NATS unavailable, settings events disabled", "error", err)
		} else {
			defer nc.Close()
			pub = publisher.New(logger.L(), nc, cfg.OutboundSubject, cfg.ServiceName)
		}
	}

	// --- Settings service ---
	var settingsStore settings.Store
	if redisCache != nil {
		settingsStore = settings.NewRedisStore(redisCache.Client())
	} else {
		settingsStore = settings.NewMemoryStore()
	}
	settingsSvc := settings.NewService(logger.L(), settingsStore, clients, cacheStore, pub)
	if nc != nil {
		sub, serr := settingsSvc.StartInvalidationListener(nc, cfg.OutboundSubject)
		if serr != nil {
			logg.Warnw("failed to subscribe to settings events", "error", serr)
		} else {
			defer func() { _ = sub.Unsubscribe() }()
		}
	}

	// --- Validator + conflict resolver ---
	validator := validation.NewService(logger.L(), cfg.ValidationEnabled, settingsSvc, clients, engine, cacheStore)
	conflicts := conflict.NewResolver(logger.L())

	// --- HTTP server ---
	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := api.NewHandler(logger.L(), validator, settingsSvc, tester, conflicts)
	api.RegisterRoutes(app, nc, health, handler)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("http server failed", "error", err)
		}
	}()
	logg.Infow("nameforge listening", "port", cfg.Port, "validation_enabled", cfg.ValidationEnabled)

	<-ctx.Done()
	logg.Info("shutting down...")
	_ = app.Shutdown()
}
