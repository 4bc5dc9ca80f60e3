package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/token-authority/internal/api/http"
	"github.com/spec-kit/token-authority/internal/api/http/handlers"
	"github.com/spec-kit/token-authority/internal/auth"
	"github.com/spec-kit/token-authority/internal/config"
	"github.com/spec-kit/token-authority/internal/events"
	"github.com/spec-kit/token-authority/internal/observability"
	"github.com/spec-kit/token-authority/internal/persistence"
	"github.com/spec-kit/token-authority/internal/repository"
	"github.com/spec-kit/token-authority/internal/service"
	"github.com/spec-kit/token-authority/internal/worker"
)

const recommendedSecretBytes = 64

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if len(cfg.Auth.SecretKey) < recommendedSecretBytes {
		logger.Warn("secret key shorter than recommended for HMAC-SHA-512",
			zap.Int("length", len(cfg.Auth.SecretKey)),
			zap.Int("recommended", recommendedSecretBytes))
	}

	metrics := observability.NewMetrics()
	go metrics.Serve(cfg.Metrics.Addr, logger)

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := repository.NewSessionRegistry(redis.Client)

	authority, err := auth.NewAuthority(auth.Config{
		Secret:     []byte(cfg.Auth.SecretKey),
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
		ReducedTTL: cfg.Auth.ReducedTTL(),
	}, registry, clockwork.NewRealClock())
	if err != nil {
		logger.Fatal("failed to build token authority", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	sessionService := service.NewSessionService(authority, dispatcher, metrics)
	authMiddleware := auth.NewMiddleware(authority)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis)
	sessionsHandler := handlers.NewSessionsHandler(sessionService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Sessions:       sessionsHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
