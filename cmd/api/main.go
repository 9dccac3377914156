package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/registration-portal/internal/api/http"
	"github.com/spec-kit/registration-portal/internal/api/http/handlers"
	"github.com/spec-kit/registration-portal/internal/auth"
	"github.com/spec-kit/registration-portal/internal/config"
	"github.com/spec-kit/registration-portal/internal/crypto"
	"github.com/spec-kit/registration-portal/internal/events"
	"github.com/spec-kit/registration-portal/internal/observability"
	"github.com/spec-kit/registration-portal/internal/persistence"
	"github.com/spec-kit/registration-portal/internal/repository"
	"github.com/spec-kit/registration-portal/internal/service"
	"github.com/spec-kit/registration-portal/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fieldKey, hashKey, err := cfg.Crypto.Keys()
	if err != nil {
		logger.Fatal("failed to decode crypto keys", zap.Error(err))
	}
	cipher, err := crypto.NewFieldCipher(fieldKey, hashKey)
	if err != nil {
		logger.Fatal("failed to init field cipher", zap.Error(err))
	}

	privateKeyPEM, err := os.ReadFile(cfg.Auth.JWTPrivateKeyPath)
	if err != nil {
		logger.Fatal("failed to read signing key", zap.Error(err))
	}
	publicKeyPEM, err := os.ReadFile(cfg.Auth.JWTPublicKeyPath)
	if err != nil {
		logger.Fatal("failed to read verification key", zap.Error(err))
	}
	tokens, err := auth.NewTokenManager(privateKeyPEM, publicKeyPEM, cfg.Auth.AccessTokenTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	challengeRepo := repository.NewChallengeRepository(pool)
	historyRepo := repository.NewLoginHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	denylistRepo := repository.NewDenylistRepository(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()
	mfaService := service.NewMfaService(cfg.Auth, challengeRepo)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          userRepo,
		LoginHistoryRepo:  historyRepo,
		PasswordResetRepo: resetRepo,
		DenylistRepo:      denylistRepo,
		Mfa:               mfaService,
		Tokens:            tokens,
		Cipher:            cipher,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	registrationService := service.NewRegistrationService(registrationRepo, cipher, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(tokens, userRepo, denylistRepo)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Registrations:  handlers.NewRegistrationsHandler(registrationService),
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
