// Package main provides the main entry point for the partyline invitation service
//
//	@title						Partyline API
//	@version					1.0
//	@description				Event invitations over SMS and WhatsApp with delivery tracking and reply routing.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/partyline/app/handlers"
	"github.com/amirphl/partyline/app/middleware"
	"github.com/amirphl/partyline/app/router"
	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	logger    *slog.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("Starting partyline",
		"environment", cfg.Deployment.Environment,
		"version", cfg.Deployment.Version,
		"commit", cfg.Deployment.CommitHash,
	)

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	app.router.SetupRoutes()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		serverErr <- app.router.Start(address)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", "error", err)
		}
	}

	if err := app.router.GetApp().ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}

	// Stop background workers and close clients after in-flight requests drain
	for i := len(app.stopFuncs) - 1; i >= 0; i-- {
		app.stopFuncs[i]()
	}

	logger.Info("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(
			log.Default(),
			gormlogger.Config{
				SlowThreshold:             cfg.SlowQueryTime,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	logger.Info("Database connection established",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"auto_migrate", cfg.AutoMigrate,
	)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig, logger *slog.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", "db", opt.DB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis to surface connectivity issues.
// The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger *slog.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn("Redis healthcheck failed", "error", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeTransport selects the messaging provider
func initializeTransport(cfg config.MessagingConfig, logger *slog.Logger) services.MessageTransport {
	switch cfg.Provider {
	case "mock":
		logger.Warn("Using mock messaging transport; no messages leave the process")
		return services.NewMockTransport()
	default:
		return services.NewTwilioTransport(cfg)
	}
}

// initializePublisher connects the domain event publisher, or a no-op when disabled
func initializePublisher(cfg config.EventsConfig, logger *slog.Logger) (services.EventPublisher, error) {
	if !cfg.Enabled {
		return services.NoopPublisher{}, nil
	}
	publisher, err := services.NewAMQPPublisher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	logger.Info("Event publisher connected", "exchange", cfg.Exchange)
	return publisher, nil
}

// initializeArchiver returns nil when export archiving is disabled
func initializeArchiver(cfg config.ArchiveConfig, logger *slog.Logger) (services.ExportArchiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	archiver, err := services.NewS3Archiver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize export archiver: %w", err)
	}
	logger.Info("Export archiving enabled", "bucket", cfg.Bucket)
	return archiver, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, logger *slog.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	var revocations services.RevocationStore
	if rc != nil {
		revocations = services.NewRedisRevocationStore(rc, cfg.Cache.RedisPrefix)
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthCheckInterval, logger))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	} else {
		logger.Warn("Redis disabled; token revocations are kept in memory")
		revocations = services.NewMemoryRevocationStore()
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	eventRepo := repository.NewEventRepository(db)
	sentMessageRepo := repository.NewSentMessageRepository(db)
	optEventRepo := repository.NewOptEventRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	tokenService, err := services.NewTokenService(cfg.JWT, revocations)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("Token service initialized", "issuer", cfg.JWT.Issuer, "audience", cfg.JWT.Audience)

	transport := initializeTransport(cfg.Messaging, logger)

	publisher, err := initializePublisher(cfg.Events, logger)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
	})

	archiver, err := initializeArchiver(cfg.Archive, logger)
	if err != nil {
		return nil, err
	}

	generator := services.NewMessageGenerator(cfg.AI)

	// Flows
	recipientFlow := businessflow.NewRecipientFlow(recipientRepo, auditRepo)
	eventFlow := businessflow.NewEventFlow(eventRepo, recipientRepo, auditRepo, recipientFlow, db)
	dispatchFlow := businessflow.NewDispatchFlow(
		eventRepo,
		recipientRepo,
		sentMessageRepo,
		auditRepo,
		recipientFlow,
		transport,
		publisher,
		cfg.Messaging,
		logger,
	)
	reconcileFlow := businessflow.NewReconcileFlow(sentMessageRepo, publisher, logger)
	inboundFlow := businessflow.NewInboundFlow(
		accountRepo,
		recipientRepo,
		sentMessageRepo,
		optEventRepo,
		transport,
		publisher,
		cfg.Messaging,
		db,
		logger,
	)
	signupFlow := businessflow.NewSignupFlow(accountRepo, auditRepo, tokenService, cfg.Security.BcryptCost, db)
	loginFlow := businessflow.NewLoginFlow(accountRepo, auditRepo, tokenService)
	profileFlow := businessflow.NewProfileFlow(accountRepo, auditRepo)
	messageFlow := businessflow.NewMessageFlow(eventRepo, sentMessageRepo, auditRepo, generator, archiver, logger)

	// Handlers
	v := handlers.NewValidator()
	appRouter := router.NewFiberRouter(
		cfg,
		router.Handlers{
			Auth:      handlers.NewAuthHandler(signupFlow, loginFlow, v, logger),
			Profile:   handlers.NewProfileHandler(profileFlow, v, logger),
			Recipient: handlers.NewRecipientHandler(recipientFlow, v, logger),
			Event:     handlers.NewEventHandler(eventFlow, dispatchFlow, messageFlow, v, logger),
			Message:   handlers.NewMessageHandler(dispatchFlow, messageFlow, v, logger),
			Webhook:   handlers.NewWebhookHandler(reconcileFlow, inboundFlow, logger),
		},
		middleware.NewAuthMiddleware(tokenService),
		logger,
	)

	return &Application{
		router:    appRouter,
		config:    cfg,
		logger:    logger,
		stopFuncs: stopFuncs,
	}, nil
}
