// Package main provides the main entry point for the WikiForge account console
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/wikiforge/account-console/app/handlers"
	"github.com/wikiforge/account-console/app/middleware"
	"github.com/wikiforge/account-console/app/router"
	"github.com/wikiforge/account-console/app/services"
	businessflow "github.com/wikiforge/account-console/business_flow"
	"github.com/wikiforge/account-console/config"
	"github.com/wikiforge/account-console/repository"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting account console...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Route logs through the configured writer before anything else logs
	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Setup graceful shutdown
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging points the standard logger at a rotating file when configured
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotating)
	case "both":
		log.SetOutput(io.MultiWriter(os.Stdout, rotating))
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
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
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// startSessionJanitor periodically removes expired session rows
func startSessionJanitor(parent context.Context, sessionRepo repository.AccountSessionRepository, interval time.Duration) func() {
	janitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-janitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
				if err := sessionRepo.CleanupExpiredSessions(ctx); err != nil {
					log.Printf("Session cleanup failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.DefaultTTL)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	tempRepo := repository.NewTempAccountRepository(db)
	optionRepo := repository.NewAccountOptionRepository(db)
	prefRepo := repository.NewGlobalPreferenceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	sessionRepo := repository.NewAccountSessionRepository(db)

	stopJanitor := startSessionJanitor(context.Background(), sessionRepo, time.Hour)
	stopFuncs = append(stopFuncs, stopJanitor)

	// Initialize services
	credentialService := services.NewCredentialService(cfg.Security.BcryptCost)
	avatarService := services.NewAvatarService(&cfg.Avatar)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		rc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Log that services are initialized
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	editFlow := businessflow.NewAccountEditFlow(
		accountRepo,
		tempRepo,
		optionRepo,
		prefRepo,
		auditRepo,
		credentialService,
		db,
	)

	closeFlow := businessflow.NewCloseAccountFlow(
		accountRepo,
		tempRepo,
		optionRepo,
		prefRepo,
		auditRepo,
		sessionRepo,
		credentialService,
		tokenService,
		avatarService,
		&cfg.Platform,
		db,
	)

	auditFlow := businessflow.NewAuditReviewFlow(
		accountRepo,
		tempRepo,
		auditRepo,
	)

	// Initialize handlers
	editHandler := handlers.NewAccountEditHandler(editFlow)
	closeHandler := handlers.NewCloseAccountHandler(closeFlow)
	auditHandler := handlers.NewAuditHandler(auditFlow)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, accountRepo)
	accessGate := middleware.NewAccessGate(optionRepo)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		editHandler,
		closeHandler,
		auditHandler,
		authMiddleware,
		accessGate,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
