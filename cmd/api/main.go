package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/apsoplatform/apso/config"
	"github.com/apsoplatform/apso/internal/domain"
	apihandler "github.com/apsoplatform/apso/internal/handler/api"
	"github.com/apsoplatform/apso/internal/repository/postgres"
	redisrepo "github.com/apsoplatform/apso/internal/repository/redis"
	"github.com/apsoplatform/apso/internal/usecase"
	"github.com/apsoplatform/apso/internal/worker"
	"github.com/apsoplatform/apso/pkg/auth"
	"github.com/apsoplatform/apso/pkg/logger"
	"github.com/apsoplatform/apso/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.App.Environment)
	defer logger.Close()

	// Print configuration in development mode
	if cfg.App.IsDevelopment() {
		cfg.Print()
	}

	// Initialize database connection
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	db.SetMaxOpenConns(cfg.Database.MaxOpen)
	db.SetConnMaxLifetime(cfg.Database.MaxLife)

	// Initialize Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// Test Redis connection
	_, err = rdb.Ping(context.Background()).Result()
	if err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer rdb.Close()

	logger.Info("Database and Redis connections established")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	investmentRepo := postgres.NewInvestmentRepository(db)
	cacheRepo := redisrepo.NewCacheRepository(rdb)

	// Install the plan catalog on first boot
	if err := planRepo.Seed(domain.DefaultCatalog()); err != nil {
		logger.Fatal("Failed to seed plan catalog", logger.ErrorField(err))
	}

	// Initialize auth service
	authService := auth.NewJWTAuthService(cfg.Auth)

	// Initialize use cases
	userUC := usecase.NewUserUsecase(userRepo, cacheRepo, authService)
	ledgerUC := usecase.NewLedgerUsecase(ledgerRepo, userRepo, cacheRepo, cfg.Invest.WithdrawalHold)
	investmentUC := usecase.NewInvestmentUsecase(
		investmentRepo, planRepo, cacheRepo, cacheRepo,
		cfg.Invest.EntryPlanID, cfg.Invest.EntryPlanLimit,
	)
	referralUC := usecase.NewReferralUsecase(userRepo)

	// Initialize handlers
	userHandler := apihandler.NewUserHandler(userUC)
	planHandler := apihandler.NewPlanHandler(planRepo, cfg.Invest.EntryPlanID)
	ledgerHandler := apihandler.NewLedgerHandler(ledgerUC)
	investmentHandler := apihandler.NewInvestmentHandler(investmentUC)
	referralHandler := apihandler.NewReferralHandler(referralUC)

	// Start background accrual worker
	accrualWorker := worker.NewAccrualWorker(cacheRepo, investmentUC, worker.AccrualWorkerConfig{
		PollingInterval: cfg.Invest.AccrualPollInterval,
		ScanInterval:    cfg.Invest.AccrualScanInterval,
	})
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go accrualWorker.Start(workerCtx)

	// Set Gin mode
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize metrics handler
	metricsHandler := observability.NewMetricsHandler()

	// Create Gin router
	router := gin.New()
	router.Use(observability.ObservabilityMiddleware())

	// Setup metrics and health endpoints
	router.GET("/metrics", metricsHandler.MetricsEndpoint())
	router.GET("/health", metricsHandler.HealthEndpoint())
	router.GET("/ready", metricsHandler.ReadinessEndpoint())
	router.GET("/live", metricsHandler.LivenessEndpoint())

	// Setup API routes
	apihandler.SetupRoutes(router,
		userHandler, planHandler, ledgerHandler, investmentHandler, referralHandler,
		authService,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			logger.String("port", cfg.App.Port),
			logger.String("environment", cfg.App.Environment),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	workerCancel()

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server exited")
}
