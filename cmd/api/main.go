package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "hrbackend/api/swagger" // swagger docs
	"hrbackend/internal/config"
	"hrbackend/internal/database"
	"hrbackend/internal/handler"
	"hrbackend/internal/i18n"
	"hrbackend/internal/logger"
	"hrbackend/internal/middleware"
	"hrbackend/internal/repository"
	"hrbackend/internal/scheduler"
	"hrbackend/internal/service"
	"hrbackend/internal/storage"
	"hrbackend/internal/websocket"
	"hrbackend/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           HR Approval API
// @version         1.0
// @description     Leave, mission and salary advance requests with HR and director approval.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envErr := godotenv.Load("configs/.env")

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("No configs/.env file found or error loading it")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	tr, err := i18n.New(cfg.I18n.DefaultLocale)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	loc, err := cfg.Workflow.Location()
	if err != nil {
		return err
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log.Named("ws"), cfg.Server.AllowedOrigins)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	requestRepo := repository.NewRequestRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	engine := workflow.NewEngine(workflow.NewMessageComposer(tr), workflow.WithFinalCommentRequired(cfg.Workflow.RequireFinalComment))
	checker := workflow.NewChecker(cfg.Workflow.AdvanceCutoffDay, loc)

	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), wsHub, nil, log)
	requestService := service.NewRequestService(txManager, requestRepo, workerRepo, auditRepo, store, checker, nil, log)
	approvalService := service.NewApprovalService(txManager, requestRepo, workerRepo, userRepo, auditRepo, engine, notificationService, log)
	reportService := service.NewReportService(requestRepo, tr, nil)
	workerService := service.NewWorkerService(txManager, workerRepo, requestRepo, auditRepo, store, cfg.Workflow.DefaultLeaveDays, log)
	userService := service.NewUserService(txManager, userRepo, auditRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	statisticsService := service.NewStatisticsService(repository.NewStatisticsRepository(db), nil)
	auditService := service.NewAuditService(auditRepo)

	jobs := scheduler.New(loc, log.Named("scheduler"))
	retention := time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour
	if err := jobs.AddNotificationPurge(cfg.Notifications.PurgeSchedule, notificationService, retention); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, cfg.IsRelease())

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, auth, cfg.Auth.TokenTTL)
	workerHandler := handler.NewWorkerHandler(workerService, auth)
	leaveHandler := handler.NewLeaveHandler(requestService, approvalService, reportService, auth)
	missionHandler := handler.NewMissionHandler(requestService, approvalService, reportService, auth)
	advanceHandler := handler.NewAdvanceHandler(requestService, approvalService, reportService, auth)
	notificationHandler := handler.NewNotificationHandler(notificationService, auth)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, reportService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	// Set up Gin Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Locale(tr))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Accept-Language"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret())
	})

	// API Routing
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	workerHandler.RegisterRoutes(root)
	leaveHandler.RegisterRoutes(root)
	missionHandler.RegisterRoutes(root)
	advanceHandler.RegisterRoutes(root)
	notificationHandler.RegisterRoutes(root)
	statisticsHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
