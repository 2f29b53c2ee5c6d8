package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/orgdesk/room-scheduler/internal/config"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/handlers"
	"github.com/orgdesk/room-scheduler/internal/middleware"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/orgdesk/room-scheduler/pkg/jwt"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting room scheduler")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("Schema is up to date")
	}

	// Repositories
	roomRepository := database.NewRoomRepository(db)
	ruleRepository := database.NewAvailabilityRuleRepository(db)
	blockRepository := database.NewUnavailabilityRepository(db)
	reservationRepository := database.NewReservationRepository(db)
	adminUserRepository := database.NewAdminUserRepository(db)
	adminRefreshTokenRepository := database.NewAdminRefreshTokenRepository(db)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	auditService := services.NewAuditService(db, cfg.Security.EnableAuditLog, logger)
	rateLimitService := services.NewRateLimitService(db, services.RateLimitConfig{
		MaxIPRequests: cfg.RateLimit.BookingRequests,
		IPWindow:      cfg.RateLimit.Window(),
	})
	roomService := services.NewRoomService(roomRepository, auditService, logger)
	scheduleService := services.NewScheduleService(roomRepository, ruleRepository, auditService, logger)
	unavailabilityService := services.NewUnavailabilityService(roomRepository, blockRepository, auditService, logger)
	availabilityService := services.NewAvailabilityService(roomRepository, reservationRepository, cfg.Scheduler.EnforceRules)
	reservationService := services.NewReservationService(
		reservationRepository,
		rateLimitService,
		auditService,
		logger,
		services.BookingPolicy{
			EnforceRules: cfg.Scheduler.EnforceRules,
			PublicStatus: models.ReservationStatus(cfg.Scheduler.PublicBookingStatus),
			Location:     cfg.Scheduler.Location(),
		},
	)
	adminAuthService := services.NewAdminAuthService(
		adminUserRepository,
		adminRefreshTokenRepository,
		jwtService,
		auditService,
		logger,
		cfg.Security.BcryptCost,
	)

	cronService := services.NewCronService(services.CronJobs{
		Audit:          auditService,
		AuditRetention: time.Duration(cfg.Security.AuditRetentionDays) * 24 * time.Hour,
		RateLimits:     rateLimitService,
		RefreshTokens:  adminRefreshTokenRepository,
	}, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Services initialized")

	// Handlers
	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register request validators: %v", err)
	}
	publicHandler := handlers.NewPublicHandler(roomService, availabilityService, reservationService, cfg.Scheduler.Location(), logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, logger)
	roomHandler := handlers.NewRoomHandler(roomService, scheduleService, availabilityService, logger)
	unavailabilityHandler := handlers.NewUnavailabilityHandler(unavailabilityService, logger)
	reservationHandler := handlers.NewReservationHandler(reservationService, logger)
	auditHandler := handlers.NewAuditHandler(auditService, logger)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Fatalf("Failed to configure trusted proxies: %v", err)
	}
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.HealthCheck(db, version))

	// Anonymous booking surface
	publicHandler.Register(router)

	admin := router.Group("/api/v1/admin")
	{
		adminAuthHandler.RegisterPublic(admin.Group("/auth"))

		protected := admin.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService, adminAuthService, logger))
		protected.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			adminAuthHandler.Register(protected.Group("/auth"))
			roomHandler.Register(protected)
			unavailabilityHandler.Register(protected)
			reservationHandler.Register(protected)
			auditHandler.Register(protected)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// gin-contrib/cors rejects a wildcard origin combined with credentials
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
