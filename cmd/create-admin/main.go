package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/orgdesk/room-scheduler/internal/config"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/services"
	"github.com/orgdesk/room-scheduler/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// create-admin provisions an administrator account.
// The password may come from -password or ADMIN_PASSWORD.
func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin e-mail address")
	password := flag.String("password", "", "admin password (defaults to $ADMIN_PASSWORD)")
	fullName := flag.String("name", os.Getenv("ADMIN_NAME"), "display name")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	authService := services.NewAdminAuthService(
		database.NewAdminUserRepository(db),
		database.NewAdminRefreshTokenRepository(db),
		jwtService,
		services.NewAuditService(db, cfg.Security.EnableAuditLog, logger),
		logger,
		cfg.Security.BcryptCost,
	)

	admin, err := authService.CreateAdmin(ctx, *email, *password, *fullName)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create admin user")
	}

	logger.WithFields(logrus.Fields{
		"admin_id": admin.ID,
		"email":    admin.Email,
	}).Info("Admin user ready")
}
