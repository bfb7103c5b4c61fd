package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dealerdeskhq/dealerdesk-backend/api/routes"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/auctions"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/audit"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/auth"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/clients"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/dashboard"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/dealership"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/documents"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/expenses"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/insurance"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/notifications"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/payments"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/payroll"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/permissions"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/reports"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/repossessions"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/users"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/vehicles"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/auth/session"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/config"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/migrate"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		HistoryRepo:    auth.NewLoginHistoryRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	permissionService, err := permissions.NewService(permissions.NewRepository(gormDB), redisClient, cfg.Permissions.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create permission service", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(gormDB), dbClient, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	vehicleRepo := vehicles.NewRepository(gormDB)
	vehicleService, err := vehicles.NewService(vehicleRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicle service", err)
		os.Exit(1)
	}

	clientService, err := clients.NewService(clients.NewRepository(gormDB), vehicleRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create client service", err)
		os.Exit(1)
	}

	paymentRepo := payments.NewRepository(gormDB)
	paymentService, err := payments.NewService(paymentRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	auctionService, err := auctions.NewService(auctions.NewRepository(gormDB), vehicleRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create auction service", err)
		os.Exit(1)
	}

	insuranceService, err := insurance.NewService(insurance.NewRepository(gormDB), vehicleRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create insurance service", err)
		os.Exit(1)
	}

	repossessionService, err := repossessions.NewService(repossessions.NewRepository(gormDB), paymentRepo, vehicleRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create repossession service", err)
		os.Exit(1)
	}

	expenseService, err := expenses.NewService(expenses.NewRepo(gormDB), dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create expense service", err)
		os.Exit(1)
	}

	documentService, err := documents.NewService(documents.NewRepo(gormDB), dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create document service", err)
		os.Exit(1)
	}

	payrollService, err := payroll.NewService(payroll.NewRepo(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payroll service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	dealershipService, err := dealership.NewService(dealership.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create dealership service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(reports.NewRepository(gormDB), cfg.Exports.Dir)
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:          authService,
			Vehicles:      vehicleService,
			Clients:       clientService,
			Payments:      paymentService,
			Auctions:      auctionService,
			Insurance:     insuranceService,
			Repossessions: repossessionService,
			Expenses:      expenseService,
			Documents:     documentService,
			Payroll:       payrollService,
			Notifications: notificationService,
			Audit:         auditService,
			Permissions:   permissionService,
			Dashboard:     dashboardService,
			Dealership:    dealershipService,
			Reports:       reportService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
