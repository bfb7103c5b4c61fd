package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dealerdeskhq/dealerdesk-backend/internal/auctions"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/audit"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/cron"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/expenses"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/insurance"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/notifications"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/payments"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/reports"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/vehicles"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/config"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/metrics"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/migrate"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	gormDB := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gormDB), logg)
	vehicleRepo := vehicles.NewRepository(gormDB)

	paymentService, err := payments.NewService(payments.NewRepository(gormDB), dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to build payments service", err)
		os.Exit(1)
	}
	insuranceService, err := insurance.NewService(insurance.NewRepository(gormDB), vehicleRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to build insurance service", err)
		os.Exit(1)
	}
	auctionService, err := auctions.NewService(auctions.NewRepository(gormDB), vehicleRepo, dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to build auctions service", err)
		os.Exit(1)
	}
	expenseService, err := expenses.NewService(expenses.NewRepo(gormDB), dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to build expenses service", err)
		os.Exit(1)
	}
	reportService, err := reports.NewService(reports.NewRepository(gormDB), cfg.Exports.Dir)
	if err != nil {
		logg.Error(context.Background(), "failed to build reports service", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	register := func(job cron.Job, err error) {
		if err != nil {
			logg.Error(context.Background(), "failed to build cron job", err)
			os.Exit(1)
		}
		registry.Register(job)
	}

	register(cron.NewPaymentOverdueJob(cron.PaymentOverdueJobParams{
		Logger:   logg,
		Payments: paymentService,
	}))
	register(cron.NewInsuranceExpiryJob(cron.InsuranceExpiryJobParams{
		Logger:    logg,
		Insurance: insuranceService,
	}))
	register(cron.NewAuctionSweepJob(cron.AuctionSweepJobParams{
		Logger:   logg,
		Auctions: auctionService,
	}))
	register(cron.NewRecurringExpenseJob(cron.RecurringExpenseJobParams{
		Logger:   logg,
		Expenses: expenseService,
	}))
	register(cron.NewScheduledReportJob(cron.ScheduledReportJobParams{
		Logger:  logg,
		Reports: reportService,
	}))
	register(cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notifications.NewRepository(gormDB),
		Retention:  cfg.Notifications.RetentionDays,
	}))
	register(cron.NewLoginHistoryRetentionJob(cron.LoginHistoryRetentionJobParams{
		Logger:     logg,
		Repository: audit.NewRepository(gormDB),
		Retention:  cfg.Cron.LoginHistoryRetention,
	}))
	register(cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(gormDB),
	}))

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
