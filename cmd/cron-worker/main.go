package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jdelacruz/tradepost-backend/internal/cart"
	"github.com/jdelacruz/tradepost-backend/internal/cron"
	"github.com/jdelacruz/tradepost-backend/internal/notifications"
	"github.com/jdelacruz/tradepost-backend/internal/orders"
	"github.com/jdelacruz/tradepost-backend/internal/products"
	"github.com/jdelacruz/tradepost-backend/internal/relationships"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
	"github.com/jdelacruz/tradepost-backend/pkg/db"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/metrics"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/redis"
)

const cronLockName = "cron-worker"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	events := outbox.NewService(outboxRepo, logg)
	productRepo := products.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, productRepo)
	requireResource(ctx, logg, "cart service", err)

	relationshipService, err := relationships.NewService(relationships.NewRepository(dbClient.DB()), events)
	requireResource(ctx, logg, "relationship service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              orders.NewRepository(dbClient.DB()),
		Tx:                dbClient,
		Events:            events,
		Cart:              cartService,
		Relationships:     relationshipService,
		LowStockThreshold: cfg.Checkout.LowStockThreshold,
	})
	requireResource(ctx, logg, "order service", err)

	expiryJob, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger: logg,
		Orders: orderService,
		TTL:    cfg.Checkout.PendingCardOrderTTL,
	})
	requireResource(ctx, logg, "order expiry job", err)

	retentionJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Logger:                    logg,
		Notifications:             notifications.NewRepository(dbClient.DB()),
		Outbox:                    outboxRepo,
		NotificationRetentionDays: cfg.Notifications.RetentionDays,
		OutboxRetentionDays:       cfg.Outbox.RetentionDays,
	})
	requireResource(ctx, logg, "retention job", err)

	lock, err := cron.NewRedisLock(redisClient, cronLockName, 0)
	requireResource(ctx, logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	requireResource(ctx, logg, "cron service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithField(runCtx, "env", cfg.App.Env)
	logg.Info(runCtx, "cron worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "cron worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
