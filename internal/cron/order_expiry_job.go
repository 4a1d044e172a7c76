package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jdelacruz/tradepost-backend/pkg/logger"
)

const defaultPendingCardTTL = 24 * time.Hour

type orderExpirer interface {
	ExpireStalePendingCardOrders(ctx context.Context, cutoff time.Time) (int, error)
}

// OrderExpiryJobParams configure the stale card-order sweep.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders orderExpirer
	TTL    time.Duration
}

// NewOrderExpiryJob builds the job that cancels card orders whose payment
// window elapsed, restoring their reserved stock.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingCardTTL
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders orderExpirer
	ttl    time.Duration
	now    func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.orders.ExpireStalePendingCardOrders(ctx, cutoff)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
	})
	if err != nil {
		return fmt.Errorf("expire stale card orders: %w", err)
	}
	j.logg.Info(logCtx, "order expiry sweep complete")
	return nil
}
