package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/jdelacruz/tradepost-backend/pkg/logger"
)

const (
	defaultNotificationRetentionDays = 90
	defaultOutboxRetentionDays       = 30
)

type notificationPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type outboxPruner interface {
	DeletePublishedBefore(cutoff time.Time) (int64, error)
}

// RetentionJobParams configure the retention sweep.
type RetentionJobParams struct {
	Logger                    *logger.Logger
	Notifications             notificationPruner
	Outbox                    outboxPruner
	NotificationRetentionDays int
	OutboxRetentionDays       int
}

// NewRetentionJob builds the job that prunes read notifications and
// delivered outbox events past their retention windows. The two sweeps run
// independently so one failing does not block the other.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	notificationDays := params.NotificationRetentionDays
	if notificationDays <= 0 {
		notificationDays = defaultNotificationRetentionDays
	}
	outboxDays := params.OutboxRetentionDays
	if outboxDays <= 0 {
		outboxDays = defaultOutboxRetentionDays
	}
	return &retentionJob{
		logg:             params.Logger,
		notifications:    params.Notifications,
		outbox:           params.Outbox,
		notificationDays: notificationDays,
		outboxDays:       outboxDays,
		now:              time.Now,
	}, nil
}

type retentionJob struct {
	logg             *logger.Logger
	notifications    notificationPruner
	outbox           outboxPruner
	notificationDays int
	outboxDays       int
	now              func() time.Time
}

func (j *retentionJob) Name() string { return "retention" }

func (j *retentionJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.pruneNotifications(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.pruneOutbox(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *retentionJob) pruneNotifications(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.notificationDays) * 24 * time.Hour)
	deleted, err := j.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.notificationDays,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification retention sweep complete")
	return nil
}

func (j *retentionJob) pruneOutbox(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.outboxDays) * 24 * time.Hour)
	deleted, err := j.outbox.DeletePublishedBefore(cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.outboxDays,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "outbox retention sweep complete")
	return nil
}
