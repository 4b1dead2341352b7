package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/pkg/logger"
)

const (
	defaultSchedule          = "@hourly"
	defaultVisitRetention    = 90 * 24 * time.Hour
	defaultActivityRetention = 90 * 24 * time.Hour
)

// Cleaner coordinates background maintenance tasks such as deactivating
// expired invitations and links and pruning old visit and activity records.
type Cleaner struct {
	db   *gorm.DB
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	schedule       string
	retainVisits   time.Duration
	retainActivity time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup run.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithVisitRetention adjusts how long link visit records are kept.
func WithVisitRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retainVisits = d
		}
	}
}

// WithActivityRetention adjusts how long user activity records are kept.
func WithActivityRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retainActivity = d
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:             db,
		now:            time.Now,
		schedule:       defaultSchedule,
		retainVisits:   defaultVisitRetention,
		retainActivity: defaultActivityRetention,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.runOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	_, err := c.runOnce(ctx)
	return err
}

func (c *Cleaner) runOnce(ctx context.Context) (CleanupStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := c.now()
	stats := CleanupStats{}
	var errs error

	n, err := DeactivateExpiredInvitations(ctx, c.db, now)
	stats.Invitations = n
	errs = multierr.Append(errs, err)

	n, err = DeactivateExpiredLinks(ctx, c.db, now)
	stats.Links = n
	errs = multierr.Append(errs, err)

	if c.retainVisits > 0 {
		n, err = PruneLinkVisits(ctx, c.db, now.Add(-c.retainVisits))
		stats.Visits = n
		errs = multierr.Append(errs, err)
	}

	if c.retainActivity > 0 {
		n, err = PruneActivity(ctx, c.db, now.Add(-c.retainActivity))
		stats.Activity = n
		errs = multierr.Append(errs, err)
	}

	return stats, errs
}

// CleanupStats captures the number of records affected per cleanup routine.
type CleanupStats struct {
	Invitations int64
	Links       int64
	Visits      int64
	Activity    int64
}

// DeactivateExpiredInvitations flips is_active for invitations past expiry.
func DeactivateExpiredInvitations(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup: db is required")
	}

	result := db.WithContext(ctx).
		Model(&models.TeamInvitation{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup: invitations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeactivateExpiredLinks flips is_active for shareable links past expiry.
func DeactivateExpiredLinks(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup: db is required")
	}

	result := db.WithContext(ctx).
		Model(&models.ShareableLink{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup: links: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PruneLinkVisits deletes visit records older than the cutoff.
func PruneLinkVisits(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup: db is required")
	}

	result := db.WithContext(ctx).
		Where("visited_at < ?", cutoff).
		Delete(&models.LinkAnalytics{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup: link visits: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PruneActivity deletes user activity records older than the cutoff.
func PruneActivity(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup: db is required")
	}

	result := db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&models.UserActivity{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup: activity: %w", result.Error)
	}
	return result.RowsAffected, nil
}
