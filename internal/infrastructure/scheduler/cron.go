package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"GTMMonitor/internal/ports"
)

// jobTimeout caps a single scheduled invocation.
const jobTimeout = 30 * time.Minute

// CronScheduler runs jobs on cron expressions in the configured location.
type CronScheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler bound to the given timezone.
func NewCronScheduler(location *time.Location, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(location)),
		logger: logger,
	}
}

// AddJob registers a named job with a cron expression.
func (c *CronScheduler) AddJob(name, spec string, job func(context.Context) error) error {
	_, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		c.info("job started", "job", name)

		if err := job(ctx); err != nil {
			c.warn("job failed", "job", name, "error", err)
			return
		}
		c.info("job completed", "job", name, "elapsed", time.Since(start))
	})
	return err
}

// Start launches the cron loop in its own goroutine.
func (c *CronScheduler) Start() {
	c.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish or the context
// to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronScheduler) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *CronScheduler) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
