package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
)

// CronScheduler runs a job on a cron expression. Overlapping runs are
// skipped, so at most one job executes at a time.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for a standard five-field expression.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logging.Discard()
	}
	return &CronScheduler{spec: spec, location: loc, logger: log}
}

// ParseSpec validates a cron expression without scheduling anything.
func ParseSpec(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return schedule, nil
}

// Start registers job and begins dispatching. Calling Start twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	if _, err := ParseSpec(c.spec); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	adapter := cronLogger{logger: c.logger}
	engine := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	if _, err := engine.AddFunc(c.spec, func() { job(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule job: %w", err)
	}

	engine.Start()
	c.cron = engine
	c.cancel = cancel
	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.location.String())
	return nil
}

// Next reports the next activation time after now, or zero when stopped.
func (c *CronScheduler) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return time.Time{}
	}
	entries := c.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels in-flight jobs and waits for them to return or for ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	engine, cancel := c.cron, c.cancel
	c.cron, c.cancel = nil, nil
	c.mu.Unlock()

	if engine == nil {
		return nil
	}
	cancel()
	done := engine.Stop()

	select {
	case <-done.Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
