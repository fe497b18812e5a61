package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic jobs on cron expressions ("@every 5m", "0 3 * * *").
type Scheduler struct {
	c *cron.Cron
}

func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}

	logger := slogCronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{c: c}
}

// Add registers fn under expr. Each run gets a fresh background context.
func (s *Scheduler) Add(name, expr string, fn func(ctx context.Context) error) error {
	_, err := s.c.AddFunc(expr, func() {
		start := time.Now()
		err := fn(context.Background())
		if err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		slog.Debug("scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
	})
	return err
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop prevents new runs and waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

// slogCronLogger adapts cron's logger interface to slog
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
