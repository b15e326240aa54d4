// Package worker schedules the engine's periodic jobs.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/approval"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

// AutoApprover is the nightly job the worker runs.
type AutoApprover interface {
	Run(ctx context.Context) (approval.Result, error)
}

// Cron runs the auto-approve job on a cron schedule. Overlapping runs are
// skipped.
type Cron struct {
	cron   *cron.Cron
	job    AutoApprover
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCron parses schedule in standard five-field form.
func NewCron(schedule string, job AutoApprover, logger *infra.Logger) (*Cron, error) {
	if job == nil {
		return nil, fmt.Errorf("worker: auto-approve job is required")
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	cl := cronLogger{logger: l}
	c := &Cron{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		job:    job,
		logger: l,
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	if _, err := c.cron.AddFunc(schedule, func() { c.RunOnce(c.ctx) }); err != nil {
		return nil, fmt.Errorf("worker: invalid schedule %q: %w", schedule, err)
	}
	return c, nil
}

// Start begins scheduling in the background.
func (c *Cron) Start() {
	c.cron.Start()
	for _, e := range c.cron.Entries() {
		c.logger.Info().Time("next_run", e.Next).Msg("worker: auto-approve scheduled")
	}
}

// RunOnce executes the job immediately and logs its counts.
func (c *Cron) RunOnce(ctx context.Context) (approval.Result, error) {
	res, err := c.job.Run(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("worker: auto-approve run failed")
		return res, err
	}
	c.logger.Info().
		Int("candidates", res.Candidates).
		Int("approved", res.Approved).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("worker: auto-approve run finished")
	return res, nil
}

// Stop cancels a running job and waits for it to return or ctx to expire.
func (c *Cron) Stop(ctx context.Context) error {
	c.cancel()
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
