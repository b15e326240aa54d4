package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/metrics"
)

// Provider is one external job vendor. Synchronous vendors return a terminal
// job from Submit and are never polled.
type Provider interface {
	Name() string
	Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error)
	Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error)
}

// Config bounds the polling loop.
type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
	// DefaultProvider is used when options carry no provider tag.
	DefaultProvider string
}

// UpdateFunc observes every state the loop records.
type UpdateFunc func(domain.ExternalJob)

// Driver runs the submit, poll, terminal loop for any Provider.
type Driver struct {
	providers map[string]Provider
	cfg       Config
	logger    infra.Logger
	now       func() time.Time
}

// NewDriver registers providers by name.
func NewDriver(cfg Config, logger *infra.Logger, providers ...Provider) *Driver {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 60
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	d := &Driver{providers: make(map[string]Provider, len(providers)), cfg: cfg, logger: l, now: time.Now}
	for _, p := range providers {
		d.providers[strings.ToLower(p.Name())] = p
	}
	return d
}

// Providers lists the registered provider tags.
func (d *Driver) Providers() []string {
	out := make([]string, 0, len(d.providers))
	for name := range d.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the provider for opts, falling back to the default tag.
func (d *Driver) Resolve(opts domain.ImageOptions) (Provider, error) {
	tag := strings.ToLower(strings.TrimSpace(opts.Provider))
	if tag == "" {
		tag = strings.ToLower(d.cfg.DefaultProvider)
	}
	p, ok := d.providers[tag]
	if !ok {
		return nil, domain.InvalidInput("unsupported image provider %q", tag)
	}
	return p, nil
}

// Run submits opts and drives the job to a terminal state. A succeeded job
// returns a nil error; failed and timed out jobs return provider_error and
// timeout errors alongside the job. Cancellation returns the last observed
// job with the context error; that job is abandoned, not failed.
func (d *Driver) Run(ctx context.Context, opts domain.ImageOptions, onUpdate UpdateFunc) (domain.ExternalJob, error) {
	if err := opts.Validate(); err != nil {
		return domain.ExternalJob{}, err
	}
	p, err := d.Resolve(opts)
	if err != nil {
		return domain.ExternalJob{}, err
	}
	job, err := p.Submit(ctx, opts)
	if err != nil {
		if ctx.Err() != nil {
			return job, ctx.Err()
		}
		job = d.fail(job, p.Name(), err.Error())
		d.notify(onUpdate, job)
		return d.finish(job)
	}
	if job.Provider == "" {
		job.Provider = p.Name()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = d.now().UTC()
	}
	job.Attempts = 0
	d.notify(onUpdate, job)
	return d.Drive(ctx, p, job, onUpdate)
}

// Drive polls job until it is terminal, the attempt ceiling is hit, or ctx ends.
func (d *Driver) Drive(ctx context.Context, p Provider, job domain.ExternalJob, onUpdate UpdateFunc) (domain.ExternalJob, error) {
	log := d.logger.With().Str("provider", p.Name()).Str("job_id", job.ID).Logger()
	timer := time.NewTimer(d.cfg.PollInterval)
	defer timer.Stop()

	for !job.State.Terminal() {
		if job.Attempts >= d.cfg.MaxAttempts {
			job.State = domain.JobStateTimedOut
			job.ArtifactURL = ""
			if job.Error == "" {
				job.Error = fmt.Sprintf("no terminal state after %d polls", job.Attempts)
			}
			job.UpdatedAt = d.now().UTC()
			d.notify(onUpdate, job)
			break
		}
		timer.Reset(d.cfg.PollInterval)
		select {
		case <-ctx.Done():
			log.Info().Int("attempts", job.Attempts).Str("state", string(job.State)).Msg("job polling cancelled")
			return job, ctx.Err()
		case <-timer.C:
		}

		job.Attempts++
		next, err := p.Poll(ctx, job)
		if err != nil {
			if ctx.Err() != nil {
				return job, ctx.Err()
			}
			// transport errors are retried until the attempt ceiling
			log.Warn().Err(err).Int("attempt", job.Attempts).Msg("job poll failed")
			job.Error = err.Error()
			job.UpdatedAt = d.now().UTC()
			d.notify(onUpdate, job)
			continue
		}
		job = observe(job, next, d.now().UTC())
		d.notify(onUpdate, job)
	}
	return d.finish(job)
}

// observe merges a poll result into job. The loop owns ID and attempt count.
func observe(job, next domain.ExternalJob, at time.Time) domain.ExternalJob {
	job.State = next.State
	if job.State == "" {
		job.State = domain.JobStateProcessing
	}
	job.ArtifactURL = next.ArtifactURL
	if next.RevisedPrompt != "" {
		job.RevisedPrompt = next.RevisedPrompt
	}
	job.Error = next.Error
	job.UpdatedAt = at
	return job
}

func (d *Driver) fail(job domain.ExternalJob, provider, msg string) domain.ExternalJob {
	job.Provider = provider
	job.State = domain.JobStateFailed
	job.Error = msg
	now := d.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	return job
}

func (d *Driver) finish(job domain.ExternalJob) (domain.ExternalJob, error) {
	metrics.ExternalJobsTotal.WithLabelValues(job.Provider, string(job.State)).Inc()
	metrics.ExternalJobPolls.WithLabelValues(job.Provider).Observe(float64(job.Attempts))
	switch job.State {
	case domain.JobStateFailed:
		return job, &domain.Error{Kind: domain.KindProviderError, Message: job.Error}
	case domain.JobStateTimedOut:
		return job, &domain.Error{Kind: domain.KindTimeout, Message: job.Error}
	}
	return job, nil
}

func (d *Driver) notify(fn UpdateFunc, job domain.ExternalJob) {
	if fn != nil {
		fn(job)
	}
}
