// Package scheduler dispatches single and bulk copy-generation requests,
// gating each one behind a credit debit.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/metrics"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/providers/content"
)

const (
	defaultPoolSize        = 4
	defaultProviderTimeout = 90 * time.Second
)

// Credits is the slice of the ledger the scheduler needs.
type Credits interface {
	TryDebit(ctx context.Context, tenantID string, amount int64, reason domain.LedgerReason) (int64, error)
	Refund(ctx context.Context, tenantID string, amount int64)
}

// Generators resolves a provider tag to a copy generator.
type Generators interface {
	Resolve(tag string) (content.Generator, error)
}

// Options configures a Scheduler.
type Options struct {
	PoolSize        int
	CreditCost      int64
	ProviderTimeout time.Duration
	Logger          *infra.Logger
	Publisher       events.Publisher
	Now             func() time.Time
}

// Scheduler runs generation requests against the configured providers.
type Scheduler struct {
	generators      Generators
	credits         Credits
	poolSize        int
	cost            int64
	providerTimeout time.Duration
	logger          infra.Logger
	publisher       events.Publisher
	now             func() time.Time
}

// New builds a Scheduler.
func New(generators Generators, credits Credits, opts Options) *Scheduler {
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.CreditCost <= 0 {
		opts.CreditCost = 1
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Scheduler{
		generators:      generators,
		credits:         credits,
		poolSize:        opts.PoolSize,
		cost:            opts.CreditCost,
		providerTimeout: opts.ProviderTimeout,
		logger:          logger,
		publisher:       opts.Publisher,
		now:             opts.Now,
	}
}

// PoolSize reports the bounded worker count used for batches.
func (s *Scheduler) PoolSize() int {
	return s.poolSize
}

// Generate validates in, debits one unit, and calls the provider. A provider
// failure refunds the debit and returns a provider_error carrying the
// vendor's message.
func (s *Scheduler) Generate(ctx context.Context, tenantID string, in domain.GenerationInput) (*domain.ProductCopy, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.InvalidInput("tenant id is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	gen, err := s.generators.Resolve(in.Provider)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.FromContext(err)
	}
	if _, err := s.credits.TryDebit(ctx, tenantID, s.cost, domain.ReasonGeneration); err != nil {
		return nil, err
	}

	log := s.logger.With().Str("tenant_id", tenantID).Str("provider", gen.Name()).Logger()
	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	started := s.now()
	result, err := gen.Generate(callCtx, in)
	metrics.GenerationDurationSeconds.WithLabelValues(gen.Name()).Observe(s.now().Sub(started).Seconds())
	if err == nil && result == nil {
		err = errors.New(gen.Name() + ": empty result")
	}
	if err != nil {
		s.credits.Refund(ctx, tenantID, s.cost)
		classified := classify(callCtx, err)
		metrics.GenerationsTotal.WithLabelValues(gen.Name(), string(classified.Kind)).Inc()
		log.Warn().Err(err).Str("kind", string(classified.Kind)).Msg("generation failed, credit refunded")
		return nil, classified
	}
	if result.Provider == "" {
		result.Provider = gen.Name()
	}
	metrics.GenerationsTotal.WithLabelValues(gen.Name(), "ok").Inc()
	log.Debug().Msg("generation succeeded")
	return result, nil
}

// classify maps a provider-call failure onto an error kind. Context endings
// become timeout or internal; everything else is the vendor's failure.
func classify(ctx context.Context, err error) *domain.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.FromContext(ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.FromContext(err)
	}
	return domain.WrapError(domain.KindProviderError, err)
}
