// Package approval applies high-confidence price suggestions for products
// whose owners opted into automatic approval.
package approval

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/metrics"
)

// DefaultThreshold is the minimum confidence a suggestion needs to be applied.
const DefaultThreshold = 0.7

// Suggester produces and stores a fresh suggestion for a product.
type Suggester interface {
	SuggestPrice(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error)
}

// Options configures a Job.
type Options struct {
	Threshold float64
	// Suggester, when set, refreshes candidates that have no unapplied suggestion.
	Suggester Suggester
	Logger    *infra.Logger
	Publisher events.Publisher
	Now       func() time.Time
}

// Result summarises one run.
type Result struct {
	Candidates int `json:"candidates"`
	Approved   int `json:"approved"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Job is the auto-approve batch body. The trigger lives with the caller.
type Job struct {
	store     domain.PricingStore
	threshold float64
	suggester Suggester
	logger    infra.Logger
	publisher events.Publisher
	now       func() time.Time
}

func NewJob(store domain.PricingStore, opts Options) *Job {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Job{
		store:     store,
		threshold: threshold,
		suggester: opts.Suggester,
		logger:    logger,
		publisher: opts.Publisher,
		now:       now,
	}
}

// Run processes every pending auto-approve product once. Per-product
// failures are logged and counted; only a failure to list candidates or
// cancellation ends the run early.
func (j *Job) Run(ctx context.Context) (Result, error) {
	var res Result
	candidates, err := j.store.ListAutoApproveCandidates(ctx)
	if err != nil {
		metrics.AutoApproveRunsTotal.WithLabelValues("error").Inc()
		return res, domain.WrapError(domain.KindInternal, err)
	}
	res.Candidates = len(candidates)

	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			metrics.AutoApproveRunsTotal.WithLabelValues("cancelled").Inc()
			return res, domain.FromContext(err)
		}
		applied, err := j.process(ctx, p)
		switch {
		case err != nil:
			res.Failed++
			j.logger.Error().Err(err).
				Str("tenant_id", p.TenantID).
				Str("product_id", p.ID).
				Msg("auto-approve: product failed")
		case applied:
			res.Approved++
		default:
			res.Skipped++
		}
	}

	metrics.AutoApproveRunsTotal.WithLabelValues("ok").Inc()
	metrics.AutoApprovedProductsTotal.Add(float64(res.Approved))
	j.logger.Info().
		Int("candidates", res.Candidates).
		Int("approved", res.Approved).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("auto-approve: run finished")
	return res, nil
}

func (j *Job) process(ctx context.Context, p domain.Product) (bool, error) {
	// cheap early exit only; the store re-checks eligibility when applying
	if !p.AutoApprove || p.Status != domain.ProductStatusPending {
		return false, nil
	}
	sug, err := j.store.LatestUnapplied(ctx, p.TenantID, p.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if sug == nil && j.suggester != nil {
		sug, err = j.suggester.SuggestPrice(ctx, p.TenantID, p.ID)
		if err != nil {
			if domain.KindOf(err) == domain.KindCreditExhausted {
				j.logger.Warn().Str("tenant_id", p.TenantID).Str("product_id", p.ID).
					Msg("auto-approve: no credits for refresh")
				return false, nil
			}
			return false, err
		}
	}
	if sug == nil || sug.Confidence < j.threshold {
		return false, nil
	}

	app := domain.PriceApplication{
		TenantID:     p.TenantID,
		ProductID:    p.ID,
		SuggestionID: sug.ID,
		OldPrice:     p.CurrentPrice,
		NewPrice:     sug.SuggestedPrice,
		Action:       domain.AuditActionAutoPriceApproved,
		AppliedAt:    j.now().UTC(),
	}
	if err := j.store.ApplySuggestion(ctx, app); err != nil {
		if errors.Is(err, domain.ErrAlreadyApplied) || errors.Is(err, domain.ErrNotEligible) {
			j.logger.Info().Err(err).Str("tenant_id", p.TenantID).Str("product_id", p.ID).
				Msg("auto-approve: skipped at apply")
			return false, nil
		}
		return false, err
	}
	j.logger.Info().
		Str("tenant_id", p.TenantID).
		Str("product_id", p.ID).
		Float64("old_price", app.OldPrice).
		Float64("new_price", app.NewPrice).
		Float64("confidence", sug.Confidence).
		Msg("auto-approve: price applied")
	events.Emit(ctx, j.publisher, j.logger, events.Event{
		Type:     events.TypePriceApproved,
		TenantID: p.TenantID,
		EntityID: p.ID,
		Payload:  map[string]any{"old_price": app.OldPrice, "new_price": app.NewPrice, "action": app.Action},
	})
	return true, nil
}
