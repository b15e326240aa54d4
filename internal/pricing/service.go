package pricing

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/metrics"
)

// Credits is the slice of the ledger the pricing service needs.
type Credits interface {
	TryDebit(ctx context.Context, tenantID string, amount int64, reason domain.LedgerReason) (int64, error)
	Refund(ctx context.Context, tenantID string, amount int64)
}

// Options configures a Service.
type Options struct {
	Advisor    Advisor
	CreditCost int64
	Logger     *infra.Logger
	Publisher  events.Publisher
	Now        func() time.Time
}

// Service produces metered price suggestions and applies approved ones.
type Service struct {
	store     domain.PricingStore
	credits   Credits
	advisor   Advisor
	cost      int64
	logger    infra.Logger
	publisher events.Publisher
	now       func() time.Time
}

// NewService wires the pricing service. A nil advisor selects the formula.
func NewService(store domain.PricingStore, credits Credits, opts Options) *Service {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	cost := opts.CreditCost
	if cost <= 0 {
		cost = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		credits:   credits,
		advisor:   opts.Advisor,
		cost:      cost,
		logger:    logger,
		publisher: opts.Publisher,
		now:       now,
	}
}

// SuggestPrice computes and stores a suggestion for a stored product and
// moves the product to pending review.
func (s *Service) SuggestPrice(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error) {
	p, err := s.product(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return s.suggest(ctx, *p, true)
}

// Preview computes a suggestion for posted product facts without storing it.
func (s *Service) Preview(ctx context.Context, tenantID string, p domain.Product) (*domain.PriceSuggestion, error) {
	p.TenantID = tenantID
	return s.suggest(ctx, p, false)
}

// BulkOutcome is the per-product result of SuggestPrices.
type BulkOutcome struct {
	ProductID  string                  `json:"product_id"`
	Suggestion *domain.PriceSuggestion `json:"suggestion,omitempty"`
	Error      *domain.TaskError       `json:"error,omitempty"`
}

// SuggestPrices runs SuggestPrice for each product. A failing product does
// not stop the others.
func (s *Service) SuggestPrices(ctx context.Context, tenantID string, productIDs []string) []BulkOutcome {
	out := make([]BulkOutcome, 0, len(productIDs))
	for _, id := range productIDs {
		sug, err := s.SuggestPrice(ctx, tenantID, id)
		if err != nil {
			out = append(out, BulkOutcome{ProductID: id, Error: &domain.TaskError{Kind: domain.KindOf(err), Message: err.Error()}})
			continue
		}
		out = append(out, BulkOutcome{ProductID: id, Suggestion: sug})
	}
	return out
}

// Approve applies the product's latest unapplied suggestion.
func (s *Service) Approve(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error) {
	p, err := s.product(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	sug, err := s.store.LatestUnapplied(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.KindInternal, err)
	}
	if sug == nil {
		return nil, domain.ErrNotFound
	}
	appliedAt := s.now().UTC()
	app := domain.PriceApplication{
		TenantID:     tenantID,
		ProductID:    productID,
		SuggestionID: sug.ID,
		OldPrice:     p.CurrentPrice,
		NewPrice:     sug.SuggestedPrice,
		Action:       domain.AuditActionPriceApproved,
		AppliedAt:    appliedAt,
	}
	if err := s.store.ApplySuggestion(ctx, app); err != nil {
		if errors.Is(err, domain.ErrAlreadyApplied) {
			return nil, domain.InvalidInput("suggestion %s was already applied", sug.ID)
		}
		return nil, domain.WrapError(domain.KindInternal, err)
	}
	sug.Applied = true
	sug.AppliedAt = &appliedAt
	s.logger.Info().Str("tenant_id", tenantID).Str("product_id", productID).
		Float64("old_price", app.OldPrice).Float64("new_price", app.NewPrice).Msg("price approved")
	events.Emit(ctx, s.publisher, s.logger, events.Event{
		Type:     events.TypePriceApproved,
		TenantID: tenantID,
		EntityID: productID,
		Payload:  map[string]any{"old_price": app.OldPrice, "new_price": app.NewPrice, "action": app.Action},
	})
	return sug, nil
}

func (s *Service) product(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(productID) == "" {
		return nil, domain.InvalidInput("tenant and product ids are required")
	}
	p, err := s.store.GetProduct(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.KindInternal, err)
	}
	return p, nil
}

func (s *Service) suggest(ctx context.Context, p domain.Product, persist bool) (*domain.PriceSuggestion, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.credits.TryDebit(ctx, p.TenantID, s.cost, domain.ReasonPriceSuggestion); err != nil {
		return nil, err
	}
	sug, err := s.compute(ctx, p)
	if err != nil {
		s.credits.Refund(ctx, p.TenantID, s.cost)
		return nil, err
	}
	sug.ID = uuid.NewString()
	sug.CreatedAt = s.now().UTC()
	if persist {
		if err := s.store.SaveSuggestion(ctx, &sug); err != nil {
			s.credits.Refund(ctx, p.TenantID, s.cost)
			return nil, domain.WrapError(domain.KindInternal, err)
		}
		events.Emit(ctx, s.publisher, s.logger, events.Event{
			Type:     events.TypePriceSuggested,
			TenantID: p.TenantID,
			EntityID: p.ID,
			Payload:  map[string]any{"suggested_price": sug.SuggestedPrice, "confidence": sug.Confidence, "source": sug.Source},
		})
	}
	metrics.PriceSuggestionsTotal.WithLabelValues(string(sug.Source)).Inc()
	s.logger.Info().
		Str("tenant_id", p.TenantID).
		Str("product_id", p.ID).
		Float64("current_price", sug.CurrentPrice).
		Float64("suggested_price", sug.SuggestedPrice).
		Float64("change_percent", sug.ChangePercent).
		Str("source", string(sug.Source)).
		Msg("price suggested")
	return &sug, nil
}

// compute runs the formula, or the advisor when one is configured. Advisor
// prices are held to the same bounds as formula prices.
func (s *Service) compute(ctx context.Context, p domain.Product) (domain.PriceSuggestion, error) {
	sug := Suggest(p)
	if s.advisor == nil {
		return sug, nil
	}
	advice, err := s.advisor.Advise(ctx, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sug, domain.FromContext(ctxErr)
		}
		return sug, domain.WrapError(domain.KindProviderError, err)
	}
	sug.SuggestedPrice = Bound(p, advice.SuggestedPrice)
	sug.ChangePercent = ChangePercent(p.CurrentPrice, sug.SuggestedPrice)
	sug.Confidence = math.Max(0, math.Min(1, advice.Confidence))
	sug.Reasoning = strings.TrimSpace(advice.Reasoning)
	sug.Source = domain.SourceAdvisor
	return sug, nil
}
