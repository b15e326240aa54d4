package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/metrics"
)

// Options configures a Ledger.
type Options struct {
	Logger    *infra.Logger
	Publisher events.Publisher
}

// Ledger gates metered operations behind per-tenant credit balances.
// Atomicity of each balance change is delegated to the store.
type Ledger struct {
	store     domain.LedgerStore
	logger    infra.Logger
	publisher events.Publisher
}

// New builds a Ledger over store.
func New(store domain.LedgerStore, opts Options) *Ledger {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Ledger{store: store, logger: logger, publisher: opts.Publisher}
}

// TryDebit takes amount credits from the tenant and returns the new balance.
// When the balance is insufficient nothing is recorded and a credit_exhausted
// error is returned; the caller must not perform the metered operation.
func (l *Ledger) TryDebit(ctx context.Context, tenantID string, amount int64, reason domain.LedgerReason) (int64, error) {
	if err := validate(tenantID, amount); err != nil {
		return 0, err
	}
	entry, err := l.store.Apply(ctx, tenantID, -amount, reason)
	if err != nil {
		if errors.Is(err, domain.ErrCreditExhausted) {
			metrics.LedgerOperationsTotal.WithLabelValues("debit", "exhausted").Inc()
			l.logger.Info().Str("tenant_id", tenantID).Int64("amount", amount).Str("reason", string(reason)).Msg("debit rejected: insufficient credits")
			return 0, &domain.Error{Kind: domain.KindCreditExhausted, Message: "insufficient credits", Err: err}
		}
		metrics.LedgerOperationsTotal.WithLabelValues("debit", "error").Inc()
		return 0, domain.WrapError(domain.KindInternal, err)
	}
	metrics.LedgerOperationsTotal.WithLabelValues("debit", "ok").Inc()
	l.emit(ctx, entry)
	return entry.BalanceAfter, nil
}

// Credit adds amount credits to the tenant, for refunds, purchases and grants.
func (l *Ledger) Credit(ctx context.Context, tenantID string, amount int64, reason domain.LedgerReason) (int64, error) {
	if err := validate(tenantID, amount); err != nil {
		return 0, err
	}
	entry, err := l.store.Apply(ctx, tenantID, amount, reason)
	if err != nil {
		metrics.LedgerOperationsTotal.WithLabelValues("credit", "error").Inc()
		return 0, domain.WrapError(domain.KindInternal, err)
	}
	metrics.LedgerOperationsTotal.WithLabelValues("credit", "ok").Inc()
	l.emit(ctx, entry)
	return entry.BalanceAfter, nil
}

// Refund returns credits taken for an operation that did not complete.
// Failures are logged; the original error is what the caller reports.
func (l *Ledger) Refund(ctx context.Context, tenantID string, amount int64) {
	if amount <= 0 {
		return
	}
	// a cancelled request still owes the tenant its refund
	ctx = context.WithoutCancel(ctx)
	if _, err := l.Credit(ctx, tenantID, amount, domain.ReasonRefund); err != nil {
		l.logger.Error().Err(err).Str("tenant_id", tenantID).Int64("amount", amount).Msg("refund failed")
	}
}

// PurchasePack credits the tenant with a credit pack.
func (l *Ledger) PurchasePack(ctx context.Context, tenantID, packID string) (int64, error) {
	pack, ok := domain.CreditPacks[strings.ToLower(strings.TrimSpace(packID))]
	if !ok {
		return 0, domain.InvalidInput("unknown credit pack %q", packID)
	}
	return l.Credit(ctx, tenantID, pack.Credits, domain.ReasonPurchase)
}

// GrantPlan credits the tenant with a plan's periodic allowance.
func (l *Ledger) GrantPlan(ctx context.Context, tenantID, planID string) (int64, error) {
	plan, ok := domain.Plans[strings.ToLower(strings.TrimSpace(planID))]
	if !ok {
		return 0, domain.InvalidInput("unknown plan %q", planID)
	}
	return l.Credit(ctx, tenantID, plan.Credits, domain.ReasonGrant)
}

// Balance returns the tenant's current balance.
func (l *Ledger) Balance(ctx context.Context, tenantID string) (int64, error) {
	if strings.TrimSpace(tenantID) == "" {
		return 0, domain.InvalidInput("tenant id is required")
	}
	return l.store.Balance(ctx, tenantID)
}

// History returns up to limit entries, newest first.
func (l *Ledger) History(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.InvalidInput("tenant id is required")
	}
	return l.store.Entries(ctx, tenantID, limit)
}

func (l *Ledger) emit(ctx context.Context, entry domain.LedgerEntry) {
	events.Emit(ctx, l.publisher, l.logger, events.Event{
		Type:     events.TypeCreditsChanged,
		TenantID: entry.TenantID,
		EntityID: entry.ID,
		Payload: map[string]any{
			"delta":         entry.Delta,
			"reason":        entry.Reason,
			"balance_after": entry.BalanceAfter,
		},
	})
}

func validate(tenantID string, amount int64) error {
	if strings.TrimSpace(tenantID) == "" {
		return domain.InvalidInput("tenant id is required")
	}
	if amount <= 0 {
		return domain.InvalidInput("amount must be positive")
	}
	return nil
}
