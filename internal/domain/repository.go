package domain

import "context"

// LedgerStore persists tenant balances and their entries.
type LedgerStore interface {
	// Apply adds delta to the tenant balance and appends an entry atomically.
	// A change that would make the balance negative returns ErrCreditExhausted
	// and leaves no trace.
	Apply(ctx context.Context, tenantID string, delta int64, reason LedgerReason) (LedgerEntry, error)
	Balance(ctx context.Context, tenantID string) (int64, error)
	Entries(ctx context.Context, tenantID string, limit int) ([]LedgerEntry, error)
}

// ProductRepository reads products for pricing.
type ProductRepository interface {
	GetProduct(ctx context.Context, tenantID, productID string) (*Product, error)
	ListAutoApproveCandidates(ctx context.Context) ([]Product, error)
}

// SuggestionRepository persists price suggestions and applies them.
type SuggestionRepository interface {
	// SaveSuggestion stores s, marks its product pending review and logs the
	// suggestion to the activity log.
	SaveSuggestion(ctx context.Context, s *PriceSuggestion) error
	LatestUnapplied(ctx context.Context, tenantID, productID string) (*PriceSuggestion, error)
	// ApplySuggestion updates the product price, marks the suggestion applied
	// and records an audit entry. All three commit together or none do.
	// Auto-approved applications fail with ErrNotEligible once the product has
	// opted out or left pending.
	ApplySuggestion(ctx context.Context, app PriceApplication) error
}

// PricingStore is the persistence the pricing engine and auto-approve job share.
type PricingStore interface {
	ProductRepository
	SuggestionRepository
}
