package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// MemoryPricingStore keeps products, suggestions and the activity log in process.
type MemoryPricingStore struct {
	mu          sync.Mutex
	products    map[string]*domain.Product
	suggestions map[string][]*domain.PriceSuggestion
	audit       []domain.AuditEntry

	// FailApply, when set, is consulted before applying a suggestion for a product.
	FailApply func(productID string) error
}

// NewMemoryPricingStore seeds the store with products.
func NewMemoryPricingStore(products ...domain.Product) *MemoryPricingStore {
	s := &MemoryPricingStore{
		products:    make(map[string]*domain.Product),
		suggestions: make(map[string][]*domain.PriceSuggestion),
	}
	for _, p := range products {
		s.PutProduct(p)
	}
	return s
}

func productKey(tenantID, productID string) string {
	return tenantID + "/" + productID
}

// PutProduct inserts or replaces a product.
func (s *MemoryPricingStore) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := p
	s.products[productKey(p.TenantID, p.ID)] = &cp
}

// PutSuggestion stores a suggestion without touching the product.
func (s *MemoryPricingStore) PutSuggestion(sug domain.PriceSuggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sug.ID == "" {
		sug.ID = uuid.NewString()
	}
	cp := sug
	key := productKey(sug.TenantID, sug.ProductID)
	s.suggestions[key] = append(s.suggestions[key], &cp)
}

func (s *MemoryPricingStore) GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productKey(tenantID, productID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryPricingStore) ListAutoApproveCandidates(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Product
	for _, p := range s.products {
		if p.AutoApprove && p.Status == domain.ProductStatusPending {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantID != out[j].TenantID {
			return out[i].TenantID < out[j].TenantID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryPricingStore) SaveSuggestion(ctx context.Context, sug *domain.PriceSuggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := productKey(sug.TenantID, sug.ProductID)
	p, ok := s.products[key]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *sug
	s.suggestions[key] = append(s.suggestions[key], &cp)
	p.Status = domain.ProductStatusPending
	s.audit = append(s.audit, domain.AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   sug.TenantID,
		Action:     domain.AuditActionPriceSuggested,
		EntityType: "product",
		EntityID:   sug.ProductID,
		Details:    suggestionDetails(sug),
		CreatedAt:  sug.CreatedAt,
	})
	return nil
}

func (s *MemoryPricingStore) LatestUnapplied(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.PriceSuggestion
	for _, sug := range s.suggestions[productKey(tenantID, productID)] {
		if sug.Applied {
			continue
		}
		if latest == nil || !sug.CreatedAt.Before(latest.CreatedAt) {
			latest = sug
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// ApplySuggestion performs the three effects under one lock; a failure
// before the first write leaves everything untouched. Auto-approved
// applications fail with ErrNotEligible unless the product is still opted in
// and pending.
func (s *MemoryPricingStore) ApplySuggestion(ctx context.Context, app domain.PriceApplication) error {
	if err := app.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailApply != nil {
		if err := s.FailApply(app.ProductID); err != nil {
			return err
		}
	}
	key := productKey(app.TenantID, app.ProductID)
	p, ok := s.products[key]
	if !ok {
		return domain.ErrNotFound
	}
	var target *domain.PriceSuggestion
	for _, sug := range s.suggestions[key] {
		if sug.ID == app.SuggestionID {
			target = sug
			break
		}
	}
	if target == nil {
		return domain.ErrNotFound
	}
	if target.Applied {
		return domain.ErrAlreadyApplied
	}
	if app.Action == domain.AuditActionAutoPriceApproved && (!p.AutoApprove || p.Status != domain.ProductStatusPending) {
		return domain.ErrNotEligible
	}
	appliedAt := app.AppliedAt
	target.Applied = true
	target.AppliedAt = &appliedAt
	p.CurrentPrice = app.NewPrice
	p.Status = domain.ProductStatusApproved
	p.LastPriceUpdate = &appliedAt
	s.audit = append(s.audit, domain.AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   app.TenantID,
		Action:     app.Action,
		EntityType: "product",
		EntityID:   app.ProductID,
		Details:    map[string]any{"oldPrice": app.OldPrice, "newPrice": app.NewPrice, "suggestionId": app.SuggestionID},
		CreatedAt:  appliedAt,
	})
	return nil
}

// Audit returns a copy of the activity log.
func (s *MemoryPricingStore) Audit() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

var _ domain.PricingStore = (*MemoryPricingStore)(nil)
