package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// MemoryStore keeps balances in process. Each tenant has its own lock, so
// debits for one tenant are serialized while tenants proceed independently.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*account
	now      func() time.Time
}

type account struct {
	mu      sync.Mutex
	balance int64
	entries []domain.LedgerEntry
}

// NewMemoryStore returns a store seeded with the given opening balances.
func NewMemoryStore(opening map[string]int64) *MemoryStore {
	s := &MemoryStore{accounts: make(map[string]*account), now: time.Now}
	for tenant, balance := range opening {
		s.accounts[tenant] = &account{balance: balance}
	}
	return s
}

func (s *MemoryStore) account(tenantID string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[tenantID]
	if !ok {
		a = &account{}
		s.accounts[tenantID] = a
	}
	return a
}

func (s *MemoryStore) Apply(ctx context.Context, tenantID string, delta int64, reason domain.LedgerReason) (domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerEntry{}, err
	}
	a := s.account(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.balance + delta
	if next < 0 {
		return domain.LedgerEntry{}, domain.ErrCreditExhausted
	}
	a.balance = next
	entry := domain.LedgerEntry{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Delta:        delta,
		Reason:       reason,
		BalanceAfter: next,
		CreatedAt:    s.now().UTC(),
	}
	a.entries = append(a.entries, entry)
	return entry, nil
}

func (s *MemoryStore) Balance(ctx context.Context, tenantID string) (int64, error) {
	a := s.account(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

func (s *MemoryStore) Entries(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error) {
	a := s.account(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.LedgerEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, a.entries[i])
	}
	return out, nil
}

var _ domain.LedgerStore = (*MemoryStore)(nil)
