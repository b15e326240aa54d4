package repo

import (
	"context"
	"fmt"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/sqlinline"
)

// LedgerStorePG implements domain.LedgerStore. Each change is a single
// statement whose guarded UPDATE locks the tenant row, so concurrent debits
// are serialized by Postgres.
type LedgerStorePG struct {
	sql infra.SQLExecutor
}

// NewLedgerStore creates a ledger store backed by PostgreSQL.
func NewLedgerStore(sql infra.SQLExecutor) *LedgerStorePG {
	return &LedgerStorePG{sql: sql}
}

// Apply adds delta to the balance and appends the entry.
func (s *LedgerStorePG) Apply(ctx context.Context, tenantID string, delta int64, reason domain.LedgerReason) (domain.LedgerEntry, error) {
	query := sqlinline.QLedgerCredit
	if delta < 0 {
		query = sqlinline.QLedgerDebit
	}
	entry := domain.LedgerEntry{TenantID: tenantID, Delta: delta, Reason: reason}
	row := s.sql.QueryRow(ctx, query, tenantID, delta, string(reason))
	if err := row.Scan(&entry.ID, &entry.BalanceAfter, &entry.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			// no account row, or the guard rejected the debit
			return domain.LedgerEntry{}, domain.ErrCreditExhausted
		}
		return domain.LedgerEntry{}, fmt.Errorf("ledger apply: %w", err)
	}
	return entry, nil
}

// Balance returns zero for tenants without an account.
func (s *LedgerStorePG) Balance(ctx context.Context, tenantID string) (int64, error) {
	var balance int64
	if err := s.sql.QueryRow(ctx, sqlinline.QLedgerBalance, tenantID).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}

// Entries lists entries newest first. A non-positive limit lists all.
func (s *LedgerStorePG) Entries(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.sql.Query(ctx, sqlinline.QLedgerEntries, tenantID, lim)
	if err != nil {
		return nil, fmt.Errorf("ledger entries: %w", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var (
			e      domain.LedgerEntry
			reason string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Delta, &reason, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger entries scan: %w", err)
		}
		e.Reason = domain.LedgerReason(reason)
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ domain.LedgerStore = (*LedgerStorePG)(nil)
