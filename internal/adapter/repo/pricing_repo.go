package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/sqlinline"
)

// PricingStorePG implements domain.PricingStore on PostgreSQL.
type PricingStorePG struct {
	sql infra.TxRunner
}

// NewPricingStore creates a pricing store backed by PostgreSQL.
func NewPricingStore(sql infra.TxRunner) *PricingStorePG {
	return &PricingStorePG{sql: sql}
}

// GetProduct loads one product scoped to its tenant.
func (s *PricingStorePG) GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProduct, tenantID, productID)
	p, err := scanProduct(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListAutoApproveCandidates lists pending products that opted into auto-approval.
func (s *PricingStorePG) ListAutoApproveCandidates(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListAutoApproveCandidates)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SaveSuggestion inserts the suggestion, marks the product pending and logs
// the suggestion in one transaction.
func (s *PricingStorePG) SaveSuggestion(ctx context.Context, sug *domain.PriceSuggestion) error {
	inputs, err := json.Marshal(sug.FormulaInputs)
	if err != nil {
		return err
	}
	details, err := json.Marshal(suggestionDetails(sug))
	if err != nil {
		return err
	}
	return s.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		if _, err := tx.Exec(ctx, sqlinline.QInsertPriceSuggestion,
			sug.ID,
			sug.TenantID,
			sug.ProductID,
			sug.CurrentPrice,
			sug.SuggestedPrice,
			sug.ChangePercent,
			sug.Confidence,
			sug.Reasoning,
			string(sug.Source),
			inputs,
			sug.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}
		if _, err := tx.Exec(ctx, sqlinline.QMarkProductPending, sug.TenantID, sug.ProductID); err != nil {
			return fmt.Errorf("mark product pending: %w", err)
		}
		if _, err := tx.Exec(ctx, sqlinline.QInsertActivityLog, sug.TenantID, domain.AuditActionPriceSuggested, "product", sug.ProductID, details, sug.CreatedAt); err != nil {
			return fmt.Errorf("insert activity log: %w", err)
		}
		return nil
	})
}

// LatestUnapplied returns the newest unapplied suggestion, or nil when there is none.
func (s *PricingStorePG) LatestUnapplied(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error) {
	var (
		sug    domain.PriceSuggestion
		source string
		inputs []byte
	)
	err := s.sql.QueryRow(ctx, sqlinline.QLatestUnappliedSuggestion, tenantID, productID).Scan(
		&sug.ID,
		&sug.TenantID,
		&sug.ProductID,
		&sug.CurrentPrice,
		&sug.SuggestedPrice,
		&sug.ChangePercent,
		&sug.Confidence,
		&sug.Reasoning,
		&source,
		&inputs,
		&sug.Applied,
		&sug.CreatedAt,
		&sug.AppliedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest suggestion: %w", err)
	}
	sug.Source = domain.SuggestionSource(source)
	if len(inputs) > 0 {
		if err := json.Unmarshal(inputs, &sug.FormulaInputs); err != nil {
			return nil, fmt.Errorf("decode formula inputs: %w", err)
		}
	}
	return &sug, nil
}

// ApplySuggestion updates the price, flips the suggestion and writes the audit
// entry in one transaction. A suggestion that was applied concurrently rolls
// everything back with ErrAlreadyApplied. Auto-approved applications also
// require the product row to still be opted in and pending; otherwise they
// roll back with ErrNotEligible.
func (s *PricingStorePG) ApplySuggestion(ctx context.Context, app domain.PriceApplication) error {
	if err := app.Validate(); err != nil {
		return err
	}
	details, err := json.Marshal(map[string]any{
		"oldPrice":     app.OldPrice,
		"newPrice":     app.NewPrice,
		"suggestionId": app.SuggestionID,
	})
	if err != nil {
		return err
	}
	return s.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		tag, err := tx.Exec(ctx, sqlinline.QMarkSuggestionApplied, app.TenantID, app.SuggestionID, app.AppliedAt)
		if err != nil {
			return fmt.Errorf("mark suggestion applied: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAlreadyApplied
		}
		query, missing := sqlinline.QApplyProductPrice, domain.ErrNotFound
		if app.Action == domain.AuditActionAutoPriceApproved {
			query, missing = sqlinline.QApplyAutoProductPrice, domain.ErrNotEligible
		}
		tag, err = tx.Exec(ctx, query, app.TenantID, app.ProductID, app.NewPrice, app.AppliedAt)
		if err != nil {
			return fmt.Errorf("apply product price: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return missing
		}
		if _, err := tx.Exec(ctx, sqlinline.QInsertActivityLog, app.TenantID, app.Action, "product", app.ProductID, details, app.AppliedAt); err != nil {
			return fmt.Errorf("insert activity log: %w", err)
		}
		return nil
	})
}

func suggestionDetails(sug *domain.PriceSuggestion) map[string]any {
	return map[string]any{
		"suggestionId":   sug.ID,
		"currentPrice":   sug.CurrentPrice,
		"suggestedPrice": sug.SuggestedPrice,
		"confidence":     sug.Confidence,
		"source":         string(sug.Source),
	}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p       domain.Product
		name    *string
		cat     *string
		season  *string
		status  string
		history []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.TenantID,
		&name,
		&cat,
		&p.CurrentPrice,
		&p.MinPrice,
		&p.MaxPrice,
		&p.Stock,
		&p.CompetitorPrice,
		&history,
		&season,
		&p.AutoApprove,
		&status,
		&p.LastPriceUpdate,
	); err != nil {
		return nil, err
	}
	p.Name = deref(name)
	p.Category = deref(cat)
	p.Season = deref(season)
	p.Status = domain.ProductStatus(status)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.SalesHistory); err != nil {
			return nil, fmt.Errorf("decode sales history: %w", err)
		}
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ domain.PricingStore = (*PricingStorePG)(nil)
