package domain

import (
	"strings"
	"time"
)

// ProductStatus enumerates the approval state of a product's price.
type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusApproved ProductStatus = "approved"
	ProductStatusRejected ProductStatus = "rejected"
)

// SalesPeriod is one bucket of sales history.
type SalesPeriod struct {
	Period    string  `json:"period"`
	UnitsSold float64 `json:"units_sold"`
}

// Product is the pricing view of a catalogue item.
type Product struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenant_id"`
	Name            string        `json:"name,omitempty"`
	Category        string        `json:"category,omitempty"`
	CurrentPrice    float64       `json:"current_price"`
	MinPrice        *float64      `json:"min_price,omitempty"`
	MaxPrice        *float64      `json:"max_price,omitempty"`
	Stock           *int          `json:"stock,omitempty"`
	CompetitorPrice *float64      `json:"competitor_price,omitempty"`
	SalesHistory    []SalesPeriod `json:"sales_history,omitempty"`
	Season          string        `json:"season,omitempty"`
	AutoApprove     bool          `json:"auto_approve"`
	Status          ProductStatus `json:"status"`
	LastPriceUpdate *time.Time    `json:"last_price_update,omitempty"`
}

// Validate rejects products the formula cannot price.
func (p Product) Validate() error {
	if p.CurrentPrice <= 0 {
		return InvalidInput("current price must be positive")
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return InvalidInput("min price %.2f exceeds max price %.2f", *p.MinPrice, *p.MaxPrice)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return InvalidInput("stock must not be negative")
	}
	return nil
}

// SuggestionSource identifies which path produced a suggestion.
type SuggestionSource string

const (
	SourceFormula SuggestionSource = "formula"
	SourceAdvisor SuggestionSource = "advisor"
)

// FormulaInputs records the factor scores a suggestion was computed from.
type FormulaInputs struct {
	DemandScore      float64 `json:"demand_score"`
	StockScore       float64 `json:"stock_score"`
	CompetitorScore  float64 `json:"competitor_score"`
	SeasonMultiplier float64 `json:"season_multiplier"`
}

// PriceSuggestion is the recommendation for one product.
type PriceSuggestion struct {
	ID             string           `json:"id,omitempty"`
	ProductID      string           `json:"product_id"`
	TenantID       string           `json:"tenant_id,omitempty"`
	CurrentPrice   float64          `json:"current_price"`
	SuggestedPrice float64          `json:"suggested_price"`
	ChangePercent  float64          `json:"change_percent"`
	Confidence     float64          `json:"confidence"`
	Reasoning      string           `json:"reasoning,omitempty"`
	Source         SuggestionSource `json:"source"`
	FormulaInputs  FormulaInputs    `json:"formula_inputs"`
	Applied        bool             `json:"applied"`
	CreatedAt      time.Time        `json:"created_at"`
	AppliedAt      *time.Time       `json:"applied_at,omitempty"`
}

// Activity log actions for suggestions and their application.
const (
	AuditActionPriceApproved     = "price_approved"
	AuditActionAutoPriceApproved = "auto_price_approved"
	AuditActionPriceSuggested    = "ai_price_suggestion"
)

// PriceApplication describes the atomic effect of approving a suggestion.
type PriceApplication struct {
	TenantID     string
	ProductID    string
	SuggestionID string
	OldPrice     float64
	NewPrice     float64
	Action       string
	AppliedAt    time.Time
}

// Validate checks the identifiers an application needs.
func (a PriceApplication) Validate() error {
	if strings.TrimSpace(a.ProductID) == "" || strings.TrimSpace(a.SuggestionID) == "" {
		return InvalidInput("product and suggestion ids are required")
	}
	return nil
}

// AuditEntry is an activity-log record.
type AuditEntry struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
