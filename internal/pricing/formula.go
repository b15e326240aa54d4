package pricing

import (
	"math"
	"strings"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

const (
	maxDemandScore     = 0.2
	demandDivisor      = 10.0
	highStockThreshold = 100
	lowStockThreshold  = 10
	stockAdjustment    = 0.1
	competitorBand     = 0.1
	peakSeason         = 1.05
	offSeason          = 0.95

	// FormulaConfidence is attached to formula suggestions; the output is
	// fully determined by the product facts.
	FormulaConfidence = 1.0
)

// DemandScore is average units sold per period divided by ten, capped at 0.2.
func DemandScore(history []domain.SalesPeriod) float64 {
	if len(history) == 0 {
		return 0
	}
	var total float64
	for _, p := range history {
		total += p.UnitsSold
	}
	avg := total / float64(len(history))
	return math.Min(avg/demandDivisor, maxDemandScore)
}

// StockScore is positive for overstock and negative for scarce stock.
func StockScore(stock *int) float64 {
	if stock == nil {
		return 0
	}
	switch {
	case *stock > highStockThreshold:
		return stockAdjustment
	case *stock < lowStockThreshold:
		return -stockAdjustment
	}
	return 0
}

// CompetitorScore is the relative gap to the competitor price, within ±0.1.
func CompetitorScore(current float64, competitor *float64) float64 {
	if competitor == nil || current <= 0 {
		return 0
	}
	return clamp((*competitor-current)/current, -competitorBand, competitorBand)
}

// SeasonMultiplier maps "peak" and "off" to their multipliers.
func SeasonMultiplier(season string) float64 {
	switch strings.ToLower(strings.TrimSpace(season)) {
	case "peak":
		return peakSeason
	case "off":
		return offSeason
	}
	return 1
}

// Inputs computes the factor scores for p.
func Inputs(p domain.Product) domain.FormulaInputs {
	return domain.FormulaInputs{
		DemandScore:      DemandScore(p.SalesHistory),
		StockScore:       StockScore(p.Stock),
		CompetitorScore:  CompetitorScore(p.CurrentPrice, p.CompetitorPrice),
		SeasonMultiplier: SeasonMultiplier(p.Season),
	}
}

// Suggest computes a bounded price recommendation. It has no side effects:
// identical products always produce identical suggestions.
func Suggest(p domain.Product) domain.PriceSuggestion {
	in := Inputs(p)
	raw := p.CurrentPrice * (1 + in.DemandScore - in.StockScore + in.CompetitorScore) * in.SeasonMultiplier
	suggested := Bound(p, raw)
	return domain.PriceSuggestion{
		ProductID:      p.ID,
		TenantID:       p.TenantID,
		CurrentPrice:   p.CurrentPrice,
		SuggestedPrice: suggested,
		ChangePercent:  ChangePercent(p.CurrentPrice, suggested),
		Confidence:     FormulaConfidence,
		Source:         domain.SourceFormula,
		FormulaInputs:  in,
	}
}

// Bound clamps price to the product's bounds and rounds to cents.
func Bound(p domain.Product, price float64) float64 {
	if p.MinPrice != nil && price < *p.MinPrice {
		price = *p.MinPrice
	}
	if p.MaxPrice != nil && price > *p.MaxPrice {
		price = *p.MaxPrice
	}
	return round(price, 2)
}

// ChangePercent is the change from current to suggested, one decimal.
// It is computed from the clamped price.
func ChangePercent(current, suggested float64) float64 {
	if current <= 0 {
		return 0
	}
	return round((suggested-current)/current*100, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
