package pricing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func history(units ...float64) []domain.SalesPeriod {
	out := make([]domain.SalesPeriod, len(units))
	for i, u := range units {
		out[i] = domain.SalesPeriod{Period: "p", UnitsSold: u}
	}
	return out
}

func TestSuggestPeakSeasonClampedToMax(t *testing.T) {
	p := domain.Product{
		ID:              "p1",
		CurrentPrice:    100,
		SalesHistory:    history(4, 6, 5),
		Stock:           n(50),
		CompetitorPrice: f(110),
		Season:          "peak",
		MinPrice:        f(90),
		MaxPrice:        f(130),
	}
	sug := Suggest(p)

	assert.InDelta(t, 0.2, sug.FormulaInputs.DemandScore, 1e-9)
	assert.Equal(t, 0.0, sug.FormulaInputs.StockScore)
	assert.InDelta(t, 0.1, sug.FormulaInputs.CompetitorScore, 1e-9)
	assert.Equal(t, 1.05, sug.FormulaInputs.SeasonMultiplier)
	assert.Equal(t, 130.0, sug.SuggestedPrice)
	assert.Equal(t, 30.0, sug.ChangePercent)
	assert.Equal(t, domain.SourceFormula, sug.Source)
	assert.Equal(t, FormulaConfidence, sug.Confidence)
}

func TestSuggestFactorTable(t *testing.T) {
	tests := []struct {
		name    string
		product domain.Product
		price   float64
		change  float64
	}{
		{
			name:    "no signals keeps price",
			product: domain.Product{CurrentPrice: 49.99},
			price:   49.99,
			change:  0,
		},
		{
			name:    "overstock lowers price",
			product: domain.Product{CurrentPrice: 200, Stock: n(150)},
			price:   180,
			change:  -10,
		},
		{
			name:    "scarce stock raises price",
			product: domain.Product{CurrentPrice: 200, Stock: n(3)},
			price:   220,
			change:  10,
		},
		{
			name:    "off season discount",
			product: domain.Product{CurrentPrice: 80, Season: "off"},
			price:   76,
			change:  -5,
		},
		{
			name:    "cheap competitor capped at ten percent",
			product: domain.Product{CurrentPrice: 100, CompetitorPrice: f(50)},
			price:   90,
			change:  -10,
		},
		{
			name:    "min bound lifts price",
			product: domain.Product{CurrentPrice: 100, Stock: n(500), MinPrice: f(95)},
			price:   95,
			change:  -5,
		},
		{
			name:    "rounding to cents",
			product: domain.Product{CurrentPrice: 19.99, SalesHistory: history(1)},
			price:   21.99,
			change:  10,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sug := Suggest(tc.product)
			assert.InDelta(t, tc.price, sug.SuggestedPrice, 1e-9)
			assert.InDelta(t, tc.change, sug.ChangePercent, 1e-9)
		})
	}
}

func TestDemandScoreMonotonicAndCapped(t *testing.T) {
	assert.Equal(t, 0.0, DemandScore(nil))
	prev := -1.0
	for avg := 0.0; avg <= 10; avg += 0.25 {
		score := DemandScore(history(avg, avg))
		require.GreaterOrEqual(t, score, prev)
		require.LessOrEqual(t, score, 0.2)
		prev = score
	}
}

func TestSuggestIsDeterministic(t *testing.T) {
	p := domain.Product{
		CurrentPrice:    123.45,
		SalesHistory:    history(3, 8, 1, 0),
		Stock:           n(7),
		CompetitorPrice: f(118.2),
		Season:          "Peak",
	}
	first := Suggest(p)
	for i := 0; i < 50; i++ {
		again := Suggest(p)
		require.Equal(t, first.SuggestedPrice, again.SuggestedPrice)
		require.Equal(t, first.ChangePercent, again.ChangePercent)
	}
}

func TestSuggestStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		current := 1 + rng.Float64()*500
		lo := current * (0.8 + rng.Float64()*0.2)
		hi := lo + rng.Float64()*current*0.3
		p := domain.Product{
			CurrentPrice:    current,
			MinPrice:        f(lo),
			MaxPrice:        f(hi),
			Stock:           n(rng.Intn(300)),
			CompetitorPrice: f(current * (0.5 + rng.Float64())),
			SalesHistory:    history(rng.Float64()*5, rng.Float64()*5),
			Season:          []string{"peak", "off", ""}[rng.Intn(3)],
		}
		sug := Suggest(p)
		// bounds are rounded with the price, so allow half a cent
		require.GreaterOrEqual(t, sug.SuggestedPrice, lo-0.005)
		require.LessOrEqual(t, sug.SuggestedPrice, hi+0.005)
	}
}
