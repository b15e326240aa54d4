package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

func memoryConfig(t *testing.T) *infra.Config {
	t.Helper()
	return &infra.Config{
		StoreBackend:              infra.BackendMemory,
		LedgerBackend:             infra.BackendMemory,
		StoragePath:               t.TempDir(),
		StorageBaseURL:            "http://localhost:8080/static",
		ContentProvider:           "gemini",
		ImageProvider:             "openai",
		OpenAIBaseURL:             "https://api.openai.com/v1",
		OpenAIModel:               "gpt-4o-mini",
		GenerationPoolSize:        2,
		GenerationCreditCost:      1,
		ImageCreditCost:           1,
		PriceSuggestionCreditCost: 1,
		JobPollInterval:           time.Millisecond,
		JobMaxAttempts:            5,
		JobResultTTL:              time.Minute,
		PricingMode:               "formula",
	}
}

func TestBuildFallsBackToOfflineProviders(t *testing.T) {
	c, err := Build(context.Background(), memoryConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	assert.Equal(t, []string{"static"}, c.Content.Providers())
	assert.Equal(t, "static", c.Content.Name())
	assert.Equal(t, []string{"synthetic"}, c.ImageDriver.Providers())
	assert.Nil(t, c.GeoIP)
	assert.Nil(t, c.CountryLookup())
}

func TestBuildRegistersKeyedVendors(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.OpenAIAPIKey = "sk-test"
	cfg.ContentProvider = "openai"
	cfg.ReplicateAPIKey = "r8-test"

	c, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	assert.ElementsMatch(t, []string{"openai", "static"}, c.Content.Providers())
	assert.Equal(t, "openai", c.Content.Name())
	assert.ElementsMatch(t, []string{"openai", "replicate", "flux", "synthetic"}, c.ImageDriver.Providers())
}

func TestBuildRejectsLLMPricingWithoutKey(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.PricingMode = "llm"

	_, err := Build(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestBuildWiresCreditsThroughServices(t *testing.T) {
	c, err := Build(context.Background(), memoryConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	ctx := context.Background()
	_, err = c.Ledger.Credit(ctx, "acme", 3, domain.ReasonGrant)
	require.NoError(t, err)

	_, err = c.Scheduler.Generate(ctx, "acme", domain.GenerationInput{Title: "Lamp", Image: domain.ImageRef{URL: "https://cdn.test/lamp.jpg"}})
	require.NoError(t, err)

	balance, err := c.Ledger.Balance(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
}
