// Package bootstrap builds the engine's stores, providers and services from
// configuration. Both binaries share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/adapter/repo"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/approval"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra/credentials"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra/geoip"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/jobs"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/ledger"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/pricing"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/providers/content"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/scheduler"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/storage"
)

const (
	redisKeyPrefix     = "ugp"
	vendorTimeout      = 90 * time.Second
	maxPhotoSide       = 1024
	syntheticPollCount = 3
)

// Components is the wired engine.
type Components struct {
	Config    *infra.Config
	Logger    infra.Logger
	Publisher events.Publisher

	Ledger         *ledger.Ledger
	PricingStore   domain.PricingStore
	PricingService *pricing.Service
	Content        *content.Router
	Scheduler      *scheduler.Scheduler
	ImageDriver    *jobs.Driver
	Images         *jobs.Registry
	AutoApprove    *approval.Job
	Artifacts      *storage.FileStore
	GeoIP          *geoip.Resolver

	pool  *pgxpool.Pool
	redis *redis.Client
}

// Build connects backing stores and wires every service. Vendors without a
// key are skipped; a default vendor that is missing falls back to the
// offline provider with a warning.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Components, error) {
	c := &Components{Config: cfg, Logger: logger}
	if err := c.build(ctx); err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Components) build(ctx context.Context) (err error) {
	cfg, logger := c.Config, c.Logger

	var runner *infra.SQLRunner
	if cfg.UsesPostgres() {
		c.pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			return err
		}
		runner = infra.NewSQLRunner(c.pool, logger)
	}
	if cfg.LedgerBackend == infra.BackendRedis {
		c.redis, err = infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
	}
	var creds *credentials.Store
	if runner != nil {
		creds = credentials.NewStore(runner)
	}

	c.Publisher, err = newPublisher(cfg, logger)
	if err != nil {
		return err
	}

	ledgerStore, err := c.ledgerStore(runner)
	if err != nil {
		return err
	}
	c.Ledger = ledger.New(ledgerStore, ledger.Options{Logger: &logger, Publisher: c.Publisher})

	if runner != nil && cfg.StoreBackend == infra.BackendPostgres {
		c.PricingStore = repo.NewPricingStore(runner)
	} else {
		c.PricingStore = repo.NewMemoryPricingStore()
	}

	c.Artifacts, err = storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		return err
	}

	keys := keyResolver{ctx: ctx, creds: creds, logger: logger}

	c.Content, err = buildContent(cfg, keys, logger)
	if err != nil {
		return err
	}
	c.Scheduler = scheduler.New(c.Content, c.Ledger, scheduler.Options{
		PoolSize:   cfg.GenerationPoolSize,
		CreditCost: cfg.GenerationCreditCost,
		Logger:     &logger,
		Publisher:  c.Publisher,
	})

	c.ImageDriver, err = buildImages(cfg, keys, c.Artifacts, logger)
	if err != nil {
		return err
	}
	c.Images = jobs.NewRegistry(c.ImageDriver, c.Ledger, jobs.RegistryOptions{
		CreditCost: cfg.ImageCreditCost,
		ResultTTL:  cfg.JobResultTTL,
		Logger:     &logger,
		Publisher:  c.Publisher,
	})

	var advisor pricing.Advisor
	if cfg.PricingMode == "llm" {
		a, err := pricing.NewOpenAIAdvisor(pricing.AdvisorOptions{
			APIKey:  keys.resolve(credentials.ProviderOpenAI, cfg.OpenAIAPIKey),
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Org:     cfg.OpenAIOrg,
			Logger:  &logger,
		})
		if err != nil {
			return fmt.Errorf("bootstrap: llm pricing: %w", err)
		}
		advisor = a
	}
	c.PricingService = pricing.NewService(c.PricingStore, c.Ledger, pricing.Options{
		Advisor:    advisor,
		CreditCost: cfg.PriceSuggestionCreditCost,
		Logger:     &logger,
		Publisher:  c.Publisher,
	})

	approvalOpts := approval.Options{Logger: &logger, Publisher: c.Publisher}
	if cfg.AutoApproveRefresh {
		approvalOpts.Suggester = c.PricingService
	}
	c.AutoApprove = approval.NewJob(c.PricingStore, approvalOpts)

	c.GeoIP, err = geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("bootstrap: geoip disabled")
		c.GeoIP = nil
	}
	return nil
}

func (c *Components) ledgerStore(runner *infra.SQLRunner) (domain.LedgerStore, error) {
	switch c.Config.LedgerBackend {
	case infra.BackendPostgres:
		return repo.NewLedgerStore(runner), nil
	case infra.BackendRedis:
		return ledger.NewRedisStore(c.redis, redisKeyPrefix), nil
	case infra.BackendMemory, "":
		return ledger.NewMemoryStore(nil), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown ledger backend %q", c.Config.LedgerBackend)
}

func newPublisher(cfg *infra.Config, logger infra.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.LogPublisher{Logger: logger}, nil
	}
	p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("bootstrap: publishing events to kafka")
	return p, nil
}

// CountryLookup adapts the GeoIP resolver for the locale middleware.
func (c *Components) CountryLookup() func(ip string) (string, error) {
	if c.GeoIP == nil {
		return nil
	}
	return c.GeoIP.CountryCode
}

// Close stops background jobs and releases connections.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Images != nil {
		errs = append(errs, c.Images.Close(ctx))
	}
	if c.Publisher != nil {
		errs = append(errs, c.Publisher.Close())
	}
	if c.GeoIP != nil {
		errs = append(errs, c.GeoIP.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.pool != nil {
		c.pool.Close()
	}
	return errors.Join(errs...)
}

// keyResolver prefers configured keys and falls back to stored ones.
type keyResolver struct {
	ctx    context.Context
	creds  *credentials.Store
	logger infra.Logger
}

func (k keyResolver) resolve(provider, configured string) string {
	key, err := k.creds.Resolve(k.ctx, provider, configured)
	if err != nil {
		k.logger.Warn().Err(err).Str("provider", provider).Msg("bootstrap: failed to load api key from store")
		return configured
	}
	return key
}

func vendorHTTPClient() *http.Client {
	return &http.Client{Timeout: vendorTimeout}
}
