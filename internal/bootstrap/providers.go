package bootstrap

import (
	"strings"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra/credentials"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/jobs"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/providers/content"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/providers/image"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/storage"
)

const (
	staticContent   = "static"
	syntheticImages = "synthetic"
)

func buildContent(cfg *infra.Config, keys keyResolver, logger infra.Logger) (*content.Router, error) {
	client := vendorHTTPClient()
	photos := content.NewPreprocessor(client, maxPhotoSide)
	generators := []content.Generator{content.NewStatic()}

	if key := keys.resolve(credentials.ProviderGemini, cfg.GeminiAPIKey); key != "" {
		g, err := content.NewGemini(content.Options{
			APIKey:     key,
			BaseURL:    cfg.GeminiBaseURL,
			Model:      cfg.GeminiModel,
			HTTPClient: client,
			Logger:     &logger,
			Images:     photos,
		})
		if err != nil {
			return nil, err
		}
		generators = append(generators, g)
	}
	if key := keys.resolve(credentials.ProviderOpenAI, cfg.OpenAIAPIKey); key != "" {
		o, err := content.NewOpenAI(content.Options{
			APIKey:     key,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Org:        cfg.OpenAIOrg,
			HTTPClient: client,
			Logger:     &logger,
			Images:     photos,
		})
		if err != nil {
			return nil, err
		}
		generators = append(generators, o)
	}

	def := pickDefault(cfg.ContentProvider, staticContent, generatorNames(generators))
	if def != strings.ToLower(strings.TrimSpace(cfg.ContentProvider)) {
		logger.Warn().Str("requested", cfg.ContentProvider).Str("provider", def).
			Msg("bootstrap: content provider not configured, using fallback")
	}
	return content.NewRouter(def, generators...)
}

func buildImages(cfg *infra.Config, keys keyResolver, artifacts *storage.FileStore, logger infra.Logger) (*jobs.Driver, error) {
	client := vendorHTTPClient()
	opts := func(key string) image.Options {
		return image.Options{APIKey: key, HTTPClient: client, Logger: &logger}
	}
	providers := []jobs.Provider{image.NewSynthetic(syntheticPollCount, cfg.StorageBaseURL)}

	if key := keys.resolve(credentials.ProviderOpenAI, cfg.OpenAIAPIKey); key != "" {
		o := opts(key)
		o.BaseURL = cfg.OpenAIBaseURL
		p, err := image.NewDallE(o)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if key := keys.resolve(credentials.ProviderStability, cfg.StabilityAPIKey); key != "" {
		p, err := image.NewStability(opts(key), artifacts)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if key := keys.resolve(credentials.ProviderReplicate, cfg.ReplicateAPIKey); key != "" {
		sdxl, err := image.NewReplicate(opts(key))
		if err != nil {
			return nil, err
		}
		flux, err := image.NewFlux(opts(key))
		if err != nil {
			return nil, err
		}
		providers = append(providers, sdxl, flux)
	}
	if key := keys.resolve(credentials.ProviderIdeogram, cfg.IdeogramAPIKey); key != "" {
		p, err := image.NewIdeogram(opts(key))
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	def := pickDefault(cfg.ImageProvider, syntheticImages, names)
	if def != strings.ToLower(strings.TrimSpace(cfg.ImageProvider)) {
		logger.Warn().Str("requested", cfg.ImageProvider).Str("provider", def).
			Msg("bootstrap: image provider not configured, using fallback")
	}
	return jobs.NewDriver(jobs.Config{
		PollInterval:    cfg.JobPollInterval,
		MaxAttempts:     cfg.JobMaxAttempts,
		DefaultProvider: def,
	}, &logger, providers...), nil
}

func generatorNames(gens []content.Generator) []string {
	out := make([]string, 0, len(gens))
	for _, g := range gens {
		out = append(out, g.Name())
	}
	return out
}

func pickDefault(requested, fallback string, available []string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	for _, name := range available {
		if strings.ToLower(name) == requested {
			return requested
		}
	}
	return fallback
}
