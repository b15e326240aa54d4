// Package content writes structured product copy from a photo and a few facts.
package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

const (
	geminiProviderName = "gemini"
	openAIProviderName = "openai"
	staticProviderName = "static"
)

// ErrMissingAPIKey indicates that a vendor was configured without credentials.
var ErrMissingAPIKey = errors.New("content: api key is required")

// Generator writes copy for one input. Errors are vendor failures; the
// caller classifies them.
type Generator interface {
	Name() string
	Generate(ctx context.Context, in domain.GenerationInput) (*domain.ProductCopy, error)
}

// Options configures an HTTP-backed copy vendor.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Org            string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	Images         *Preprocessor
}

func (o Options) httpClient(defaultTimeout time.Duration) *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Router dispatches on the input's provider tag, falling back to a default.
type Router struct {
	generators map[string]Generator
	fallback   string
}

// NewRouter registers generators by name. defaultName must be one of them.
func NewRouter(defaultName string, generators ...Generator) (*Router, error) {
	r := &Router{generators: make(map[string]Generator, len(generators)), fallback: strings.ToLower(strings.TrimSpace(defaultName))}
	for _, g := range generators {
		if g == nil {
			continue
		}
		r.generators[strings.ToLower(g.Name())] = g
	}
	if _, ok := r.generators[r.fallback]; !ok {
		return nil, fmt.Errorf("content: default provider %q is not configured", defaultName)
	}
	return r, nil
}

func (r *Router) Name() string { return r.fallback }

// Providers lists registered tags.
func (r *Router) Providers() []string {
	out := make([]string, 0, len(r.generators))
	for name := range r.generators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the generator for tag, or an invalid_input error.
func (r *Router) Resolve(tag string) (Generator, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		tag = r.fallback
	}
	g, ok := r.generators[tag]
	if !ok {
		return nil, domain.InvalidInput("unsupported content provider %q", tag)
	}
	return g, nil
}

func (r *Router) Generate(ctx context.Context, in domain.GenerationInput) (*domain.ProductCopy, error) {
	g, err := r.Resolve(in.Provider)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, in)
}

var _ Generator = (*Router)(nil)
