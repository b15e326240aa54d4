package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/http/handlers"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/middleware"
)

// Options configures the router's middleware chain.
type Options struct {
	Logger          infra.Logger
	JWTSecret       string
	InternalSecret  string
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	// Static serves stored artifacts under /static/ when set.
	Static stdhttp.Handler
	// Metrics replaces the default Prometheus handler when set.
	Metrics stdhttp.Handler
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)
	if opts.Static != nil {
		r.Handle("/static/*", stdhttp.StripPrefix("/static/", opts.Static))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
				middleware.TenantAuth(opts.JWTSecret),
				middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
			)
			r.Post("/generate", app.Generate)
			r.Post("/generate/batch", app.GenerateBatch)
			r.Post("/images", app.SubmitImage)
			r.Get("/images/{jobID}", app.ImageStatus)
			r.Post("/pricing/preview", app.PricePreview)
			r.Post("/pricing/suggestions", app.SuggestPrices)
			r.Post("/products/{productID}/price-suggestion", app.SuggestPrice)
			r.Post("/products/{productID}/approve", app.ApprovePrice)
			r.Get("/credits", app.CreditsSummary)
		})

		r.Route("/internal", func(r chi.Router) {
			r.Use(middleware.InternalOnly(opts.InternalSecret))
			r.Post("/auto-approve", app.RunAutoApprove)
			r.Post("/credits", app.GrantCredits)
		})
	})

	return r
}
