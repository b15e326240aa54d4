package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/approval"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/jobs"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/middleware"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/pricing"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/scheduler"
)

// Generator is the content scheduler surface.
type Generator interface {
	Generate(ctx context.Context, tenantID string, in domain.GenerationInput) (*domain.ProductCopy, error)
	GenerateBatch(ctx context.Context, tenantID string, inputs []domain.GenerationInput, progress scheduler.ProgressFunc) (*scheduler.BatchResult, error)
}

// ImageJobs is the image job registry surface.
type ImageJobs interface {
	Submit(ctx context.Context, tenantID string, opts domain.ImageOptions) (string, error)
	Status(tenantID, jobID string) (jobs.Status, error)
}

// Pricing is the price suggestion surface.
type Pricing interface {
	Preview(ctx context.Context, tenantID string, p domain.Product) (*domain.PriceSuggestion, error)
	SuggestPrice(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error)
	SuggestPrices(ctx context.Context, tenantID string, productIDs []string) []pricing.BulkOutcome
	Approve(ctx context.Context, tenantID, productID string) (*domain.PriceSuggestion, error)
}

// Credits is the ledger surface.
type Credits interface {
	Balance(ctx context.Context, tenantID string) (int64, error)
	History(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error)
	Credit(ctx context.Context, tenantID string, amount int64, reason domain.LedgerReason) (int64, error)
	PurchasePack(ctx context.Context, tenantID, packID string) (int64, error)
	GrantPlan(ctx context.Context, tenantID, planID string) (int64, error)
}

// AutoApprover runs the auto-approve batch.
type AutoApprover interface {
	Run(ctx context.Context) (approval.Result, error)
}

// App holds the services the HTTP handlers call.
type App struct {
	Generator   Generator
	Images      ImageJobs
	Pricing     Pricing
	Credits     Credits
	AutoApprove AutoApprover
	Logger      infra.Logger
	// MaxBatchSize caps items per batch request; zero means DefaultMaxBatchSize.
	MaxBatchSize int
}

const DefaultMaxBatchSize = 100

func NewApp(logger *infra.Logger) *App {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &App{Logger: l, MaxBatchSize: DefaultMaxBatchSize}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps a classified error onto a status and the error body.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	ev := a.Logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = a.Logger.Error()
	}
	ev.Err(err).
		Str("path", r.URL.Path).
		Str("tenant_id", middleware.TenantFromContext(r.Context())).
		Str("kind", code).
		Msg("request failed")

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	a.error(w, status, code, message)
}

func statusFor(err error) (int, string) {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound, "not_found"
	}
	switch kind := domain.KindOf(err); kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest, string(kind)
	case domain.KindCreditExhausted:
		return http.StatusPaymentRequired, string(kind)
	case domain.KindProviderError:
		return http.StatusBadGateway, string(kind)
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, string(kind)
	default:
		return http.StatusInternalServerError, string(domain.KindInternal)
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, string(domain.KindInvalidInput), "invalid payload")
		return false
	}
	return true
}

// tenant returns the authenticated tenant or writes 401.
func (a *App) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := middleware.TenantFromContext(r.Context())
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return "", false
	}
	return tenantID, true
}

// 32 MiB leaves room for a batch of inline product photos.
const maxBodyBytes = 32 << 20
