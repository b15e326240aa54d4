package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/middleware"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/pkg/export"
)

type batchRequest struct {
	Items []domain.GenerationInput `json:"items"`
}

// Generate writes copy for a single product.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var in domain.GenerationInput
	if !a.decode(w, r, &in) {
		return
	}
	a.localize(r, &in)
	out, err := a.Generator.Generate(r.Context(), tenantID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

// GenerateBatch writes copy for many products. ?format=csv or ?format=zip
// returns a download instead of JSON.
func (a *App) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format != "" && format != "json" && format != "csv" && format != "zip" {
		a.error(w, http.StatusBadRequest, string(domain.KindInvalidInput), "format must be json, csv or zip")
		return
	}
	var req batchRequest
	if !a.decode(w, r, &req) {
		return
	}
	limit := a.MaxBatchSize
	if limit <= 0 {
		limit = DefaultMaxBatchSize
	}
	if len(req.Items) > limit {
		a.fail(w, r, domain.InvalidInput("batch holds %d items, the limit is %d", len(req.Items), limit))
		return
	}
	for i := range req.Items {
		a.localize(r, &req.Items[i])
	}

	res, err := a.Generator.GenerateBatch(r.Context(), tenantID, req.Items, nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	switch format {
	case "csv":
		tasks := make([]domain.GenerationTask, 0, len(res.Done)+len(res.Errors))
		tasks = append(tasks, res.Done...)
		tasks = append(tasks, res.Errors...)
		data, err := export.CSV(tasks)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.download(w, "text/csv; charset=utf-8", fmt.Sprintf("batch-%s.csv", res.ID), data)
	case "zip":
		data, err := export.BatchArchive(res.Done, res.Errors)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		a.download(w, "application/zip", fmt.Sprintf("batch-%s.zip", res.ID), data)
	default:
		a.json(w, http.StatusOK, res)
	}
}

// localize fills a missing language from the request locale.
func (a *App) localize(r *http.Request, in *domain.GenerationInput) {
	if strings.TrimSpace(in.Language) == "" {
		in.Language = middleware.LocaleFromContext(r.Context())
	}
}

func (a *App) download(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
