package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

type imageSubmitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

// SubmitImage starts an image job and returns its id without waiting.
func (a *App) SubmitImage(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var opts domain.ImageOptions
	if !a.decode(w, r, &opts) {
		return
	}
	id, err := a.Images.Submit(r.Context(), tenantID, opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/images/"+id)
	a.json(w, http.StatusAccepted, imageSubmitResponse{JobID: id, StatusURL: "/v1/images/" + id})
}

// ImageStatus reports an image job's state and, once terminal, its result.
func (a *App) ImageStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	if jobID == "" {
		a.error(w, http.StatusBadRequest, string(domain.KindInvalidInput), "job id required")
		return
	}
	st, err := a.Images.Status(tenantID, jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}
