package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

const (
	sdxlVersion        = "da77bc59ee60423279fd632efb4795ab731d9e3ca9705ef3341091fb989b7eaf"
	fluxSchnellVersion = "f2ab8a5bfe79f02f0789a146cf5e73d2a4ff2684a98c2b303d1e1ff3814271db"
)

// Replicate runs a model version as an asynchronous prediction. The same
// type serves SDXL ("replicate") and Flux ("flux"); they differ in the tag,
// the version and how the input is shaped.
type Replicate struct {
	client  *vendorClient
	name    string
	version string
	input   func(domain.ImageOptions) map[string]any
}

type predictionRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

// NewReplicate serves SDXL under the "replicate" tag.
func NewReplicate(opts Options) (*Replicate, error) {
	return newReplicate("replicate", sdxlVersion, opts, sdxlInput)
}

// NewFlux serves Flux Schnell under the "flux" tag.
func NewFlux(opts Options) (*Replicate, error) {
	return newReplicate("flux", fluxSchnellVersion, opts, fluxInput)
}

func newReplicate(name, defaultVersion string, opts Options, input func(domain.ImageOptions) map[string]any) (*Replicate, error) {
	c, err := newVendorClient(name, "https://api.replicate.com/v1", opts)
	if err != nil {
		return nil, err
	}
	c.authorize = func(h http.Header, key string) {
		h.Set("Authorization", "Token "+key)
	}
	version := strings.TrimSpace(opts.Model)
	if version == "" {
		version = defaultVersion
	}
	return &Replicate{client: c, name: name, version: version, input: input}, nil
}

func sdxlInput(opts domain.ImageOptions) map[string]any {
	dims := StabilityDimensions(opts.AspectRatio)
	steps := 30
	if opts.HD() {
		steps = 50
	}
	return map[string]any{
		"prompt":              EnhancePrompt(opts.Prompt, opts.Style),
		"negative_prompt":     NegativePrompt,
		"width":               dims.Width,
		"height":              dims.Height,
		"num_outputs":         1,
		"scheduler":           "K_EULER",
		"num_inference_steps": steps,
		"guidance_scale":      7.5,
	}
}

func fluxInput(opts domain.ImageOptions) map[string]any {
	quality := 80
	if opts.HD() {
		quality = 100
	}
	return map[string]any{
		"prompt":         EnhancePrompt(opts.Prompt, opts.Style),
		"aspect_ratio":   FluxAspect(opts.AspectRatio),
		"num_outputs":    1,
		"output_format":  "webp",
		"output_quality": quality,
	}
}

func (r *Replicate) Name() string { return r.name }

func (r *Replicate) Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error) {
	var p prediction
	if err := r.client.do(ctx, http.MethodPost, "/predictions", predictionRequest{Version: r.version, Input: r.input(opts)}, &p); err != nil {
		return domain.ExternalJob{}, err
	}
	if p.ID == "" {
		return domain.ExternalJob{}, &APIError{Vendor: r.name, Message: "prediction id missing"}
	}
	now := time.Now().UTC()
	job := domain.ExternalJob{ID: p.ID, Provider: r.name, CreatedAt: now}
	return applyPrediction(job, p, now), nil
}

func (r *Replicate) Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error) {
	var p prediction
	if err := r.client.poll(ctx, "/predictions/"+url.PathEscape(job.ID), &p); err != nil {
		return job, err
	}
	return applyPrediction(job, p, time.Now().UTC()), nil
}

func applyPrediction(job domain.ExternalJob, p prediction, at time.Time) domain.ExternalJob {
	job.UpdatedAt = at
	job.Error = ""
	switch strings.ToLower(p.Status) {
	case "starting", "":
		job.State = domain.JobStateSubmitted
	case "processing":
		job.State = domain.JobStateProcessing
	case "succeeded":
		job.ArtifactURL = firstOutput(p.Output)
		job.State = domain.JobStateSucceeded
		if job.ArtifactURL == "" {
			job.State = domain.JobStateFailed
			job.Error = "prediction succeeded without output"
		}
	case "canceled":
		job.State = domain.JobStateFailed
		job.Error = "prediction canceled"
	default:
		job.State = domain.JobStateFailed
		job.Error = predictionError(p.Error)
	}
	return job
}

// firstOutput accepts both list and scalar output shapes.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, u := range list {
			if u = strings.TrimSpace(u); u != "" {
				return u
			}
		}
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	return ""
}

func predictionError(v any) string {
	switch e := v.(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return "image generation failed"
}
