package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// ArtifactStore persists rendered bytes and exposes them by locator.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	URL(key string) string
}

// Stability renders with Stable Diffusion XL. The API answers with base64
// bytes, which are written to the artifact store. Synchronous.
type Stability struct {
	client *vendorClient
	model  string
	store  ArtifactStore
}

type stabilityPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	TextPrompts []stabilityPrompt `json:"text_prompts"`
	CfgScale    float64           `json:"cfg_scale"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Steps       int               `json:"steps"`
	Samples     int               `json:"samples"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

// NewStability constructs the Stability provider.
func NewStability(opts Options, store ArtifactStore) (*Stability, error) {
	if store == nil {
		return nil, fmt.Errorf("stability: artifact store is required")
	}
	c, err := newVendorClient("stability", "https://api.stability.ai/v1", opts)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "stable-diffusion-xl-1024-v1-0"
	}
	return &Stability{client: c, model: model, store: store}, nil
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error) {
	dims := StabilityDimensions(opts.AspectRatio)
	payload := stabilityRequest{
		TextPrompts: []stabilityPrompt{
			{Text: EnhancePrompt(opts.Prompt, opts.Style), Weight: 1},
			{Text: NegativePrompt, Weight: -1},
		},
		CfgScale: 7,
		Width:    dims.Width,
		Height:   dims.Height,
		Steps:    30,
		Samples:  1,
	}
	if opts.HD() {
		payload.Steps = 50
	}
	var resp stabilityResponse
	if err := s.client.do(ctx, http.MethodPost, "/generation/"+s.model+"/text-to-image", payload, &resp); err != nil {
		return domain.ExternalJob{}, err
	}
	if len(resp.Artifacts) == 0 || resp.Artifacts[0].Base64 == "" {
		return domain.ExternalJob{}, &APIError{Vendor: "stability", Message: "stability returned no image"}
	}
	if reason := resp.Artifacts[0].FinishReason; reason == "CONTENT_FILTERED" {
		return domain.ExternalJob{}, &APIError{Vendor: "stability", Message: "image blocked by content filter"}
	}
	data, err := base64.StdEncoding.DecodeString(resp.Artifacts[0].Base64)
	if err != nil {
		return domain.ExternalJob{}, fmt.Errorf("stability: decode artifact: %w", err)
	}
	id := uuid.NewString()
	key, err := s.store.Write(ctx, "stability/"+id+".png", data)
	if err != nil {
		return domain.ExternalJob{}, fmt.Errorf("stability: store artifact: %w", err)
	}
	now := time.Now().UTC()
	return domain.ExternalJob{
		ID:          "stability-" + id,
		Provider:    s.Name(),
		State:       domain.JobStateSucceeded,
		CreatedAt:   now,
		UpdatedAt:   now,
		ArtifactURL: s.store.URL(key),
	}, nil
}

// Poll returns job unchanged; Stability jobs are terminal on submit.
func (s *Stability) Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error) {
	return job, nil
}
