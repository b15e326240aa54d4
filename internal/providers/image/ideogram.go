package image

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// Ideogram renders with text-aware Ideogram models. Synchronous.
type Ideogram struct {
	client *vendorClient
	model  string
}

type ideogramRequest struct {
	ImageRequest ideogramImageRequest `json:"image_request"`
}

type ideogramImageRequest struct {
	Prompt            string `json:"prompt"`
	AspectRatio       string `json:"aspect_ratio"`
	Model             string `json:"model"`
	MagicPromptOption string `json:"magic_prompt_option"`
	StyleType         string `json:"style_type"`
}

type ideogramResponse struct {
	Data []struct {
		URL    string `json:"url"`
		Prompt string `json:"prompt"`
	} `json:"data"`
}

// NewIdeogram constructs the Ideogram provider.
func NewIdeogram(opts Options) (*Ideogram, error) {
	c, err := newVendorClient("ideogram", "https://api.ideogram.ai", opts)
	if err != nil {
		return nil, err
	}
	c.authorize = func(h http.Header, key string) {
		h.Set("Api-Key", key)
	}
	model := opts.Model
	if model == "" {
		model = "V_2"
	}
	return &Ideogram{client: c, model: model}, nil
}

func (i *Ideogram) Name() string { return "ideogram" }

func (i *Ideogram) Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error) {
	payload := ideogramRequest{ImageRequest: ideogramImageRequest{
		Prompt:            EnhancePrompt(opts.Prompt, opts.Style),
		AspectRatio:       IdeogramAspect(opts.AspectRatio),
		Model:             i.model,
		MagicPromptOption: "AUTO",
		StyleType:         IdeogramStyle(opts.Style),
	}}
	var resp ideogramResponse
	if err := i.client.do(ctx, http.MethodPost, "/generate", payload, &resp); err != nil {
		return domain.ExternalJob{}, err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return domain.ExternalJob{}, &APIError{Vendor: "ideogram", Message: "ideogram returned no image"}
	}
	now := time.Now().UTC()
	return domain.ExternalJob{
		ID:            "ideogram-" + uuid.NewString(),
		Provider:      i.Name(),
		State:         domain.JobStateSucceeded,
		CreatedAt:     now,
		UpdatedAt:     now,
		ArtifactURL:   resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].Prompt,
	}, nil
}

// Poll returns job unchanged; Ideogram jobs are terminal on submit.
func (i *Ideogram) Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error) {
	return job, nil
}
