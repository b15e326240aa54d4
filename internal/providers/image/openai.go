package image

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

// DallE renders through the OpenAI images API. It is synchronous: Submit
// returns a terminal job.
type DallE struct {
	client *openai.Client
	model  string
	logger infra.Logger
}

// NewDallE constructs the OpenAI image provider.
func NewDallE(opts Options) (*DallE, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	config := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	config.HTTPClient = httpClient
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &DallE{client: openai.NewClientWithConfig(config), model: model, logger: logger}, nil
}

func (d *DallE) Name() string { return "openai" }

func (d *DallE) Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error) {
	quality := openai.CreateImageQualityStandard
	if opts.HD() {
		quality = openai.CreateImageQualityHD
	}
	resp, err := d.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         EnhancePrompt(opts.Prompt, opts.Style),
		Model:          d.model,
		N:              1,
		Size:           DallESize(opts.AspectRatio),
		Quality:        quality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return domain.ExternalJob{}, &APIError{Vendor: "openai", Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return domain.ExternalJob{}, err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return domain.ExternalJob{}, &APIError{Vendor: "openai", Message: "openai returned no image"}
	}
	d.logger.Debug().Str("model", d.model).Msg("dall-e image generated")
	now := time.Now().UTC()
	return domain.ExternalJob{
		ID:            "dalle-" + uuid.NewString(),
		Provider:      d.Name(),
		State:         domain.JobStateSucceeded,
		CreatedAt:     now,
		UpdatedAt:     now,
		ArtifactURL:   resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}

// Poll returns job unchanged; DALL-E jobs are terminal on submit.
func (d *DallE) Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error) {
	return job, nil
}
