package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

// OpenAI writes copy with a vision-capable chat model in JSON mode.
type OpenAI struct {
	client *openai.Client
	model  string
	images *Preprocessor
	logger infra.Logger
}

// NewOpenAI constructs the OpenAI copy generator.
func NewOpenAI(opts Options) (*OpenAI, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	config := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}
	config.OrgID = strings.TrimSpace(opts.Org)
	client := opts.httpClient(60 * time.Second)
	config.HTTPClient = client
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.GPT4oMini
	}
	images := opts.Images
	if images == nil {
		images = NewPreprocessor(client, 0)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &OpenAI{client: openai.NewClientWithConfig(config), model: model, images: images, logger: logger}, nil
}

func (o *OpenAI) Name() string { return openAIProviderName }

func (o *OpenAI) Generate(ctx context.Context, in domain.GenerationInput) (*domain.ProductCopy, error) {
	imageURL := strings.TrimSpace(in.Image.URL)
	if len(in.Image.Data) > 0 || strings.HasPrefix(imageURL, "data:") {
		photo, err := o.images.Load(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		imageURL = photo.DataURL()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.75,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write e-commerce product copy and answer with JSON only.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: BuildPrompt(in)},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL, Detail: openai.ImageURLDetailAuto}},
				},
			},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return nil, errors.New(apiErr.Message)
		}
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty response")
	}
	o.logger.Debug().Str("model", o.model).Int("total_tokens", resp.Usage.TotalTokens).Msg("openai copy generated")
	return toCopy(resp.Choices[0].Message.Content, in, o.Name())
}
