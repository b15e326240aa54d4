package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

// ErrMissingAPIKey indicates that the advisor was configured without credentials.
var ErrMissingAPIKey = errors.New("pricing: openai api key is required")

// Advice is a model-produced price recommendation.
type Advice struct {
	SuggestedPrice float64 `json:"suggestedPrice"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// Advisor produces a non-deterministic recommendation for a product.
type Advisor interface {
	Advise(ctx context.Context, p domain.Product) (*Advice, error)
}

// AdvisorOptions configures the OpenAI-backed advisor.
type AdvisorOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	Org            string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// OpenAIAdvisor asks a chat model for a price in JSON mode.
type OpenAIAdvisor struct {
	client *openai.Client
	model  string
	logger infra.Logger
}

// NewOpenAIAdvisor constructs an advisor with sane defaults.
func NewOpenAIAdvisor(opts AdvisorOptions) (*OpenAIAdvisor, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	config := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}
	config.OrgID = strings.TrimSpace(opts.Org)
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	config.HTTPClient = httpClient

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.GPT4oMini
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &OpenAIAdvisor{client: openai.NewClientWithConfig(config), model: model, logger: logger}, nil
}

func (a *OpenAIAdvisor) Advise(ctx context.Context, p domain.Product) (*Advice, error) {
	facts, err := json.Marshal(advisorFacts(p))
	if err != nil {
		return nil, fmt.Errorf("pricing: encode product: %w", err)
	}
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: advisorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(facts)},
		},
		Temperature:    0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pricing: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("pricing: openai returned no choices")
	}
	var advice Advice
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &advice); err != nil {
		return nil, fmt.Errorf("pricing: decode advice: %w", err)
	}
	if advice.SuggestedPrice <= 0 {
		return nil, fmt.Errorf("pricing: advisor suggested non-positive price %.2f", advice.SuggestedPrice)
	}
	a.logger.Debug().
		Str("product_id", p.ID).
		Float64("suggested_price", advice.SuggestedPrice).
		Float64("confidence", advice.Confidence).
		Msg("pricing: advisor responded")
	return &advice, nil
}

const advisorSystemPrompt = `You are a pricing analyst for an online store.
Given the product facts as JSON, recommend a new retail price.
Respect min_price and max_price when present.
Reply with JSON only: {"suggestedPrice": number, "confidence": number between 0 and 1, "reasoning": string}.`

type productFacts struct {
	Name            string               `json:"name,omitempty"`
	Category        string               `json:"category,omitempty"`
	CurrentPrice    float64              `json:"current_price"`
	MinPrice        *float64             `json:"min_price,omitempty"`
	MaxPrice        *float64             `json:"max_price,omitempty"`
	Stock           *int                 `json:"stock,omitempty"`
	CompetitorPrice *float64             `json:"competitor_price,omitempty"`
	Season          string               `json:"season,omitempty"`
	SalesHistory    []domain.SalesPeriod `json:"sales_history,omitempty"`
}

func advisorFacts(p domain.Product) productFacts {
	return productFacts{
		Name:            p.Name,
		Category:        p.Category,
		CurrentPrice:    p.CurrentPrice,
		MinPrice:        p.MinPrice,
		MaxPrice:        p.MaxPrice,
		Stock:           p.Stock,
		CompetitorPrice: p.CompetitorPrice,
		Season:          p.Season,
		SalesHistory:    p.SalesHistory,
	}
}

var _ Advisor = (*OpenAIAdvisor)(nil)
