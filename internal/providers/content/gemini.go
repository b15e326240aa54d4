package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

const geminiDefaultTimeout = 60 * time.Second

// Gemini writes copy with a multimodal generateContent call.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	images  *Preprocessor
	logger  infra.Logger
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature,omitempty"`
	TopP             float64        `json:"topP,omitempty"`
	CandidateCount   int            `json:"candidateCount,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGemini constructs the Gemini copy generator.
func NewGemini(opts Options) (*Gemini, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client := opts.httpClient(geminiDefaultTimeout)
	images := opts.Images
	if images == nil {
		images = NewPreprocessor(client, 0)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Gemini{apiKey: key, model: model, baseURL: baseURL, client: client, images: images, logger: logger}, nil
}

func (g *Gemini) Name() string { return geminiProviderName }

func (g *Gemini) Generate(ctx context.Context, in domain.GenerationInput) (*domain.ProductCopy, error) {
	photo, err := g.images.Load(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: photo.MIMEType, Data: base64.StdEncoding.EncodeToString(photo.Data)}},
				{Text: BuildPrompt(in)},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.75,
			TopP:             0.95,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   copySchema,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail geminiError
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return nil, errors.New(detail.Error.Message)
		}
		return nil, fmt.Errorf("gemini: status %d", resp.StatusCode)
	}
	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if reason := out.PromptFeedback.BlockReason; reason != "" {
		return nil, fmt.Errorf("gemini: prompt blocked: %s", reason)
	}
	text := extractText(out)
	if text == "" {
		return nil, errors.New("gemini: empty response")
	}
	g.logger.Debug().Str("model", g.model).Int("image_bytes", len(photo.Data)).Msg("gemini copy generated")
	return toCopy(text, in, g.Name())
}

func (g *Gemini) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if t := strings.TrimSpace(part.Text); t != "" {
				return t
			}
		}
	}
	return ""
}
