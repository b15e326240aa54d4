package content

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

const maxMetaDescription = 160

type copyPayload struct {
	Headline        string   `json:"headline"`
	Body            string   `json:"body"`
	MetaDescription string   `json:"meta_description"`
	FeatureBullets  []string `json:"feature_bullets"`
	SEOKeywords     []string `json:"seo_keywords"`
}

// copySchema is the response schema for vendors that accept one.
var copySchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"headline":         map[string]any{"type": "STRING"},
		"body":             map[string]any{"type": "STRING"},
		"meta_description": map[string]any{"type": "STRING"},
		"feature_bullets":  map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"seo_keywords":     map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
	},
	"required": []string{"headline", "body", "meta_description", "feature_bullets", "seo_keywords"},
}

// toCopy parses model text into ProductCopy. A response without headline
// and body is a vendor failure.
func toCopy(raw string, in domain.GenerationInput, provider string) (*domain.ProductCopy, error) {
	parsed, err := parseModelPayload[copyPayload](raw)
	if err != nil {
		return nil, errors.New(provider + ": malformed copy response")
	}
	headline := strings.TrimSpace(parsed.Headline)
	body := strings.TrimSpace(parsed.Body)
	if headline == "" || body == "" {
		return nil, errors.New(provider + ": copy response missing headline or body")
	}
	return &domain.ProductCopy{
		Headline:        headline,
		Body:            body,
		MetaDescription: truncateRunes(coalesce(parsed.MetaDescription, headline), maxMetaDescription),
		FeatureBullets:  normalizeKeywords(parsed.FeatureBullets, ""),
		SEOKeywords:     normalizeKeywords(parsed.SEOKeywords, strings.TrimSpace(in.Title)),
		Provider:        provider,
	}, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func normalizeKeywords(keywords []string, fallback string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		kwLower := strings.ToLower(kw)
		if _, ok := seen[kwLower]; ok {
			continue
		}
		seen[kwLower] = struct{}{}
		result = append(result, kw)
	}
	if len(result) == 0 && fallback != "" {
		result = []string{fallback}
	}
	return result
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
