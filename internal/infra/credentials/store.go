// Package credentials reads vendor API keys stored in the database, used when
// a key is not present in the environment.
package credentials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/sqlinline"
)

// Provider tags keys are stored under.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderStability = "stability"
	ProviderReplicate = "replicate"
	ProviderIdeogram  = "ideogram"
)

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, normalize(provider))
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("credentials: load %s: %w", provider, err)
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the configured key and falls back to the stored one.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	if s == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}

// SetToken stores or replaces the key for provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	provider = normalize(provider)
	token = strings.TrimSpace(token)
	if provider == "" || token == "" {
		return fmt.Errorf("credentials: provider and token are required")
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("credentials: store %s: %w", provider, err)
	}
	return nil
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
