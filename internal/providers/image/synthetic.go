package image

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// Synthetic is an offline asynchronous provider for development and tests.
// A job reports processing until it has been polled Polls times, then
// succeeds with a locator under BaseURL.
type Synthetic struct {
	polls   int
	baseURL string
}

// NewSynthetic builds a synthetic provider. polls below one means one.
func NewSynthetic(polls int, baseURL string) *Synthetic {
	if polls < 1 {
		polls = 1
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://cdn.example.com"
	}
	return &Synthetic{polls: polls, baseURL: baseURL}
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExternalJob{}, err
	}
	now := time.Now().UTC()
	return domain.ExternalJob{
		ID:        "synthetic-" + uuid.NewString(),
		Provider:  s.Name(),
		State:     domain.JobStateSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Synthetic) Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error) {
	if err := ctx.Err(); err != nil {
		return job, err
	}
	job.UpdatedAt = time.Now().UTC()
	if job.Attempts < s.polls {
		job.State = domain.JobStateProcessing
		return job, nil
	}
	job.State = domain.JobStateSucceeded
	job.ArtifactURL = fmt.Sprintf("%s/synthetic/%s.png", s.baseURL, job.ID)
	return job, nil
}
