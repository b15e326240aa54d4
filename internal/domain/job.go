package domain

import (
	"strings"
	"time"
)

// JobState enumerates the lifecycle of a provider-side asynchronous job.
type JobState string

const (
	JobStateSubmitted  JobState = "submitted"
	JobStateProcessing JobState = "processing"
	JobStateSucceeded  JobState = "succeeded"
	JobStateFailed     JobState = "failed"
	JobStateTimedOut   JobState = "timed_out"
)

// Terminal reports whether the state admits no further transition.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateTimedOut:
		return true
	}
	return false
}

// ImageOptions is the normalized request for an image-generation provider.
type ImageOptions struct {
	Prompt      string `json:"prompt"`
	Style       string `json:"style,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// Validate checks the fields every provider needs.
func (o ImageOptions) Validate() error {
	if strings.TrimSpace(o.Prompt) == "" {
		return InvalidInput("prompt is required")
	}
	return nil
}

// HD reports whether the high quality tier was requested.
func (o ImageOptions) HD() bool {
	return strings.EqualFold(strings.TrimSpace(o.Quality), "hd")
}

// ExternalJob is a provider-side asynchronous operation.
type ExternalJob struct {
	ID            string    `json:"id"`
	Provider      string    `json:"provider"`
	State         JobState  `json:"state"`
	Attempts      int       `json:"attempts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ArtifactURL   string    `json:"artifact_url,omitempty"`
	RevisedPrompt string    `json:"revised_prompt,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// ImageResult is the normalized outcome handed back across the engine boundary.
type ImageResult struct {
	Success       bool   `json:"success"`
	ImageURL      string `json:"image_url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Result returns the normalized outcome once the job is terminal.
func (j ExternalJob) Result() *ImageResult {
	if !j.State.Terminal() {
		return nil
	}
	if j.State == JobStateSucceeded {
		return &ImageResult{Success: true, ImageURL: j.ArtifactURL, RevisedPrompt: j.RevisedPrompt}
	}
	return &ImageResult{Error: j.Error}
}
