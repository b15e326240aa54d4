package domain

import (
	"strings"
	"time"
)

// TaskStatus enumerates the lifecycle of a content-generation task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusDispatched TaskStatus = "dispatched"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusError      TaskStatus = "error"
)

// Terminal reports whether no further transition can occur.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusDone || s == TaskStatusError
}

// ImageRef points at the product photo a copy is written for. Either URL or Data must be set.
type ImageRef struct {
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Empty reports whether the reference carries no image at all.
func (r ImageRef) Empty() bool {
	return strings.TrimSpace(r.URL) == "" && len(r.Data) == 0
}

// GenerationInput describes one product to write marketing copy for.
type GenerationInput struct {
	ID         string   `json:"id,omitempty"`
	Image      ImageRef `json:"image"`
	Title      string   `json:"title"`
	Keywords   []string `json:"keywords,omitempty"`
	Language   string   `json:"language,omitempty"`
	Tone       string   `json:"tone,omitempty"`
	Audience   string   `json:"audience,omitempty"`
	BrandVoice string   `json:"brand_voice,omitempty"`
	Provider   string   `json:"provider,omitempty"`
}

// Validate checks required fields. It never touches credits.
func (in GenerationInput) Validate() error {
	if in.Image.Empty() {
		return InvalidInput("image is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return InvalidInput("title is required")
	}
	return nil
}

// ProductCopy is the structured marketing copy returned by a content provider.
type ProductCopy struct {
	Headline        string   `json:"headline"`
	Body            string   `json:"body"`
	MetaDescription string   `json:"meta_description"`
	FeatureBullets  []string `json:"feature_bullets"`
	SEOKeywords     []string `json:"seo_keywords"`
	Provider        string   `json:"provider,omitempty"`
}

// TaskError is the classified failure attached to a task in the error state.
type TaskError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// GenerationTask is one unit of content-generation work.
type GenerationTask struct {
	ID         string          `json:"id"`
	Index      int             `json:"index"`
	Input      GenerationInput `json:"input"`
	Status     TaskStatus      `json:"status"`
	Result     *ProductCopy    `json:"result,omitempty"`
	Error      *TaskError      `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
}
