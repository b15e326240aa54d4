package jobs

import (
	"context"
	"sync"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// scriptedProvider replays a fixed sequence of poll results.
type scriptedProvider struct {
	name      string
	submit    domain.ExternalJob
	submitErr error
	polls     []pollStep
	// repeat the last step once the script runs out
	mu    sync.Mutex
	calls int
}

type pollStep struct {
	state    domain.JobState
	artifact string
	errMsg   string
	err      error
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Submit(ctx context.Context, opts domain.ImageOptions) (domain.ExternalJob, error) {
	if p.submitErr != nil {
		return domain.ExternalJob{}, p.submitErr
	}
	job := p.submit
	if job.ID == "" {
		job.ID = "prov-1"
	}
	if job.State == "" {
		job.State = domain.JobStateSubmitted
	}
	return job, nil
}

func (p *scriptedProvider) Poll(ctx context.Context, job domain.ExternalJob) (domain.ExternalJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	p.calls++
	if len(p.polls) == 0 {
		job.State = domain.JobStateProcessing
		return job, nil
	}
	if idx >= len(p.polls) {
		idx = len(p.polls) - 1
	}
	step := p.polls[idx]
	if step.err != nil {
		return job, step.err
	}
	job.State = step.state
	job.ArtifactURL = step.artifact
	job.Error = step.errMsg
	return job, nil
}

func (p *scriptedProvider) pollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
