package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

// Credits is the slice of the ledger the registry needs.
type Credits interface {
	TryDebit(ctx context.Context, tenantID string, amount int64, reason domain.LedgerReason) (int64, error)
	Refund(ctx context.Context, tenantID string, amount int64)
}

// Status is the caller-facing view of a submitted image job.
type Status struct {
	JobID       string              `json:"job_id"`
	TenantID    string              `json:"-"`
	Provider    string              `json:"provider"`
	State       domain.JobState     `json:"state"`
	Attempts    int                 `json:"attempts"`
	Abandoned   bool                `json:"abandoned,omitempty"`
	Result      *domain.ImageResult `json:"result,omitempty"`
	Job         domain.ExternalJob  `json:"-"`
	SubmittedAt time.Time           `json:"submitted_at"`
	consumed    bool
}

// Settled reports whether the job will not change any more.
func (s Status) Settled() bool {
	return s.State.Terminal() || s.Abandoned
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	CreditCost int64
	// ResultTTL bounds how long any job is remembered.
	ResultTTL time.Duration
	// ConsumedTTL is how long a settled job stays readable after its first read.
	ConsumedTTL time.Duration
	Logger      *infra.Logger
	Publisher   events.Publisher
}

// Registry runs image jobs in the background and keeps their status in an
// expiring in-memory cache. Jobs are not persisted.
type Registry struct {
	driver      *Driver
	credits     Credits
	store       *cache.Cache
	cost        int64
	resultTTL   time.Duration
	consumedTTL time.Duration
	logger      infra.Logger
	publisher   events.Publisher

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry builds a registry over driver.
func NewRegistry(driver *Driver, credits Credits, opts RegistryOptions) *Registry {
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = time.Hour
	}
	if opts.ConsumedTTL <= 0 {
		opts.ConsumedTTL = time.Minute
	}
	if opts.CreditCost <= 0 {
		opts.CreditCost = 1
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		driver:      driver,
		credits:     credits,
		store:       cache.New(opts.ResultTTL, opts.ResultTTL*2),
		cost:        opts.CreditCost,
		resultTTL:   opts.ResultTTL,
		consumedTTL: opts.ConsumedTTL,
		logger:      logger,
		publisher:   opts.Publisher,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit validates opts, debits the tenant and starts the job. It returns
// the registry job id immediately.
func (r *Registry) Submit(ctx context.Context, tenantID string, opts domain.ImageOptions) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return "", domain.InvalidInput("tenant id is required")
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	p, err := r.driver.Resolve(opts)
	if err != nil {
		return "", err
	}
	if !r.reserve() {
		return "", domain.NewError(domain.KindInternal, "image registry is shutting down")
	}
	if _, err := r.credits.TryDebit(ctx, tenantID, r.cost, domain.ReasonImageGeneration); err != nil {
		r.wg.Done()
		return "", err
	}
	opts.Provider = p.Name()

	id := uuid.NewString()
	st := Status{
		JobID:       id,
		TenantID:    tenantID,
		Provider:    p.Name(),
		State:       domain.JobStateSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	r.store.Set(id, st, r.resultTTL)

	go r.run(id, tenantID, opts)
	return id, nil
}

// reserve counts a new job against the wait group unless Close has begun.
// Holding mu orders every Add before Close's Wait.
func (r *Registry) reserve() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx.Err() != nil {
		return false
	}
	r.wg.Add(1)
	return true
}

func (r *Registry) run(id, tenantID string, opts domain.ImageOptions) {
	defer r.wg.Done()
	log := r.logger.With().Str("job_id", id).Str("tenant_id", tenantID).Str("provider", opts.Provider).Logger()

	job, err := r.driver.Run(r.ctx, opts, func(j domain.ExternalJob) {
		r.update(id, func(st *Status) { st.apply(j) })
	})
	abandoned := err != nil && errors.Is(err, r.ctx.Err()) && !job.State.Terminal()
	r.update(id, func(st *Status) {
		st.apply(job)
		st.Abandoned = abandoned
	})

	if job.State != domain.JobStateSucceeded {
		r.credits.Refund(context.Background(), tenantID, r.cost)
	}
	switch {
	case abandoned:
		log.Warn().Int("attempts", job.Attempts).Msg("image job abandoned")
	case err != nil:
		log.Warn().Err(err).Str("state", string(job.State)).Int("attempts", job.Attempts).Msg("image job did not succeed")
	default:
		log.Info().Int("attempts", job.Attempts).Msg("image job succeeded")
	}
	events.Emit(context.Background(), r.publisher, r.logger, events.Event{
		Type:     events.TypeImageJobDone,
		TenantID: tenantID,
		EntityID: id,
		Payload:  map[string]any{"provider": opts.Provider, "state": job.State, "attempts": job.Attempts, "abandoned": abandoned},
	})
}

func (st *Status) apply(j domain.ExternalJob) {
	st.Job = j
	if j.State != "" {
		st.State = j.State
	}
	st.Attempts = j.Attempts
	st.Result = j.Result()
}

func (r *Registry) update(id string, fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.store.Get(id)
	if !ok {
		return
	}
	st := item.(Status)
	fn(&st)
	r.store.Set(id, st, r.resultTTL)
}

// Status returns the job as seen by its tenant. Reading a settled job starts
// its short consumed TTL, after which it is forgotten.
func (r *Registry) Status(tenantID, jobID string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.store.Get(jobID)
	if !ok {
		return Status{}, domain.ErrNotFound
	}
	st := item.(Status)
	if st.TenantID != tenantID {
		return Status{}, domain.ErrNotFound
	}
	if st.Settled() && !st.consumed {
		st.consumed = true
		r.store.Set(jobID, st, r.consumedTTL)
	}
	return st, nil
}

// Close cancels running jobs and waits for their loops to exit.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
