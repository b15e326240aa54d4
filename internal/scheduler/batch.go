package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/events"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/metrics"
)

// Counts is a consistent snapshot of a batch. Total always equals
// Pending + Dispatched + Done + Error.
type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Dispatched int `json:"dispatched"`
	Done       int `json:"done"`
	Error      int `json:"error"`
}

// Progress reports one task transition together with the batch counts
// right after it.
type Progress struct {
	BatchID string            `json:"batch_id"`
	TaskID  string            `json:"task_id"`
	Index   int               `json:"index"`
	Status  domain.TaskStatus `json:"status"`
	Counts  Counts            `json:"counts"`
}

// ProgressFunc observes transitions in order. It runs on worker goroutines
// and must not block.
type ProgressFunc func(Progress)

// BatchResult aggregates a finished batch. Done and Errors are in input order.
type BatchResult struct {
	ID     string                  `json:"id"`
	Done   []domain.GenerationTask `json:"done"`
	Errors []domain.GenerationTask `json:"errors"`
	Counts Counts                  `json:"counts"`
}

// tracker owns every task of one batch and serializes transitions.
type tracker struct {
	mu       sync.Mutex
	batchID  string
	tasks    []domain.GenerationTask
	counts   Counts
	progress ProgressFunc
}

func newTracker(batchID string, inputs []domain.GenerationInput, progress ProgressFunc) *tracker {
	t := &tracker{batchID: batchID, tasks: make([]domain.GenerationTask, len(inputs)), progress: progress}
	for i, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		t.tasks[i] = domain.GenerationTask{ID: id, Index: i, Input: in, Status: domain.TaskStatusPending}
	}
	t.counts = Counts{Total: len(inputs), Pending: len(inputs)}
	return t
}

func (t *tracker) dispatch(i int, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task := &t.tasks[i]
	if task.Status != domain.TaskStatusPending {
		return
	}
	task.Status = domain.TaskStatusDispatched
	task.StartedAt = at
	t.counts.Pending--
	t.counts.Dispatched++
	t.emit(task)
}

func (t *tracker) finish(i int, at time.Time, result *domain.ProductCopy, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task := &t.tasks[i]
	switch task.Status {
	case domain.TaskStatusPending:
		t.counts.Pending--
	case domain.TaskStatusDispatched:
		t.counts.Dispatched--
	default:
		return
	}
	task.FinishedAt = at
	if err != nil {
		task.Status = domain.TaskStatusError
		task.Error = &domain.TaskError{Kind: domain.KindOf(err), Message: err.Error()}
		t.counts.Error++
	} else {
		task.Status = domain.TaskStatusDone
		task.Result = result
		t.counts.Done++
	}
	t.emit(task)
}

func (t *tracker) emit(task *domain.GenerationTask) {
	if t.progress == nil {
		return
	}
	t.progress(Progress{BatchID: t.batchID, TaskID: task.ID, Index: task.Index, Status: task.Status, Counts: t.counts})
}

func (t *tracker) result() *BatchResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := &BatchResult{ID: t.batchID, Counts: t.counts, Done: []domain.GenerationTask{}, Errors: []domain.GenerationTask{}}
	for _, task := range t.tasks {
		switch task.Status {
		case domain.TaskStatusDone:
			res.Done = append(res.Done, task)
		case domain.TaskStatusError:
			res.Errors = append(res.Errors, task)
		}
	}
	sort.SliceStable(res.Done, func(a, b int) bool { return res.Done[a].Index < res.Done[b].Index })
	sort.SliceStable(res.Errors, func(a, b int) bool { return res.Errors[a].Index < res.Errors[b].Index })
	return res
}

// GenerateBatch runs every input through Generate on a bounded pool. Items
// fail independently. When ctx ends, items not yet finished are recorded as
// errors, so the result never holds pending or dispatched tasks.
func (s *Scheduler) GenerateBatch(ctx context.Context, tenantID string, inputs []domain.GenerationInput, progress ProgressFunc) (*BatchResult, error) {
	if len(inputs) == 0 {
		return nil, domain.InvalidInput("at least one input is required")
	}
	batchID := uuid.NewString()
	tr := newTracker(batchID, inputs, progress)
	log := s.logger.With().Str("tenant_id", tenantID).Str("batch_id", batchID).Logger()
	log.Info().Int("items", len(inputs)).Int("pool", s.poolSize).Msg("batch started")

	var g errgroup.Group
	g.SetLimit(s.poolSize)
	for i := range inputs {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				tr.finish(i, s.now().UTC(), nil, domain.FromContext(err))
				return nil
			}
			tr.dispatch(i, s.now().UTC())
			metrics.BatchItemsInFlight.Inc()
			defer metrics.BatchItemsInFlight.Dec()

			result, err := s.Generate(ctx, tenantID, inputs[i])
			if err != nil {
				tr.finish(i, s.now().UTC(), nil, err)
				return nil
			}
			tr.finish(i, s.now().UTC(), result, nil)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		cancelled := domain.FromContext(err)
		for i := range inputs {
			tr.finish(i, s.now().UTC(), nil, cancelled)
		}
	}

	res := tr.result()
	log.Info().Int("done", res.Counts.Done).Int("error", res.Counts.Error).Msg("batch finished")
	events.Emit(context.WithoutCancel(ctx), s.publisher, s.logger, events.Event{
		Type:     events.TypeBatchCompleted,
		TenantID: tenantID,
		EntityID: batchID,
		Payload:  map[string]any{"total": res.Counts.Total, "done": res.Counts.Done, "error": res.Counts.Error},
	})
	return res, nil
}
