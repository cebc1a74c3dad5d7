package workers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/convgate/convgate/models"
)

// job is one tracked conversion. Its mutex serializes the single writer (the
// execution unit) against status pollers, so percent reads are never torn.
type job struct {
	mu   sync.Mutex
	view models.JobView
}

// Tracker is the in-memory table of conversion jobs. It is owned by the
// application and injected where needed; there is no package-level table.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*job
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*job)}
}

// Create allocates a job in Queued with percent 0 and returns its id, an
// unguessable random token.
func (t *Tracker) Create() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	j := &job{view: models.JobView{
		ID:        id.String(),
		Status:    models.JobQueued,
		CreatedAt: time.Now(),
	}}
	t.mu.Lock()
	t.jobs[j.view.ID] = j
	t.mu.Unlock()
	return j.view.ID, nil
}

func (t *Tracker) get(id string) (*job, bool) {
	t.mu.RLock()
	j, ok := t.jobs[id]
	t.mu.RUnlock()
	return j, ok
}

// Start transitions Queued -> Processing. Called by the execution unit on pickup.
func (t *Tracker) Start(id string) error {
	j, ok := t.get(id)
	if !ok {
		return models.ErrUnknownJob
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.view.Status != models.JobQueued {
		return nil
	}
	j.view.Status = models.JobProcessing
	return nil
}

// Progress records a progress update. Percent is clamped to [0,100] and never
// decreases; updates after a terminal state are dropped.
func (t *Tracker) Progress(id string, percent int, message string) {
	j, ok := t.get(id)
	if !ok {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.view.Status.Terminal() {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > j.view.Percent {
		j.view.Percent = percent
	}
	if message != "" {
		j.view.Message = message
	}
}

// Complete transitions to Done with the result file name and percent 100.
func (t *Tracker) Complete(id, resultFile string) {
	j, ok := t.get(id)
	if !ok {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.view.Status.Terminal() {
		return
	}
	j.view.Status = models.JobDone
	j.view.Percent = 100
	j.view.ResultFile = resultFile
}

// Fail transitions to Error with diagnostic detail and percent 100.
func (t *Tracker) Fail(id, detail string) {
	j, ok := t.get(id)
	if !ok {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.view.Status.Terminal() {
		return
	}
	j.view.Status = models.JobError
	j.view.Percent = 100
	j.view.ErrorDetail = detail
}

// View returns a snapshot of the job for status polling.
func (t *Tracker) View(id string) (models.JobView, error) {
	j, ok := t.get(id)
	if !ok {
		return models.JobView{}, models.ErrUnknownJob
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.view, nil
}

// PruneOlderThan drops terminal jobs created before the cutoff and returns
// how many were removed. In-flight jobs are never pruned.
func (t *Tracker) PruneOlderThan(age time.Duration) int {
	cutoff := time.Now().Add(-age)
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, j := range t.jobs {
		j.mu.Lock()
		stale := j.view.Status.Terminal() && j.view.CreatedAt.Before(cutoff)
		j.mu.Unlock()
		if stale {
			delete(t.jobs, id)
			removed++
		}
	}
	return removed
}
