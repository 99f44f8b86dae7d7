package jobs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/worker"
)

// WorkerQueue implements JobQueue on top of a worker pool and remembers the
// outcome of every import it accepted.
type WorkerQueue struct {
	importPool    *worker.Pool
	importService services.ImportService

	mu       sync.RWMutex
	statuses map[string]Status
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(importPool *worker.Pool, importService services.ImportService) *WorkerQueue {
	return &WorkerQueue{
		importPool:    importPool,
		importService: importService,
		statuses:      map[string]Status{},
	}
}

func (q *WorkerQueue) EnqueueImport(label, text string) (string, error) {
	id := uuid.NewString()

	q.mu.Lock()
	q.statuses[id] = Status{ID: id, Label: label, State: StatePending}
	q.mu.Unlock()

	err := q.importPool.Submit(&worker.ImportJob{
		ImportService: q.importService,
		Label:         label,
		Text:          text,
		OnDone: func(summary services.ImportSummary, err error) {
			q.finish(id, summary, err)
		},
	})
	if err != nil {
		q.mu.Lock()
		delete(q.statuses, id)
		q.mu.Unlock()
		return "", err
	}
	return id, nil
}

func (q *WorkerQueue) finish(id string, summary services.ImportSummary, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := q.statuses[id]
	if err != nil {
		st.State = StateFailed
		st.Error = err.Error()
	} else {
		st.State = StateCompleted
		st.Summary = &summary
	}
	q.statuses[id] = st
}

func (q *WorkerQueue) Status(id string) (Status, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	st, ok := q.statuses[id]
	return st, ok
}
