package services

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/pkg/errors"

	"scene-service/internal/metrics"
	"scene-service/internal/models"
	"scene-service/internal/repository"
)

const (
	opSet    = "set"
	opDelete = "delete"
)

// DefaultWriteTimeout bounds a single store operation.
const DefaultWriteTimeout = 5 * time.Second

var (
	ErrQueueClosed  = errors.New("write queue is closed")
	ErrModelDeleted = errors.New("model has a pending delete")
)

type queuedOp struct {
	kind    string
	id      string
	model   models.PlacedModel
	waiters []chan error
}

func (op *queuedOp) finish(err error) {
	for _, w := range op.waiters {
		w <- err
	}
}

// WriteQueue serializes writes to the model store. It holds at most one
// pending operation per model id: a newer operation replaces the pending one,
// which is then never executed, except that a pending delete is never
// replaced by a write. A single worker executes operations, so
// writes for the same id reach the store in order.
type WriteQueue struct {
	store   repository.PlacedModelRepository
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*queuedOp
	order   []string
	closed  bool
	drained chan struct{}
	wake    chan struct{}
}

func NewWriteQueue(store repository.PlacedModelRepository, timeout time.Duration) *WriteQueue {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &WriteQueue{
		store:   store,
		timeout: timeout,
		pending: make(map[string]*queuedOp),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue schedules an upsert of m and returns immediately.
func (q *WriteQueue) Enqueue(m models.PlacedModel) {
	q.push(&queuedOp{kind: opSet, id: m.ID, model: m})
}

// Schedule queues an upsert of m and returns a function that waits until it,
// or a newer write for the same model, has been executed.
func (q *WriteQueue) Schedule(m models.PlacedModel) func(ctx context.Context) error {
	return q.schedule(&queuedOp{kind: opSet, id: m.ID, model: m})
}

// ScheduleDelete queues the removal of id. Any pending write for id is
// dropped, so it cannot bring the record back afterwards.
func (q *WriteQueue) ScheduleDelete(id string) func(ctx context.Context) error {
	return q.schedule(&queuedOp{kind: opDelete, id: id})
}

// Save schedules an upsert of m and waits for it.
func (q *WriteQueue) Save(ctx context.Context, m models.PlacedModel) error {
	return q.Schedule(m)(ctx)
}

// Delete schedules the removal of id and waits for it.
func (q *WriteQueue) Delete(ctx context.Context, id string) error {
	return q.ScheduleDelete(id)(ctx)
}

func (q *WriteQueue) schedule(op *queuedOp) func(ctx context.Context) error {
	done := make(chan error, 1)
	op.waiters = []chan error{done}
	q.push(op)

	return func(ctx context.Context) error {
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// push adds op to the queue. A pending delete is never replaced by a write:
// the write is refused instead.
func (q *WriteQueue) push(op *queuedOp) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		err := errors.Wrapf(ErrQueueClosed, "%s of model %s dropped", op.kind, op.id)
		logs.WithTag("model_id", op.id).Warn(err)
		op.finish(err)
		return
	}

	prev, ok := q.pending[op.id]
	switch {
	case ok && prev.kind == opDelete && op.kind == opSet:
		q.mu.Unlock()
		op.finish(errors.Wrap(ErrModelDeleted, op.id))
		return
	case ok:
		op.waiters = append(prev.waiters, op.waiters...)
		metrics.RecordSuperseded()
	default:
		q.order = append(q.order, op.id)
	}
	q.pending[op.id] = op
	if q.drained == nil {
		q.drained = make(chan struct{})
	}
	metrics.SetQueueDepth(len(q.pending))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of models with a pending operation.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run executes queued operations until ctx is done. Operations still pending
// at that point are executed before Run returns; later ones fail with
// ErrQueueClosed.
func (q *WriteQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.drain(ctx, true)
			return
		case <-q.wake:
			q.drain(ctx, false)
		}
	}
}

// Flush waits until every operation queued so far has been executed.
func (q *WriteQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	drained := q.drained
	q.mu.Unlock()

	if drained == nil {
		return nil
	}
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WriteQueue) drain(ctx context.Context, final bool) {
	for {
		op, ok := q.next(final)
		if !ok {
			return
		}
		q.execute(ctx, op)
	}
}

func (q *WriteQueue) next(final bool) (*queuedOp, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		if q.drained != nil {
			close(q.drained)
			q.drained = nil
		}
		q.closed = final
		return nil, false
	}

	id := q.order[0]
	q.order = q.order[1:]
	op := q.pending[id]
	delete(q.pending, id)
	metrics.SetQueueDepth(len(q.pending))
	return op, true
}

func (q *WriteQueue) execute(ctx context.Context, op *queuedOp) {
	// Shutdown must not abort writes already accepted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
	defer cancel()

	start := time.Now()
	var err error
	switch op.kind {
	case opDelete:
		err = q.store.Delete(ctx, op.id)
	default:
		err = q.store.Set(ctx, &op.model)
	}
	metrics.RecordPersist(op.kind, err, time.Since(start).Milliseconds())

	if err != nil {
		err = errors.Wrapf(err, "%s of model %s failed", op.kind, op.id)
		logs.WithTag("model_id", op.id).
			WithTag("op", op.kind).
			Warn(err)
	}
	op.finish(err)
}
