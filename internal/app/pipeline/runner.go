package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	apperrors "reel-digest/internal/app/errors"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("pipeline: queue is full")

// ErrRunnerStopped is returned by Submit after Stop.
var ErrRunnerStopped = errors.New("pipeline: runner is stopped")

// Handler processes one submission.
type Handler interface {
	Handle(ctx context.Context, sub Submission) (Outcome, error)
}

// Runner feeds submissions from a bounded queue to a fixed set of workers.
// Each submission is handled end to end by one worker.
type Runner struct {
	handler Handler
	queue   chan Submission
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewRunner creates a runner with the given worker count and queue size.
func NewRunner(handler Handler, workers, queueSize int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		handler: handler,
		queue:   make(chan Submission, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. They exit when the queue is closed by Stop or
// ctx is done.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work(ctx, i)
	}
	r.logger.Info("pipeline workers started", zap.Int("workers", r.workers), zap.Int("queue_size", cap(r.queue)))
}

// Submit enqueues sub without blocking.
func (r *Runner) Submit(sub Submission) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	select {
	case r.queue <- sub:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued submissions to drain.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With(zap.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-r.queue:
			if !ok {
				return
			}
			out, err := r.handler.Handle(ctx, sub)
			if err != nil {
				log.Warn("submission failed",
					zap.String("key", sub.Identity.Key()),
					zap.String("status", string(out.Status)),
					zap.String("kind", string(apperrors.KindOf(err))),
					zap.Error(err),
				)
				continue
			}
			log.Debug("submission handled",
				zap.String("key", out.Key),
				zap.String("status", string(out.Status)),
				zap.Bool("duplicate", out.Duplicate),
			)
		}
	}
}
