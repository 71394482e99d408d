package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// HandlerTimeout bounds a single handler invocation.
const HandlerTimeout = 10 * time.Second

// Handler is one post-transition side effect.
type Handler interface {
	Name() string
	Handle(ctx context.Context, rec model.Transition) error
}

// Pool runs side-effect handlers for committed transitions on a fixed set of
// goroutines. Dispatch never blocks: when the queue is full the record is
// dropped and logged. Handler failures are logged and never reach the
// dispatcher.
type Pool struct {
	handlers []Handler
	logger   *zap.Logger
	count    int
	queue    chan model.Transition
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex // guards stopped and the send into queue
	stopped  bool
	dropped  atomic.Int64
}

func NewPool(logger *zap.Logger, count, queueSize int, handlers ...Handler) *Pool {
	if count < 1 {
		count = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		handlers: handlers,
		logger:   logger,
		count:    count,
		queue:    make(chan model.Transition, queueSize),
		stop:     make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("workers", p.count), zap.Int("handlers", len(p.handlers)))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop stops accepting records, lets the workers drain what is queued and
// waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")
		p.mu.Lock()
		p.stopped = true
		close(p.stop)
		p.mu.Unlock()
		p.wg.Wait()
		p.logger.Info("Worker pool stopped", zap.Int64("dropped", p.dropped.Load()))
	})
}

// Dispatch enqueues rec for the handlers without blocking.
func (p *Pool) Dispatch(rec model.Transition) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.drop(rec, "pool stopped")
		return
	}
	select {
	case p.queue <- rec:
	default:
		p.drop(rec, "queue full")
	}
}

// Dropped is the number of records discarded since the pool was created.
func (p *Pool) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Pool) drop(rec model.Transition, reason string) {
	p.dropped.Add(1)
	p.logger.Warn("side effects dropped",
		zap.String("reason", reason),
		zap.String("transition_id", rec.ID),
		zap.Int64("task_id", rec.TaskID),
	)
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			// дочитываем очередь перед выходом
			for {
				select {
				case rec := <-p.queue:
					p.process(ctx, id, rec)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		case rec := <-p.queue:
			p.process(ctx, id, rec)
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, rec model.Transition) {
	for _, h := range p.handlers {
		start := time.Now()
		if err := p.run(ctx, h, rec); err != nil {
			p.logger.Error("side effect failed",
				zap.Int("worker", workerID),
				zap.String("handler", h.Name()),
				zap.String("transition_id", rec.ID),
				zap.Int64("task_id", rec.TaskID),
				zap.Error(err),
			)
			continue
		}
		p.logger.Debug("side effect done",
			zap.Int("worker", workerID),
			zap.String("handler", h.Name()),
			zap.Int64("task_id", rec.TaskID),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (p *Pool) run(ctx context.Context, h Handler, rec model.Transition) (err error) {
	ctx, cancel := context.WithTimeout(ctx, HandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, rec)
}
