package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BuzzLyutic/task-workflow/internal/model"
	"github.com/BuzzLyutic/task-workflow/internal/testutil"
)

type recordingHandler struct {
	name string
	err  error
	mu   sync.Mutex
	seen []model.Transition
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handle(_ context.Context, rec model.Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, rec)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

type panickingHandler struct{}

func (panickingHandler) Name() string { return "panicking" }

func (panickingHandler) Handle(context.Context, model.Transition) error {
	panic("boom")
}

type blockingHandler struct {
	release chan struct{}
}

func (h blockingHandler) Name() string { return "blocking" }

func (h blockingHandler) Handle(ctx context.Context, _ model.Transition) error {
	select {
	case <-h.release:
	case <-ctx.Done():
	}
	return nil
}

func rec(taskID int64) model.Transition {
	return model.Transition{ID: "t", TaskID: taskID, From: model.StatusInProgress, To: model.StatusDone}
}

func TestPool_RunsEveryHandler(t *testing.T) {
	first := &recordingHandler{name: "first"}
	second := &recordingHandler{name: "second"}

	pool := NewPool(zap.NewNop(), 2, 16, first, second)
	pool.Start(context.Background())

	for i := int64(1); i <= 5; i++ {
		pool.Dispatch(rec(i))
	}

	success := testutil.WaitForCondition(t, 5*time.Second, func() bool {
		return first.count() == 5 && second.count() == 5
	})
	pool.Stop()
	assert.True(t, success, "every record should reach every handler")
	assert.Zero(t, pool.Dropped())
}

func TestPool_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	failing := &recordingHandler{name: "failing", err: errors.New("redis down")}
	healthy := &recordingHandler{name: "healthy"}

	pool := NewPool(zap.New(core), 1, 4, failing, panickingHandler{}, healthy)
	pool.Start(context.Background())
	pool.Dispatch(rec(1))

	success := testutil.WaitForCondition(t, 5*time.Second, func() bool {
		return healthy.count() == 1
	})
	pool.Stop()
	require.True(t, success, "a failing handler must not stop the others")

	entries := logs.FilterMessage("side effect failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "failing", entries[0].ContextMap()["handler"])
	assert.Equal(t, "panicking", entries[1].ContextMap()["handler"])
}

func TestPool_DispatchNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(zap.NewNop(), 1, 1, blockingHandler{release: release})
	pool.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := int64(0); i < 10; i++ {
			pool.Dispatch(rec(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	assert.GreaterOrEqual(t, pool.Dropped(), int64(8), "one record in flight, one queued, the rest dropped")

	close(release)
	pool.Stop()
}

func TestPool_StopDrainsQueue(t *testing.T) {
	h := &recordingHandler{name: "drain"}
	pool := NewPool(zap.NewNop(), 1, 8, h)

	// очередь заполняется до старта воркеров
	for i := int64(0); i < 5; i++ {
		pool.Dispatch(rec(i))
	}
	pool.Start(context.Background())
	pool.Stop()

	assert.Equal(t, 5, h.count())

	pool.Dispatch(rec(99))
	assert.Equal(t, int64(1), pool.Dropped(), "records after Stop are dropped")
	pool.Stop()
}

func TestPool_GracefulShutdown(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(zap.NewNop(), 2, 4, blockingHandler{release: release})
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	pool.Dispatch(rec(1))

	done := make(chan struct{})
	go func() {
		cancel()
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker pool did not stop gracefully within 5 seconds")
	}
}

func TestPool_DispatchRacingStopIsAccounted(t *testing.T) {
	const dispatchers, perDispatcher = 8, 100

	h := &recordingHandler{name: "count"}
	pool := NewPool(zap.NewNop(), 2, dispatchers*perDispatcher, h)
	pool.Start(context.Background())

	var wg sync.WaitGroup
	start := make(chan struct{})
	for d := 0; d < dispatchers; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			<-start
			for i := 0; i < perDispatcher; i++ {
				pool.Dispatch(rec(int64(d*perDispatcher + i)))
			}
		}(d)
	}

	close(start)
	pool.Stop()
	wg.Wait()

	// каждая запись либо обработана, либо учтена как отброшенная
	assert.Equal(t, int64(dispatchers*perDispatcher), int64(h.count())+pool.Dropped())
}
