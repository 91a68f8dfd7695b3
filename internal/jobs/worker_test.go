package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater/xerosync/internal/sync"
)

// memQueue is an in-process Queue for worker tests.
type memQueue struct {
	jobs chan Job
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: make(chan Job, 16)}
}

func (q *memQueue) Enqueue(ctx context.Context, name string, payload json.RawMessage) (string, error) {
	job := Job{ID: uuid.NewString(), Name: name, Payload: payload, EnqueuedAt: time.Now()}
	q.jobs <- job
	return job.ID, nil
}

func (q *memQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job := <-q.jobs:
		return &job, nil
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

// recordingRunner records the order of sync calls and can fail
// selected steps.
type recordingRunner struct {
	calls chan string
	fail  map[string]error
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{calls: make(chan string, 32), fail: map[string]error{}}
}

func (r *recordingRunner) step(name string) error {
	r.calls <- name
	return r.fail[name]
}

func (r *recordingRunner) PushContacts(ctx context.Context) (sync.PushResult, error) {
	return sync.PushResult{}, r.step(sync.TypePushClients)
}

func (r *recordingRunner) PushItems(ctx context.Context) (sync.PushResult, error) {
	return sync.PushResult{}, r.step(sync.TypePushItems)
}

func (r *recordingRunner) PushInvoices(ctx context.Context) (sync.PushResult, error) {
	return sync.PushResult{}, r.step(sync.TypePushInvoices)
}

func (r *recordingRunner) PushPayments(ctx context.Context) (sync.PushResult, error) {
	return sync.PushResult{}, r.step(sync.TypePushPayments)
}

func (r *recordingRunner) PullContacts(ctx context.Context) (sync.PullResult, error) {
	return sync.PullResult{}, r.step(sync.TypePullClients)
}

func (r *recordingRunner) PullInvoices(ctx context.Context) (sync.PullResult, error) {
	return sync.PullResult{}, r.step(sync.TypePullInvoices)
}

// collect drains n recorded calls or times out.
func (r *recordingRunner) collect(t *testing.T, n int) []string {
	t.Helper()
	var out []string
	for len(out) < n {
		select {
		case call := <-r.calls:
			out = append(out, call)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for call %d of %d, got %v", len(out)+1, n, out)
		}
	}
	return out
}

func startWorker(t *testing.T, queue Queue, runner Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(queue, runner, log.New(io.Discard, "", 0))
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		w.Wait()
	})
}

func TestWorkerDispatchesJobsInOrder(t *testing.T) {
	queue := newMemQueue()
	runner := newRecordingRunner()
	startWorker(t, queue, runner)

	ctx := context.Background()
	for _, name := range []string{sync.TypePushClients, sync.TypePushItems, sync.TypePullInvoices} {
		_, err := queue.Enqueue(ctx, name, nil)
		require.NoError(t, err)
	}

	calls := runner.collect(t, 3)
	assert.Equal(t, []string{sync.TypePushClients, sync.TypePushItems, sync.TypePullInvoices}, calls)
}

func TestWorkerSyncAllRunsFullSequence(t *testing.T) {
	queue := newMemQueue()
	runner := newRecordingRunner()
	startWorker(t, queue, runner)

	_, err := queue.Enqueue(context.Background(), sync.TypeSyncAll, nil)
	require.NoError(t, err)

	calls := runner.collect(t, 4)
	assert.Equal(t, []string{
		sync.TypePullClients,
		sync.TypePushItems,
		sync.TypePullInvoices,
		sync.TypePushPayments,
	}, calls)
}

func TestWorkerSyncAllAbortsOnFirstFailure(t *testing.T) {
	queue := newMemQueue()
	runner := newRecordingRunner()
	runner.fail[sync.TypePushItems] = errors.New("item push broke")
	startWorker(t, queue, runner)

	ctx := context.Background()
	_, err := queue.Enqueue(ctx, sync.TypeSyncAll, nil)
	require.NoError(t, err)
	// A follow-up job proves the worker survived the failed composite.
	_, err = queue.Enqueue(ctx, sync.TypePushPayments, nil)
	require.NoError(t, err)

	calls := runner.collect(t, 3)
	assert.Equal(t, []string{sync.TypePullClients, sync.TypePushItems, sync.TypePushPayments}, calls)
}

func TestWorkerSkipsUnknownJob(t *testing.T) {
	queue := newMemQueue()
	runner := newRecordingRunner()
	startWorker(t, queue, runner)

	ctx := context.Background()
	_, err := queue.Enqueue(ctx, "reticulate-splines", nil)
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, sync.TypePushClients, nil)
	require.NoError(t, err)

	calls := runner.collect(t, 1)
	assert.Equal(t, []string{sync.TypePushClients}, calls)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	queue := newMemQueue()
	runner := newRecordingRunner()

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(queue, runner, log.New(io.Discard, "", 0))
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
