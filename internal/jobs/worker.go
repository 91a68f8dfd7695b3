package jobs

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tidewater/xerosync/internal/sync"
)

// Runner is the slice of the sync service the worker dispatches to.
type Runner interface {
	PushContacts(ctx context.Context) (sync.PushResult, error)
	PushItems(ctx context.Context) (sync.PushResult, error)
	PushInvoices(ctx context.Context) (sync.PushResult, error)
	PushPayments(ctx context.Context) (sync.PushResult, error)
	PullContacts(ctx context.Context) (sync.PullResult, error)
	PullInvoices(ctx context.Context) (sync.PullResult, error)
}

// Worker drains the queue on a single goroutine so sync jobs never run
// concurrently.
type Worker struct {
	queue  Queue
	runner Runner
	logger *log.Logger
	done   chan struct{}
}

// NewWorker creates a worker for the given queue and runner.
func NewWorker(queue Queue, runner Runner, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.New(os.Stderr, "[worker] ", log.LstdFlags)
	}
	return &Worker{
		queue:  queue,
		runner: runner,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the worker loop. It returns immediately; cancel ctx
// to stop, then Wait for the in-flight job to finish.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.logger.Printf("worker started")
		for {
			if ctx.Err() != nil {
				w.logger.Printf("worker stopped")
				return
			}
			job, err := w.queue.Dequeue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					w.logger.Printf("worker stopped")
					return
				}
				w.logger.Printf("dequeue failed: %v", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}()
}

// Wait blocks until the worker loop has exited.
func (w *Worker) Wait() {
	<-w.done
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	w.logger.Printf("job %s (%s) started", job.ID, job.Name)
	if err := w.run(ctx, job.Name); err != nil {
		w.logger.Printf("job %s (%s) failed: %v", job.ID, job.Name, err)
		return
	}
	w.logger.Printf("job %s (%s) completed", job.ID, job.Name)
}

// run dispatches one job by name.
func (w *Worker) run(ctx context.Context, name string) error {
	switch name {
	case sync.TypePushClients:
		_, err := w.runner.PushContacts(ctx)
		return err
	case sync.TypePushItems:
		_, err := w.runner.PushItems(ctx)
		return err
	case sync.TypePushInvoices:
		_, err := w.runner.PushInvoices(ctx)
		return err
	case sync.TypePushPayments:
		_, err := w.runner.PushPayments(ctx)
		return err
	case sync.TypePullClients:
		_, err := w.runner.PullContacts(ctx)
		return err
	case sync.TypePullInvoices:
		_, err := w.runner.PullInvoices(ctx)
		return err
	case sync.TypeSyncAll:
		return w.runAll(ctx)
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}

// runAll runs the full sequence, stopping at the first failure so a
// later step never operates on a half-synced state.
func (w *Worker) runAll(ctx context.Context) error {
	if _, err := w.runner.PullContacts(ctx); err != nil {
		return fmt.Errorf("pull clients: %w", err)
	}
	if _, err := w.runner.PushItems(ctx); err != nil {
		return fmt.Errorf("push items: %w", err)
	}
	if _, err := w.runner.PullInvoices(ctx); err != nil {
		return fmt.Errorf("pull invoices: %w", err)
	}
	if _, err := w.runner.PushPayments(ctx); err != nil {
		return fmt.Errorf("push payments: %w", err)
	}
	return nil
}
