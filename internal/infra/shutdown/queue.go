// Package shutdown runs cleanup tasks in reverse order of registration.
//
// A command builds one Queue, registers a task next to each resource it
// opens, and drains the queue when it exits:
//
//	q := shutdown.New()
//	defer func() { retErr = errors.Join(retErr, q.Shutdown(ctx)) }()
//
// Tasks run once. Panics are recovered and reported as errors.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Task should honor ctx and return an error if it can't finish.
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

type Queue struct {
	mu     sync.Mutex
	tasks  []namedTask
	closed bool
}

func New() *Queue {
	return &Queue{tasks: make([]namedTask, 0, 8)}
}

// Add registers a task under a name used in logs and errors. It does
// nothing when t is nil or Shutdown has already started.
func (q *Queue) Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, namedTask{name: name, run: t})
}

// Len reports how many tasks are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Shutdown drains the queue in LIFO order. Later calls are no-ops.
//
// If ctx ends mid-drain the remaining tasks are skipped and the context
// error is joined with the task errors collected so far.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	tasks := q.tasks
	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		t := tasks[i]

		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled before %q: %w", t.name, ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "shutdown task failed", "task", t.name, "error", err)
			errs = append(errs, err)

			continue
		}

		slog.InfoContext(ctx, "shutdown task done", "task", t.name)
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t namedTask) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task %q: %v", t.name, r)
		}
	}()

	err = t.run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}

	return nil
}
