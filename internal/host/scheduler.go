package host

import (
	"context"
	"errors"
	"sync"
)

// Inline runs work directly on the caller's goroutine.
type Inline struct{}

func (Inline) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

// ErrLoopStopped is returned by Loop.Do after Run has returned.
var ErrLoopStopped = errors.New("host: event loop stopped")

// Loop is a single-goroutine event loop. All work submitted through Do
// runs on the goroutine that called Run, one task at a time, so the
// application's tree is only ever touched from one place.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns a loop with the given task backlog.
func NewLoop(backlog int) *Loop {
	if backlog <= 0 {
		backlog = 64
	}
	return &Loop{tasks: make(chan func(), backlog), done: make(chan struct{})}
}

// Run executes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Do schedules fn and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// Run may exit right after finishing the task.
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post schedules fn without waiting. It reports false when the loop is
// stopped or its backlog is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	default:
		return false
	}
}
